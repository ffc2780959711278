package jack

import "fmt"

// TypeChecker performs the symbol-table-membership validation spec.md's Non-goals
// explicitly keep in scope ("type checking beyond symbol-table membership" is excluded,
// membership itself is not). It walks the same Class AST the Emitter walks and checks
// that every variable reference resolves to a declared symbol, without inferring or
// comparing static types.
//
// knownClasses additionally lets --typecheck catch calls into classes that were never
// parsed and aren't in the linked stdlib ABI either (a typo'd class name), something a
// bare symbol-table walk can't see on its own.
type TypeChecker struct {
	scopes       *ScopeTable
	className    string
	knownClasses map[string]bool
}

func NewTypeChecker(knownClasses map[string]bool) *TypeChecker {
	return &TypeChecker{scopes: NewScopeTable(), knownClasses: knownClasses}
}

func (tc *TypeChecker) CheckClass(c Class) error {
	tc.className = c.Name
	tc.scopes.PushClassScope()
	defer tc.scopes.PopClassScope()

	for _, name := range c.Fields.Keys() {
		v, _ := c.Fields.Get(name)
		if err := tc.scopes.RegisterVariable(v); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	for _, name := range c.Subroutines.Keys() {
		sub, _ := c.Subroutines.Get(name)
		if err := tc.checkSubroutine(sub); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	return nil
}

func (tc *TypeChecker) checkSubroutine(sub Subroutine) error {
	tc.scopes.PushSubRoutineScope()
	defer tc.scopes.PopSubroutineScope()

	if sub.Type == Method {
		this := Variable{Name: "this", Kind: Parameter, DataType: Object, ClassName: tc.className}
		if err := tc.scopes.RegisterVariable(this); err != nil {
			return err
		}
	}
	for _, a := range sub.Arguments {
		if err := tc.scopes.RegisterVariable(a); err != nil {
			return err
		}
	}
	for _, l := range sub.Locals {
		if err := tc.scopes.RegisterVariable(l); err != nil {
			return err
		}
	}

	for _, stmt := range sub.Statements {
		if err := tc.checkStatement(stmt); err != nil {
			return fmt.Errorf("subroutine %s: %w", sub.Name, err)
		}
	}
	return nil
}

func (tc *TypeChecker) checkStatement(s Statement) error {
	switch st := s.(type) {
	case DoStmt:
		return tc.checkCall(st.FuncCall)
	case LetStmt:
		if err := tc.checkExpr(st.Lhs); err != nil {
			return err
		}
		return tc.checkExpr(st.Rhs)
	case IfStmt:
		if err := tc.checkExpr(st.Condition); err != nil {
			return err
		}
		for _, x := range st.ThenBlock {
			if err := tc.checkStatement(x); err != nil {
				return err
			}
		}
		for _, x := range st.ElseBlock {
			if err := tc.checkStatement(x); err != nil {
				return err
			}
		}
		return nil
	case WhileStmt:
		if err := tc.checkExpr(st.Condition); err != nil {
			return err
		}
		for _, x := range st.Block {
			if err := tc.checkStatement(x); err != nil {
				return err
			}
		}
		return nil
	case ReturnStmt:
		if st.Expr == nil {
			return nil
		}
		return tc.checkExpr(st.Expr)
	case VarStmt:
		return nil
	default:
		return fmt.Errorf("unknown statement type %T", s)
	}
}

func (tc *TypeChecker) checkExpr(e Expression) error {
	switch ex := e.(type) {
	case VarExpr:
		if ex.Var == "this" {
			return nil
		}
		if _, ok := tc.scopes.Resolve(ex.Var); !ok {
			return fmt.Errorf("variable %q undeclared, not found in any scope", ex.Var)
		}
		return nil
	case LiteralExpr:
		return nil
	case ArrayExpr:
		if _, ok := tc.scopes.Resolve(ex.Var); !ok {
			return fmt.Errorf("variable %q undeclared, not found in any scope", ex.Var)
		}
		return tc.checkExpr(ex.Index)
	case UnaryExpr:
		return tc.checkExpr(ex.Rhs)
	case BinaryExpr:
		if err := tc.checkExpr(ex.Lhs); err != nil {
			return err
		}
		return tc.checkExpr(ex.Rhs)
	case FuncCallExpr:
		return tc.checkCall(ex)
	default:
		return fmt.Errorf("unknown expression type %T", e)
	}
}

func (tc *TypeChecker) checkCall(call FuncCallExpr) error {
	if call.IsExtCall {
		if sym, ok := tc.scopes.Resolve(call.Var); ok {
			if sym.DataType.IsPrimitive() {
				return fmt.Errorf("cannot call method %q on primitive-typed variable %q", call.FuncName, call.Var)
			}
		} else if tc.knownClasses != nil && !tc.knownClasses[call.Var] {
			// Unresolved as a variable, so call.Var is assumed to name a class (spec.md §9);
			// when the caller supplied the known-class set (--stdlib/--typecheck), enforce it.
			return fmt.Errorf("call to unknown class %q", call.Var)
		}
	}
	for _, a := range call.Arguments {
		if err := tc.checkExpr(a); err != nil {
			return err
		}
	}
	return nil
}
