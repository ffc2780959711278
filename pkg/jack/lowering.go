package jack

import (
	"fmt"
	"strconv"

	"github.com/hackforge/n2t/pkg/diag"
	"github.com/hackforge/n2t/pkg/vm"
)

// Emitter walks a Class AST and emits a vm.Module, maintaining the two-scope symbol
// table and the shared if/while label counter (spec.md §4.2, §9 "label counter
// coupling"). It builds the same vm.Operation IR the VM translator's own parser
// produces from .vm text, so the two stages can share pkg/vm's code generator.
type Emitter struct {
	file          string
	className     string
	scopes        *ScopeTable
	branchCounter int
	ops           vm.Module
}

func NewEmitter(file string) *Emitter {
	return &Emitter{file: file, scopes: NewScopeTable()}
}

// EmitClass lowers one class to a vm.Module. It pushes and pops the class scope
// itself; subroutines push/pop their own subroutine scope.
func (e *Emitter) EmitClass(c Class) (vm.Module, error) {
	e.className = c.Name
	e.ops = nil
	e.scopes.PushClassScope()
	defer e.scopes.PopClassScope()

	for _, name := range c.Fields.Keys() {
		v, _ := c.Fields.Get(name)
		if err := e.scopes.RegisterVariable(v); err != nil {
			return nil, e.semanticErr(0, "%v", err)
		}
	}

	for _, name := range c.Subroutines.Keys() {
		sub, _ := c.Subroutines.Get(name)
		if err := e.emitSubroutine(sub); err != nil {
			return nil, err
		}
	}
	return e.ops, nil
}

func (e *Emitter) semanticErr(line int, format string, args ...any) error {
	return diag.New(diag.Semantic, e.file, line, format, args...)
}

func (e *Emitter) emit(op vm.Operation) { e.ops = append(e.ops, op) }

func (e *Emitter) emitSubroutine(sub Subroutine) error {
	e.scopes.PushSubRoutineScope()
	defer e.scopes.PopSubroutineScope()

	if sub.Type == Method {
		this := Variable{Name: "this", Kind: Parameter, DataType: Object, ClassName: e.className}
		if err := e.scopes.RegisterVariable(this); err != nil {
			return e.semanticErr(0, "%v", err)
		}
	}
	for _, a := range sub.Arguments {
		if err := e.scopes.RegisterVariable(a); err != nil {
			return e.semanticErr(0, "%v", err)
		}
	}
	for _, l := range sub.Locals {
		if err := e.scopes.RegisterVariable(l); err != nil {
			return e.semanticErr(0, "%v", err)
		}
	}

	e.emit(vm.FuncDecl{Name: fmt.Sprintf("%s.%s", e.className, sub.Name), NLocal: uint8(len(sub.Locals))})

	switch sub.Type {
	case Constructor:
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: e.scopes.FieldCount()})
		e.emit(vm.FuncCallOp{Name: "Memory.alloc", NArgs: 1})
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0})
	case Method:
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0})
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0})
	}

	for _, stmt := range sub.Statements {
		if err := e.emitStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitStatement(s Statement) error {
	switch st := s.(type) {
	case DoStmt:
		if err := e.emitFuncCall(st.FuncCall); err != nil {
			return err
		}
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Temp, Offset: 0})
		return nil
	case LetStmt:
		return e.emitLet(st)
	case IfStmt:
		return e.emitIf(st)
	case WhileStmt:
		return e.emitWhile(st)
	case ReturnStmt:
		return e.emitReturn(st)
	case VarStmt:
		return nil // locals are registered up-front in emitSubroutine; no VM op
	default:
		return fmt.Errorf("unknown statement type %T", s)
	}
}

func (e *Emitter) emitLet(st LetStmt) error {
	switch lhs := st.Lhs.(type) {
	case VarExpr:
		if err := e.emitExpression(st.Rhs); err != nil {
			return err
		}
		return e.emitPopVar(lhs.Var)
	case ArrayExpr:
		if err := e.emitExpression(VarExpr{Var: lhs.Var}); err != nil {
			return err
		}
		if err := e.emitExpression(lhs.Index); err != nil {
			return err
		}
		e.emit(vm.ArithmeticOp{Operation: vm.Add})
		// RHS is fully evaluated before 'pointer 1' is clobbered by the LHS address,
		// which matters when the RHS itself indexes an array (spec.md §4.2).
		if err := e.emitExpression(st.Rhs); err != nil {
			return err
		}
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Temp, Offset: 0})
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1})
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 0})
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.That, Offset: 0})
		return nil
	default:
		return fmt.Errorf("invalid assignment target %T", st.Lhs)
	}
}

func (e *Emitter) emitIf(st IfStmt) error {
	n := e.branchCounter
	e.branchCounter++

	if err := e.emitExpression(st.Condition); err != nil {
		return err
	}
	e.emit(vm.ArithmeticOp{Operation: vm.Not})
	e.emit(vm.GotoOp{Jump: vm.Conditional, Label: fmt.Sprintf("%s_FALSECASE_%d", e.className, n)})
	for _, s := range st.ThenBlock {
		if err := e.emitStatement(s); err != nil {
			return err
		}
	}

	if st.ElseBlock != nil {
		e.emit(vm.GotoOp{Jump: vm.Unconditional, Label: fmt.Sprintf("%s_TRUECASE_%d", e.className, n)})
		e.emit(vm.LabelDecl{Name: fmt.Sprintf("%s_FALSECASE_%d", e.className, n)})
		for _, s := range st.ElseBlock {
			if err := e.emitStatement(s); err != nil {
				return err
			}
		}
		e.emit(vm.LabelDecl{Name: fmt.Sprintf("%s_TRUECASE_%d", e.className, n)})
	} else {
		e.emit(vm.LabelDecl{Name: fmt.Sprintf("%s_FALSECASE_%d", e.className, n)})
	}
	return nil
}

func (e *Emitter) emitWhile(st WhileStmt) error {
	n := e.branchCounter
	e.branchCounter++

	e.emit(vm.LabelDecl{Name: fmt.Sprintf("%s_WHILE_%d", e.className, n)})
	if err := e.emitExpression(st.Condition); err != nil {
		return err
	}
	e.emit(vm.ArithmeticOp{Operation: vm.Not})
	e.emit(vm.GotoOp{Jump: vm.Conditional, Label: fmt.Sprintf("%s_BREAK_%d", e.className, n)})
	for _, s := range st.Block {
		if err := e.emitStatement(s); err != nil {
			return err
		}
	}
	e.emit(vm.GotoOp{Jump: vm.Unconditional, Label: fmt.Sprintf("%s_WHILE_%d", e.className, n)})
	e.emit(vm.LabelDecl{Name: fmt.Sprintf("%s_BREAK_%d", e.className, n)})
	return nil
}

func (e *Emitter) emitReturn(st ReturnStmt) error {
	if st.Expr == nil {
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0}) // void functions must still return a value on the stack
	} else if err := e.emitExpression(st.Expr); err != nil {
		return err
	}
	e.emit(vm.ReturnOp{})
	return nil
}

func (e *Emitter) emitExpression(expr Expression) error {
	switch ex := expr.(type) {
	case VarExpr:
		return e.emitVarExpr(ex)
	case LiteralExpr:
		return e.emitLiteral(ex)
	case ArrayExpr:
		if err := e.emitExpression(VarExpr{Var: ex.Var}); err != nil {
			return err
		}
		if err := e.emitExpression(ex.Index); err != nil {
			return err
		}
		e.emit(vm.ArithmeticOp{Operation: vm.Add})
		e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1})
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.That, Offset: 0})
		return nil
	case UnaryExpr:
		if err := e.emitExpression(ex.Rhs); err != nil {
			return err
		}
		switch ex.Type {
		case Minus:
			e.emit(vm.ArithmeticOp{Operation: vm.Neg})
		case BoolNot:
			e.emit(vm.ArithmeticOp{Operation: vm.Not})
		default:
			return fmt.Errorf("invalid unary operator %q", ex.Type)
		}
		return nil
	case BinaryExpr:
		if err := e.emitExpression(ex.Lhs); err != nil {
			return err
		}
		if err := e.emitExpression(ex.Rhs); err != nil {
			return err
		}
		switch ex.Type {
		case Plus:
			e.emit(vm.ArithmeticOp{Operation: vm.Add})
		case Minus:
			e.emit(vm.ArithmeticOp{Operation: vm.Sub})
		case BoolAnd:
			e.emit(vm.ArithmeticOp{Operation: vm.And})
		case BoolOr:
			e.emit(vm.ArithmeticOp{Operation: vm.Or})
		case LessThan:
			e.emit(vm.ArithmeticOp{Operation: vm.Lt})
		case GreatThan:
			e.emit(vm.ArithmeticOp{Operation: vm.Gt})
		case Equal:
			e.emit(vm.ArithmeticOp{Operation: vm.Eq})
		case Multiply:
			e.emit(vm.FuncCallOp{Name: "Math.multiply", NArgs: 2})
		case Divide:
			e.emit(vm.FuncCallOp{Name: "Math.divide", NArgs: 2})
		default:
			return fmt.Errorf("invalid binary operator %q", ex.Type)
		}
		return nil
	case FuncCallExpr:
		return e.emitFuncCall(ex)
	default:
		return fmt.Errorf("unknown expression type %T", expr)
	}
}

func (e *Emitter) emitVarExpr(ex VarExpr) error {
	if ex.Var == "this" {
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0})
		return nil
	}
	sym, ok := e.scopes.Resolve(ex.Var)
	if !ok {
		return e.semanticErr(0, "variable %q undeclared, not found in any scope", ex.Var)
	}
	e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.SegmentType(sym.Segment()), Offset: sym.Index})
	return nil
}

func (e *Emitter) emitPopVar(name string) error {
	sym, ok := e.scopes.Resolve(name)
	if !ok {
		return e.semanticErr(0, "variable %q undeclared, not found in any scope", name)
	}
	e.emit(vm.MemoryOp{Operation: vm.Pop, Segment: vm.SegmentType(sym.Segment()), Offset: sym.Index})
	return nil
}

func (e *Emitter) emitLiteral(ex LiteralExpr) error {
	switch ex.Type {
	case Int:
		n, err := strconv.Atoi(ex.Value)
		if err != nil || n < 0 || n > 32767 {
			return e.semanticErr(0, "integer literal %q out of range", ex.Value)
		}
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(n)})
	case Bool:
		if ex.Value == "true" {
			e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1})
			e.emit(vm.ArithmeticOp{Operation: vm.Neg})
		} else {
			e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0})
		}
	case Null:
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0})
	case String:
		runes := []rune(ex.Value)
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(len(runes))})
		e.emit(vm.FuncCallOp{Name: "String.new", NArgs: 1})
		for _, c := range runes {
			if c < 32 || c > 126 {
				return e.semanticErr(0, "unsupported character code %d in string literal", c)
			}
			e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(c)})
			e.emit(vm.FuncCallOp{Name: "String.appendChar", NArgs: 2})
		}
	default:
		return fmt.Errorf("invalid literal type %q", ex.Type)
	}
	return nil
}

// emitFuncCall implements the three subroutineCall forms from spec.md §4.2. Since Jack
// has no forward declarations visible across files, form (3) assumes an unbound
// identifier names a class — fragile, but part of the Jack specification (spec.md §9).
func (e *Emitter) emitFuncCall(call FuncCallExpr) error {
	if !call.IsExtCall {
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0})
		for _, a := range call.Arguments {
			if err := e.emitExpression(a); err != nil {
				return err
			}
		}
		e.emit(vm.FuncCallOp{Name: fmt.Sprintf("%s.%s", e.className, call.FuncName), NArgs: uint8(len(call.Arguments) + 1)})
		return nil
	}

	if sym, ok := e.scopes.Resolve(call.Var); ok {
		if sym.DataType.IsPrimitive() {
			return e.semanticErr(0, "cannot call method %q on primitive-typed variable %q", call.FuncName, call.Var)
		}
		e.emit(vm.MemoryOp{Operation: vm.Push, Segment: vm.SegmentType(sym.Segment()), Offset: sym.Index})
		for _, a := range call.Arguments {
			if err := e.emitExpression(a); err != nil {
				return err
			}
		}
		e.emit(vm.FuncCallOp{Name: fmt.Sprintf("%s.%s", sym.ClassName, call.FuncName), NArgs: uint8(len(call.Arguments) + 1)})
		return nil
	}

	for _, a := range call.Arguments {
		if err := e.emitExpression(a); err != nil {
			return err
		}
	}
	e.emit(vm.FuncCallOp{Name: fmt.Sprintf("%s.%s", call.Var, call.FuncName), NArgs: uint8(len(call.Arguments))})
	return nil
}
