package jack

import "fmt"

// Symbol is a resolved name: its storage kind, its declared type, and its running index
// within its (scope, kind) pair.
type Symbol struct {
	Name      string
	Kind      VarType
	DataType  DataType
	ClassName string
	Index     uint16
}

// Segment maps a symbol's Kind to the VM memory segment used to push/pop it.
func (s Symbol) Segment() string {
	switch s.Kind {
	case Local:
		return "local"
	case Parameter:
		return "argument"
	case Field:
		return "this"
	case Static:
		return "static"
	default:
		return ""
	}
}

// ScopeTable is the two-scope symbol table from spec.md §3: a class-scoped mapping
// (static/field) and a subroutine-scoped mapping (local/parameter), plus four
// independent, monotonically increasing counters. Subroutine scope is cleared at every
// subroutine entry; class scope persists across subroutines and is cleared when a class
// begins (PushClassScope) or ends (PopClassScope).
type ScopeTable struct {
	class map[string]Symbol
	sub   map[string]Symbol

	nStatic, nField, nLocal, nArg uint16
}

func NewScopeTable() *ScopeTable {
	return &ScopeTable{class: map[string]Symbol{}, sub: map[string]Symbol{}}
}

// PushClassScope resets the class-wide scope and its two counters for a new class.
func (st *ScopeTable) PushClassScope() {
	st.class = map[string]Symbol{}
	st.nStatic, st.nField = 0, 0
}

func (st *ScopeTable) PopClassScope() { st.class = map[string]Symbol{} }

// PushSubRoutineScope clears the subroutine-local scope and its two counters. This is
// the only non-trivial lifecycle event in the symbol table (spec.md §9) and must run on
// every subroutine entry regardless of the subroutine's kind.
func (st *ScopeTable) PushSubRoutineScope() {
	st.sub = map[string]Symbol{}
	st.nLocal, st.nArg = 0, 0
}

func (st *ScopeTable) PopSubroutineScope() { st.sub = map[string]Symbol{} }

// FieldCount is the running field counter, i.e. the object size passed to Memory.alloc
// by a constructor (spec.md §4.2, classVarDec).
func (st *ScopeTable) FieldCount() uint16 { return st.nField }

// RegisterVariable assigns the next contiguous index for v's Kind and records it in the
// matching scope. Redefinition within the same scope is a hard error (spec.md §3).
func (st *ScopeTable) RegisterVariable(v Variable) error {
	switch v.Kind {
	case Static:
		if err := checkDup(st.class, v.Name); err != nil {
			return err
		}
		st.class[v.Name] = Symbol{Name: v.Name, Kind: Static, DataType: v.DataType, ClassName: v.ClassName, Index: st.nStatic}
		st.nStatic++
	case Field:
		if err := checkDup(st.class, v.Name); err != nil {
			return err
		}
		st.class[v.Name] = Symbol{Name: v.Name, Kind: Field, DataType: v.DataType, ClassName: v.ClassName, Index: st.nField}
		st.nField++
	case Local:
		if err := checkDup(st.sub, v.Name); err != nil {
			return err
		}
		st.sub[v.Name] = Symbol{Name: v.Name, Kind: Local, DataType: v.DataType, ClassName: v.ClassName, Index: st.nLocal}
		st.nLocal++
	case Parameter:
		if err := checkDup(st.sub, v.Name); err != nil {
			return err
		}
		st.sub[v.Name] = Symbol{Name: v.Name, Kind: Parameter, DataType: v.DataType, ClassName: v.ClassName, Index: st.nArg}
		st.nArg++
	default:
		return fmt.Errorf("cannot register variable %q with kind %q", v.Name, v.Kind)
	}
	return nil
}

func checkDup(scope map[string]Symbol, name string) error {
	if _, exists := scope[name]; exists {
		return fmt.Errorf("symbol %q already declared in this scope", name)
	}
	return nil
}

// Resolve looks a name up in local scope first, then global (spec.md §4.2).
func (st *ScopeTable) Resolve(name string) (Symbol, bool) {
	if s, ok := st.sub[name]; ok {
		return s, true
	}
	if s, ok := st.class[name]; ok {
		return s, true
	}
	return Symbol{}, false
}
