package jack

import "github.com/hackforge/n2t/pkg/utils"

// ----------------------------------------------------------------------------
// General information

// A program is basically a container of classes (the only top-level construct allowed)
// and is started by locating the Main class and executing its 'main' function. Other than
// classes the other 4 main constructs are:
// - Variables: containers of value (also used for class fields)
// - Subroutines: containers of statements (also used for class methods)
// - Statements: side effects, conditional jumps or other flow changes
// - Expressions: calculations that produce a result (arithmetic ops and so on...)

// Program is a set of classes keyed by name, in insertion order so that translating the
// same set of files twice always emits classes (and therefore labels/counters) in the
// same order.
type Program = utils.OrderedMap[string, Class]

func NewProgram() Program { return utils.NewOrderedMap[string, Class]() }

// ----------------------------------------------------------------------------
// Classes

// A Class is a list of Fields that hold state and Subroutines that change said state.
type Class struct {
	Name        string
	Fields      utils.OrderedMap[string, Variable]
	Subroutines utils.OrderedMap[string, Subroutine]
}

// ----------------------------------------------------------------------------
// Subroutines

// A Subroutine takes a series of inputs and returns an output, like a math function.
// As part of its computation it may change the state of some variables in the program,
// either by direct manipulation of the class' fields or by returning a value.
type Subroutine struct {
	Name string
	Type SubroutineType

	Return    DataType
	Arguments []Variable
	Locals    []Variable

	Statements []Statement
}

type SubroutineType string

const (
	Method      SubroutineType = "method"
	Function    SubroutineType = "function"
	Constructor SubroutineType = "constructor"
)

// ----------------------------------------------------------------------------
// Statements

// Statement is the shared interface for every Jack statement kind.
type Statement interface{ isStatement() }

type DoStmt struct{ FuncCall FuncCallExpr }

type VarStmt struct{ Vars []Variable }

type LetStmt struct {
	Lhs Expression // VarExpr or ArrayExpr only
	Rhs Expression
}

type ReturnStmt struct{ Expr Expression } // Expr is nil for bare 'return;'

type IfStmt struct {
	Condition Expression
	ThenBlock []Statement
	ElseBlock []Statement // nil if no else
}

type WhileStmt struct {
	Condition Expression
	Block     []Statement
}

func (DoStmt) isStatement()     {}
func (VarStmt) isStatement()    {}
func (LetStmt) isStatement()    {}
func (ReturnStmt) isStatement() {}
func (IfStmt) isStatement()     {}
func (WhileStmt) isStatement()  {}

// ----------------------------------------------------------------------------
// Expressions

// Expression is the shared interface for every Jack expression kind.
type Expression interface{ isExpression() }

type VarExpr struct{ Var string }

type LiteralExpr struct {
	Type  DataType
	Value string
}

type ArrayExpr struct {
	Var   string
	Index Expression
}

type UnaryExpr struct {
	Type ExprType // Minus or BoolNot only
	Rhs  Expression
}

type BinaryExpr struct {
	Type ExprType // every ExprType except BoolNot
	Lhs  Expression
	Rhs  Expression
}

type FuncCallExpr struct {
	IsExtCall bool   // 'class.Method(x, y)' or 'var.Method(x, y)'
	Var       string // receiver, "" if IsExtCall == false
	FuncName  string

	Arguments []Expression
}

func (VarExpr) isExpression()      {}
func (LiteralExpr) isExpression()  {}
func (ArrayExpr) isExpression()    {}
func (UnaryExpr) isExpression()    {}
func (BinaryExpr) isExpression()   {}
func (FuncCallExpr) isExpression() {}

type ExprType string

const (
	Plus     ExprType = "plus"
	Minus    ExprType = "minus" // subtraction (BinaryExpr) and arithmetic negation (UnaryExpr)
	Divide   ExprType = "divide"
	Multiply ExprType = "multiply"

	BoolOr  ExprType = "bool_or"
	BoolAnd ExprType = "bool_and"
	BoolNot ExprType = "bool_neg" // UnaryExpr only

	Equal     ExprType = "equal"
	LessThan  ExprType = "less_than"
	GreatThan ExprType = "greater_than"
)

// ----------------------------------------------------------------------------
// Variables

// Variable is a container of value readable/writable through expressions/statements.
// The same struct accommodates static & instance fields for classes as well as local
// variables and parameters for subroutines; Kind says which.
type Variable struct {
	Name      string
	Kind      VarType
	DataType  DataType
	ClassName string // set when DataType == Object
}

type VarType string

const (
	Local     VarType = "local"
	Field     VarType = "field"
	Static    VarType = "static"
	Parameter VarType = "parameter"
)

type DataType string

const (
	Int    DataType = "int"
	Bool   DataType = "bool"
	Char   DataType = "char"
	Null   DataType = "null"
	String DataType = "string"
	Void   DataType = "void"
	Object DataType = "object"
)

// IsPrimitive reports whether d can never be a method-call receiver (spec.md §4.2,
// subroutineCall form 2: primitive receivers are a hard error).
func (d DataType) IsPrimitive() bool {
	switch d {
	case Int, Bool, Char, Void:
		return true
	default:
		return false
	}
}
