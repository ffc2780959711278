package jack

import (
	"fmt"
	"strings"
)

// XMLPrinter re-derives the textbook nested-tag XML representation of a parsed class
// (class/classVarDec/subroutineDec/.../term/expressionList, one tab of indentation per
// nesting level) straight from the AST, rather than from the raw token stream the
// course's own tools walk — this module never retains tokens past parsing, so the
// printer regenerates each leaf token (keyword/symbol/identifier/constant) from the
// AST node that produced it.
type XMLPrinter struct {
	buf strings.Builder
}

func NewXMLPrinter() *XMLPrinter { return &XMLPrinter{} }

// Print renders c's XML representation and returns it as a string.
func (p *XMLPrinter) Print(c Class) string {
	p.buf.Reset()
	p.printClass(c)
	return p.buf.String()
}

func indent(depth int) string { return strings.Repeat("\t", depth) }

// escape applies the same three substitutions the textbook tool applies to symbol
// tokens that would otherwise be invalid/ambiguous inside XML text content.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func (p *XMLPrinter) leaf(depth int, tag, value string) {
	fmt.Fprintf(&p.buf, "%s<%s> %s </%s>\n", indent(depth), tag, escape(value), tag)
}

func (p *XMLPrinter) open(depth int, tag string) { fmt.Fprintf(&p.buf, "%s<%s>\n", indent(depth), tag) }
func (p *XMLPrinter) close(depth int, tag string) {
	fmt.Fprintf(&p.buf, "%s</%s>\n", indent(depth), tag)
}

func dataTypeToken(d DataType, className string) string {
	switch d {
	case Int:
		return "int"
	case Char:
		return "char"
	case Bool:
		return "boolean"
	case Void:
		return "void"
	case Object:
		return className
	default:
		return string(d)
	}
}

func (p *XMLPrinter) printType(depth int, d DataType, className string) {
	switch d {
	case Int, Char, Bool, Void:
		p.leaf(depth, "keyword", dataTypeToken(d, className))
	default:
		p.leaf(depth, "identifier", dataTypeToken(d, className))
	}
}

func (p *XMLPrinter) printClass(c Class) {
	p.open(0, "class")
	p.leaf(1, "keyword", "class")
	p.leaf(1, "identifier", c.Name)
	p.leaf(1, "symbol", "{")

	for _, name := range c.Fields.Keys() {
		v, _ := c.Fields.Get(name)
		p.printClassVarDec(1, v)
	}
	for _, name := range c.Subroutines.Keys() {
		sub, _ := c.Subroutines.Get(name)
		p.printSubroutineDec(1, c.Name, sub)
	}

	p.leaf(1, "symbol", "}")
	p.close(0, "class")
}

func (p *XMLPrinter) printClassVarDec(depth int, v Variable) {
	p.open(depth, "classVarDec")
	kind := "field"
	if v.Kind == Static {
		kind = "static"
	}
	p.leaf(depth+1, "keyword", kind)
	p.printType(depth+1, v.DataType, v.ClassName)
	p.leaf(depth+1, "identifier", v.Name)
	p.leaf(depth+1, "symbol", ";")
	p.close(depth, "classVarDec")
}

func (p *XMLPrinter) printSubroutineDec(depth int, className string, sub Subroutine) {
	p.open(depth, "subroutineDec")
	p.leaf(depth+1, "keyword", string(sub.Type))
	p.printType(depth+1, sub.Return, className)
	p.leaf(depth+1, "identifier", sub.Name)
	p.leaf(depth+1, "symbol", "(")
	p.printParameterList(depth+1, sub.Arguments)
	p.leaf(depth+1, "symbol", ")")
	p.printSubroutineBody(depth+1, className, sub)
	p.close(depth, "subroutineDec")
}

func (p *XMLPrinter) printParameterList(depth int, args []Variable) {
	p.open(depth, "parameterList")
	for i, a := range args {
		if i > 0 {
			p.leaf(depth+1, "symbol", ",")
		}
		p.printType(depth+1, a.DataType, a.ClassName)
		p.leaf(depth+1, "identifier", a.Name)
	}
	p.close(depth, "parameterList")
}

func (p *XMLPrinter) printSubroutineBody(depth int, className string, sub Subroutine) {
	p.open(depth, "subroutineBody")
	p.leaf(depth+1, "symbol", "{")
	for _, v := range sub.Locals {
		p.printVarDec(depth+1, v)
	}
	p.printStatements(depth+1, sub.Statements)
	p.leaf(depth+1, "symbol", "}")
	p.close(depth, "subroutineBody")
}

func (p *XMLPrinter) printVarDec(depth int, v Variable) {
	p.open(depth, "varDec")
	p.leaf(depth+1, "keyword", "var")
	p.printType(depth+1, v.DataType, v.ClassName)
	p.leaf(depth+1, "identifier", v.Name)
	p.leaf(depth+1, "symbol", ";")
	p.close(depth, "varDec")
}

func (p *XMLPrinter) printStatements(depth int, stmts []Statement) {
	p.open(depth, "statements")
	for _, s := range stmts {
		p.printStatement(depth+1, s)
	}
	p.close(depth, "statements")
}

func (p *XMLPrinter) printStatement(depth int, s Statement) {
	switch st := s.(type) {
	case LetStmt:
		p.printLet(depth, st)
	case IfStmt:
		p.printIf(depth, st)
	case WhileStmt:
		p.printWhile(depth, st)
	case DoStmt:
		p.printDo(depth, st)
	case ReturnStmt:
		p.printReturn(depth, st)
	case VarStmt:
		// VarStmt is only ever produced inside a subroutine body, handled via sub.Locals.
	}
}

func (p *XMLPrinter) printLet(depth int, st LetStmt) {
	p.open(depth, "letStatement")
	p.leaf(depth+1, "keyword", "let")
	switch lhs := st.Lhs.(type) {
	case VarExpr:
		p.leaf(depth+1, "identifier", lhs.Var)
	case ArrayExpr:
		p.leaf(depth+1, "identifier", lhs.Var)
		p.leaf(depth+1, "symbol", "[")
		p.printExpression(depth+1, lhs.Index)
		p.leaf(depth+1, "symbol", "]")
	}
	p.leaf(depth+1, "symbol", "=")
	p.printExpression(depth+1, st.Rhs)
	p.leaf(depth+1, "symbol", ";")
	p.close(depth, "letStatement")
}

func (p *XMLPrinter) printIf(depth int, st IfStmt) {
	p.open(depth, "ifStatement")
	p.leaf(depth+1, "keyword", "if")
	p.leaf(depth+1, "symbol", "(")
	p.printExpression(depth+1, st.Condition)
	p.leaf(depth+1, "symbol", ")")
	p.leaf(depth+1, "symbol", "{")
	p.printStatements(depth+1, st.ThenBlock)
	p.leaf(depth+1, "symbol", "}")
	if st.ElseBlock != nil {
		p.leaf(depth+1, "keyword", "else")
		p.leaf(depth+1, "symbol", "{")
		p.printStatements(depth+1, st.ElseBlock)
		p.leaf(depth+1, "symbol", "}")
	}
	p.close(depth, "ifStatement")
}

func (p *XMLPrinter) printWhile(depth int, st WhileStmt) {
	p.open(depth, "whileStatement")
	p.leaf(depth+1, "keyword", "while")
	p.leaf(depth+1, "symbol", "(")
	p.printExpression(depth+1, st.Condition)
	p.leaf(depth+1, "symbol", ")")
	p.leaf(depth+1, "symbol", "{")
	p.printStatements(depth+1, st.Block)
	p.leaf(depth+1, "symbol", "}")
	p.close(depth, "whileStatement")
}

func (p *XMLPrinter) printDo(depth int, st DoStmt) {
	p.open(depth, "doStatement")
	p.leaf(depth+1, "keyword", "do")
	p.printCall(depth+1, st.FuncCall)
	p.leaf(depth+1, "symbol", ";")
	p.close(depth, "doStatement")
}

func (p *XMLPrinter) printReturn(depth int, st ReturnStmt) {
	p.open(depth, "returnStatement")
	p.leaf(depth+1, "keyword", "return")
	if st.Expr != nil {
		p.printExpression(depth+1, st.Expr)
	}
	p.leaf(depth+1, "symbol", ";")
	p.close(depth, "returnStatement")
}

var binaryOpSymbol = map[ExprType]string{
	Plus: "+", Minus: "-", Multiply: "*", Divide: "/",
	BoolAnd: "&", BoolOr: "|", LessThan: "<", GreatThan: ">", Equal: "=",
}

type opTerm struct {
	op  ExprType
	rhs Expression
}

// flattenBinary walks e's left-associative BinaryExpr chain (spec.md §4.2's expression
// grammar has no precedence, so 'a+b+c' is just 'a', then ('+', b), ('+', c) in order)
// and returns the leading term plus the ordered (operator, term) pairs that follow it.
func flattenBinary(e Expression) (Expression, []opTerm) {
	bin, ok := e.(BinaryExpr)
	if !ok {
		return e, nil
	}
	first, rest := flattenBinary(bin.Lhs)
	return first, append(rest, opTerm{bin.Type, bin.Rhs})
}

func (p *XMLPrinter) printExpression(depth int, e Expression) {
	p.open(depth, "expression")
	first, rest := flattenBinary(e)
	p.printTerm(depth+1, first)
	for _, ot := range rest {
		p.leaf(depth+1, "symbol", binaryOpSymbol[ot.op])
		p.printTerm(depth+1, ot.rhs)
	}
	p.close(depth, "expression")
}

// printTerm renders e as a single <term>; e is never itself a BinaryExpr here, since
// printExpression already flattens the chain before calling in.
func (p *XMLPrinter) printTerm(depth int, e Expression) {
	p.open(depth, "term")
	switch ex := e.(type) {
	case LiteralExpr:
		p.printLiteral(depth+1, ex)
	case VarExpr:
		p.leaf(depth+1, "identifier", ex.Var)
	case ArrayExpr:
		p.leaf(depth+1, "identifier", ex.Var)
		p.leaf(depth+1, "symbol", "[")
		p.printExpression(depth+1, ex.Index)
		p.leaf(depth+1, "symbol", "]")
	case UnaryExpr:
		op := "-"
		if ex.Type == BoolNot {
			op = "~"
		}
		p.leaf(depth+1, "symbol", op)
		p.printTerm(depth+1, ex.Rhs)
	case FuncCallExpr:
		p.printCall(depth+1, ex)
	}
	p.close(depth, "term")
}

func (p *XMLPrinter) printLiteral(depth int, ex LiteralExpr) {
	switch ex.Type {
	case Int:
		p.leaf(depth, "integerConstant", ex.Value)
	case String:
		p.leaf(depth, "stringConstant", ex.Value)
	case Bool:
		p.leaf(depth, "keyword", ex.Value)
	case Null:
		p.leaf(depth, "keyword", "null")
	default:
		p.leaf(depth, "keyword", ex.Value)
	}
}

func (p *XMLPrinter) printCall(depth int, call FuncCallExpr) {
	if call.IsExtCall {
		p.leaf(depth, "identifier", call.Var)
		p.leaf(depth, "symbol", ".")
	}
	p.leaf(depth, "identifier", call.FuncName)
	p.leaf(depth, "symbol", "(")
	p.printExpressionList(depth, call.Arguments)
	p.leaf(depth, "symbol", ")")
}

func (p *XMLPrinter) printExpressionList(depth int, args []Expression) {
	p.open(depth, "expressionList")
	for i, a := range args {
		if i > 0 {
			p.leaf(depth+1, "symbol", ",")
		}
		p.printExpression(depth+1, a)
	}
	p.close(depth, "expressionList")
}
