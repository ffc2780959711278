package jack

// TokenKind classifies a Token (spec.md §3).
type TokenKind string

const (
	KeywordTok         TokenKind = "keyword"
	SymbolTok          TokenKind = "symbol"
	IntegerConstantTok TokenKind = "integerConstant"
	StringConstantTok  TokenKind = "stringConstant"
	IdentifierTok      TokenKind = "identifier"
)

// Token is a single lexical unit with the source line it came from, for diagnostics.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
}

// keywords is the fixed 21-element Jack keyword set.
var keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

// symbolChars is the fixed 19-character Jack symbol set.
const symbolChars = "{}()[].,;+-*/&|<>=~"
