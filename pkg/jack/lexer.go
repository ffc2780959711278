package jack

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/hackforge/n2t/pkg/diag"
)

// lexState is one of the six states of the Jack lexer's FSM (spec.md §4.1).
type lexState int

const (
	stateNormal lexState = iota
	stateSlash
	stateString
	stateBlockComment
	stateBlockCommentStar
	stateEscape
)

// Lexer tokenizes Jack source with an explicit state machine, operating line by line;
// block-comment state is the only thing carried across line boundaries.
type Lexer struct {
	file    string
	scanner *bufio.Scanner
	lineNo  int

	state   lexState
	pending strings.Builder

	tokens []Token
}

func NewLexer(file string, r io.Reader) *Lexer {
	return &Lexer{file: file, scanner: bufio.NewScanner(r), state: stateNormal}
}

// Tokenize consumes the whole input, returning the token stream or the first lexical
// error encountered. The pipeline has no recovery (spec.md §7): the first error aborts.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.scanner.Scan() {
		l.lineNo++
		if err := l.scanLine(l.scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := l.scanner.Err(); err != nil {
		return nil, diag.New(diag.Lexical, l.file, l.lineNo, "read error: %v", err)
	}
	if l.state == stateBlockComment || l.state == stateBlockCommentStar {
		return nil, diag.New(diag.Lexical, l.file, l.lineNo, "unterminated block comment")
	}
	return l.tokens, nil
}

func (l *Lexer) emit(kind TokenKind, lexeme string) {
	l.tokens = append(l.tokens, Token{Kind: kind, Lexeme: lexeme, Line: l.lineNo})
}

func (l *Lexer) flush() {
	if l.pending.Len() == 0 {
		return
	}
	text := l.pending.String()
	l.pending.Reset()
	l.emit(classify(text), text)
}

func classify(text string) TokenKind {
	if keywords[text] {
		return KeywordTok
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return IntegerConstantTok
	}
	return IdentifierTok
}

func (l *Lexer) scanLine(line string) error {
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch l.state {
		case stateNormal:
			switch {
			case c == '/':
				l.flush()
				l.state = stateSlash
			case c == '"':
				l.flush()
				l.state = stateString
			case c == '\\':
				l.flush()
				l.state = stateEscape
			case c == ' ' || c == '\t':
				l.flush()
			case strings.ContainsRune(symbolChars, c):
				l.flush()
				l.emit(SymbolTok, string(c))
			default:
				l.pending.WriteRune(c)
			}

		case stateSlash:
			switch c {
			case '/':
				l.state = stateNormal
				return nil // rest of line is a line comment
			case '*':
				l.state = stateBlockComment
			default:
				l.emit(SymbolTok, "/")
				l.state = stateNormal
				i-- // re-dispatch this rune in Normal state
			}

		case stateString:
			if c == '"' {
				l.emit(StringConstantTok, l.pending.String())
				l.pending.Reset()
				l.state = stateNormal
			} else {
				l.pending.WriteRune(c)
			}

		case stateBlockComment:
			if c == '*' {
				l.state = stateBlockCommentStar
			}

		case stateBlockCommentStar:
			switch c {
			case '/':
				l.state = stateNormal
			case '*':
				// stays in BlockCommentStar
			default:
				l.state = stateBlockComment
			}

		case stateEscape:
			if c == 't' {
				l.pending.WriteRune('\t')
				l.state = stateNormal
			} else {
				return diag.New(diag.Lexical, l.file, l.lineNo, "unknown escape sequence '\\%c'", c)
			}
		}
	}

	switch l.state {
	case stateSlash:
		return diag.New(diag.Lexical, l.file, l.lineNo, "stray '/' at end of line")
	case stateString:
		return diag.New(diag.Lexical, l.file, l.lineNo, "unterminated string literal")
	case stateEscape:
		return diag.New(diag.Lexical, l.file, l.lineNo, "unterminated escape sequence")
	case stateNormal:
		l.flush()
	}
	return nil
}
