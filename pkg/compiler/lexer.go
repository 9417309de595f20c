package compiler

import (
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"exit":    EXIT,
	"print":   PRINT,
	"println": PRINTLN,
	"while":   WHILE,
	"if":      IF,
	"else":    ELSE,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based source column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening '#' must still be at l.peek().
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// token builds a Token whose span runs from the recorded start of the current
// lexeme to the lexer's current position.
func (l *Lexer) token(tt TokenType, lexeme string, line, col, start int) Token {
	return Token{Type: tt, Lexeme: lexeme, Span: Span{Line: line, Col: col, Length: l.pos - start}}
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	line, col, start := l.line, l.col, l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return l.token(tt, lexeme, line, col, start)
}

// scanInt collects a maximal decimal digit run and parses it as a signed
// 32-bit value. The first digit must still be at l.peek().
func (l *Lexer) scanInt() (Token, error) {
	line, col, start := l.line, l.col, l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	v, err := strconv.ParseInt(lexeme, 10, 32)
	if err != nil {
		return Token{}, lexErrorf(Span{Line: line, Col: col, Length: l.pos - start}, "invalid number %q", lexeme)
	}
	tok := l.token(INTEGER, lexeme, line, col, start)
	tok.Value = int32(v)
	return tok, nil
}

// scanString collects a string literal "..." and decodes its escapes.
// Recognized escapes are \n \t \" and \\; a backslash before any other
// character passes that character through unchanged. The returned token's
// Lexeme is the decoded value; its span covers the quotes and everything
// between them. Errors span from the opening quote to the point of failure.
func (l *Lexer) scanString() (Token, error) {
	line, col, start := l.line, l.col, l.pos
	l.advance() // consume opening "
	var val []rune

	for {
		if l.pos >= len(l.src) || l.peek() == '\n' {
			return Token{}, lexErrorf(Span{Line: line, Col: col, Length: l.pos - start}, "unterminated string literal")
		}
		r := l.peek()
		if r == '"' {
			break
		}
		if r == '\\' {
			l.advance() // consume backslash
			if l.pos >= len(l.src) || l.peek() == '\n' {
				return Token{}, lexErrorf(Span{Line: line, Col: col, Length: l.pos - start}, "unterminated escape sequence")
			}
			switch next := l.advance(); next {
			case 'n':
				val = append(val, '\n')
			case 't':
				val = append(val, '\t')
			case '"':
				val = append(val, '"')
			case '\\':
				val = append(val, '\\')
			default:
				val = append(val, next)
			}
			continue
		}
		val = append(val, r)
		l.advance()
	}
	l.advance() // consume closing "

	return l.token(STRING, string(val), line, col, start), nil
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	// Skip whitespace and comments in a loop so that a comment followed
	// immediately by more whitespace is handled.
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Span: Span{Line: l.line, Col: l.col}}, nil
		}
		if l.peek() == '#' {
			l.skipLineComment()
			continue
		}
		break
	}

	ch := l.peek()
	line, col, start := l.line, l.col, l.pos

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdent(), nil
	}
	if unicode.IsDigit(ch) {
		return l.scanInt()
	}
	if ch == '"' {
		return l.scanString()
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '{':
		return l.token(LBRACE, "{", line, col, start), nil
	case '}':
		return l.token(RBRACE, "}", line, col, start), nil
	case '(':
		return l.token(LPAREN, "(", line, col, start), nil
	case ')':
		return l.token(RPAREN, ")", line, col, start), nil
	case ';':
		return l.token(SEMICOLON, ";", line, col, start), nil

	case '+':
		return l.token(PLUS, "+", line, col, start), nil
	case '-':
		return l.token(MINUS, "-", line, col, start), nil
	case '*':
		return l.token(STAR, "*", line, col, start), nil
	case '/':
		return l.token(SLASH, "/", line, col, start), nil
	case '^':
		return l.token(CARET, "^", line, col, start), nil
	case '~':
		return l.token(TILDE, "~", line, col, start), nil
	case '&':
		if l.peek() == '&' {
			l.advance()
			return l.token(AND_LOGICAL, "&&", line, col, start), nil
		}
		return l.token(AND, "&", line, col, start), nil
	case '|':
		if l.peek() == '|' {
			l.advance()
			return l.token(OR_LOGICAL, "||", line, col, start), nil
		}
		return l.token(PIPE, "|", line, col, start), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.token(NOT_EQ, "!=", line, col, start), nil
		}
		return l.token(NOT, "!", line, col, start), nil
	case '<':
		if l.peek() == '=' {
			l.advance()
			return l.token(LESS_EQ, "<=", line, col, start), nil
		}
		if l.peek() == '<' {
			l.advance()
			return l.token(SHL_OP, "<<", line, col, start), nil
		}
		return l.token(LESS, "<", line, col, start), nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.token(GREATER_EQ, ">=", line, col, start), nil
		}
		if l.peek() == '>' {
			l.advance()
			return l.token(SHR_OP, ">>", line, col, start), nil
		}
		return l.token(GREATER, ">", line, col, start), nil
	case '=':
		if l.peek() == '=' { // lookahead: distinguish = vs ==
			l.advance()
			return l.token(EQUALS, "==", line, col, start), nil
		}
		return l.token(ASSIGN, "=", line, col, start), nil
	default:
		return Token{}, lexErrorf(Span{Line: line, Col: col, Length: 1}, "unexpected character %q", ch)
	}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first illegal character, invalid number,
// or unterminated string; the error is always a *CompileError with a span.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
