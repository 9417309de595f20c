package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Span: Span{Line: 1, Col: 1}},
			},
		},
		{
			name:  "Assignment",
			input: "x = 5",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: ASSIGN, Lexeme: "=", Span: Span{Line: 1, Col: 3, Length: 1}},
				{Type: INTEGER, Lexeme: "5", Value: 5, Span: Span{Line: 1, Col: 5, Length: 1}},
				{Type: EOF, Span: Span{Line: 1, Col: 6}},
			},
		},
		{
			name:  "Keywords",
			input: "exit print println while if else",
			expected: []Token{
				{Type: EXIT, Lexeme: "exit", Span: Span{Line: 1, Col: 1, Length: 4}},
				{Type: PRINT, Lexeme: "print", Span: Span{Line: 1, Col: 6, Length: 5}},
				{Type: PRINTLN, Lexeme: "println", Span: Span{Line: 1, Col: 12, Length: 7}},
				{Type: WHILE, Lexeme: "while", Span: Span{Line: 1, Col: 20, Length: 5}},
				{Type: IF, Lexeme: "if", Span: Span{Line: 1, Col: 26, Length: 2}},
				{Type: ELSE, Lexeme: "else", Span: Span{Line: 1, Col: 29, Length: 4}},
				{Type: EOF, Span: Span{Line: 1, Col: 33}},
			},
		},
		{
			name:  "Identifiers",
			input: "count _tmp x2",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "count", Span: Span{Line: 1, Col: 1, Length: 5}},
				{Type: IDENTIFIER, Lexeme: "_tmp", Span: Span{Line: 1, Col: 7, Length: 4}},
				{Type: IDENTIFIER, Lexeme: "x2", Span: Span{Line: 1, Col: 12, Length: 2}},
				{Type: EOF, Span: Span{Line: 1, Col: 14}},
			},
		},
		{
			name:  "Integer Values",
			input: "0 42 2147483647",
			expected: []Token{
				{Type: INTEGER, Lexeme: "0", Value: 0, Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: INTEGER, Lexeme: "42", Value: 42, Span: Span{Line: 1, Col: 3, Length: 2}},
				{Type: INTEGER, Lexeme: "2147483647", Value: 2147483647, Span: Span{Line: 1, Col: 6, Length: 10}},
				{Type: EOF, Span: Span{Line: 1, Col: 16}},
			},
		},
		{
			name:  "Two Character Operators",
			input: "<= >= == != && || << >>",
			expected: []Token{
				{Type: LESS_EQ, Lexeme: "<=", Span: Span{Line: 1, Col: 1, Length: 2}},
				{Type: GREATER_EQ, Lexeme: ">=", Span: Span{Line: 1, Col: 4, Length: 2}},
				{Type: EQUALS, Lexeme: "==", Span: Span{Line: 1, Col: 7, Length: 2}},
				{Type: NOT_EQ, Lexeme: "!=", Span: Span{Line: 1, Col: 10, Length: 2}},
				{Type: AND_LOGICAL, Lexeme: "&&", Span: Span{Line: 1, Col: 13, Length: 2}},
				{Type: OR_LOGICAL, Lexeme: "||", Span: Span{Line: 1, Col: 16, Length: 2}},
				{Type: SHL_OP, Lexeme: "<<", Span: Span{Line: 1, Col: 19, Length: 2}},
				{Type: SHR_OP, Lexeme: ">>", Span: Span{Line: 1, Col: 22, Length: 2}},
				{Type: EOF, Span: Span{Line: 1, Col: 24}},
			},
		},
		{
			name:  "Delimiters",
			input: "{ } ( ) ;",
			expected: []Token{
				{Type: LBRACE, Lexeme: "{", Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: RBRACE, Lexeme: "}", Span: Span{Line: 1, Col: 3, Length: 1}},
				{Type: LPAREN, Lexeme: "(", Span: Span{Line: 1, Col: 5, Length: 1}},
				{Type: RPAREN, Lexeme: ")", Span: Span{Line: 1, Col: 7, Length: 1}},
				{Type: SEMICOLON, Lexeme: ";", Span: Span{Line: 1, Col: 9, Length: 1}},
				{Type: EOF, Span: Span{Line: 1, Col: 10}},
			},
		},
		{
			name:  "Multiline Positions",
			input: "x = 1\ny = 2",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: ASSIGN, Lexeme: "=", Span: Span{Line: 1, Col: 3, Length: 1}},
				{Type: INTEGER, Lexeme: "1", Value: 1, Span: Span{Line: 1, Col: 5, Length: 1}},
				{Type: IDENTIFIER, Lexeme: "y", Span: Span{Line: 2, Col: 1, Length: 1}},
				{Type: ASSIGN, Lexeme: "=", Span: Span{Line: 2, Col: 3, Length: 1}},
				{Type: INTEGER, Lexeme: "2", Value: 2, Span: Span{Line: 2, Col: 5, Length: 1}},
				{Type: EOF, Span: Span{Line: 2, Col: 6}},
			},
		},
		{
			name:  "Comments",
			input: "x # note\ny",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: IDENTIFIER, Lexeme: "y", Span: Span{Line: 2, Col: 1, Length: 1}},
				{Type: EOF, Span: Span{Line: 2, Col: 2}},
			},
		},
		{
			name:  "Adjacent Tokens",
			input: "x+y",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: PLUS, Lexeme: "+", Span: Span{Line: 1, Col: 2, Length: 1}},
				{Type: IDENTIFIER, Lexeme: "y", Span: Span{Line: 1, Col: 3, Length: 1}},
				{Type: EOF, Span: Span{Line: 1, Col: 4}},
			},
		},
		{
			name:  "String Literal",
			input: `print "hi"`,
			expected: []Token{
				{Type: PRINT, Lexeme: "print", Span: Span{Line: 1, Col: 1, Length: 5}},
				{Type: STRING, Lexeme: "hi", Span: Span{Line: 1, Col: 7, Length: 4}},
				{Type: EOF, Span: Span{Line: 1, Col: 11}},
			},
		},
		{
			// The span covers the raw text with both quotes; the lexeme is
			// the decoded value.
			name:  "String Escapes",
			input: `"a\nb\t\"\\"`,
			expected: []Token{
				{Type: STRING, Lexeme: "a\nb\t\"\\", Span: Span{Line: 1, Col: 1, Length: 12}},
				{Type: EOF, Span: Span{Line: 1, Col: 13}},
			},
		},
		{
			// A backslash before an unrecognized character passes that
			// character through.
			name:  "Unknown Escape Passes Through",
			input: `"\q"`,
			expected: []Token{
				{Type: STRING, Lexeme: "q", Span: Span{Line: 1, Col: 1, Length: 4}},
				{Type: EOF, Span: Span{Line: 1, Col: 5}},
			},
		},
		{
			name:  "Unicode Identifier",
			input: "é = 1",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "é", Span: Span{Line: 1, Col: 1, Length: 1}},
				{Type: ASSIGN, Lexeme: "=", Span: Span{Line: 1, Col: 3, Length: 1}},
				{Type: INTEGER, Lexeme: "1", Value: 1, Span: Span{Line: 1, Col: 5, Length: 1}},
				{Type: EOF, Span: Span{Line: 1, Col: 6}},
			},
		},
		{
			name:    "Unexpected Character",
			input:   "@",
			wantErr: true,
		},
		{
			name:    "Unterminated String",
			input:   `"abc`,
			wantErr: true,
		},
		{
			name:    "Newline In String",
			input:   "\"ab\nc\"",
			wantErr: true,
		},
		{
			name:    "Dangling Escape",
			input:   `"ab\`,
			wantErr: true,
		},
		{
			name:    "Integer Overflow",
			input:   "2147483648",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Lex() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if !reflect.DeepEqual(got, tt.expected) {
					t.Errorf("Lex() = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestLexOperatorSequence(t *testing.T) {
	input := "+ - * / & | ^ ~ ! < > = == != <= >= << >> && ||"
	expected := []TokenType{
		PLUS, MINUS, STAR, SLASH, AND, PIPE, CARET, TILDE, NOT,
		LESS, GREATER, ASSIGN, EQUALS, NOT_EQ, LESS_EQ, GREATER_EQ,
		SHL_OP, SHR_OP, AND_LOGICAL, OR_LOGICAL, EOF,
	}

	got, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if len(got) != len(expected) {
		t.Fatalf("Lex() returned %d tokens, want %d", len(got), len(expected))
	}
	for i, tok := range got {
		if tok.Type != expected[i] {
			t.Errorf("token %d: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

// TestLexErrors pins down the kind, message, and position of each lex error.
func TestLexErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMsg  string
		wantLine int
		wantCol  int
	}{
		{
			name:     "Unexpected Character",
			input:    "x = $",
			wantMsg:  "unexpected character '$'",
			wantLine: 1,
			wantCol:  5,
		},
		{
			// The error points at the opening quote.
			name:     "Unterminated String",
			input:    `x = "abc`,
			wantMsg:  "unterminated string literal",
			wantLine: 1,
			wantCol:  5,
		},
		{
			name:     "Unterminated String On Later Line",
			input:    "y = 1\nprintln \"abc",
			wantMsg:  "unterminated string literal",
			wantLine: 2,
			wantCol:  9,
		},
		{
			name:     "Dangling Escape",
			input:    `x = "a\`,
			wantMsg:  "unterminated escape sequence",
			wantLine: 1,
			wantCol:  5,
		},
		{
			name:     "Number Too Large",
			input:    "x = 2147483648",
			wantMsg:  `invalid number "2147483648"`,
			wantLine: 1,
			wantCol:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("expected error, got tokens %v", tokens)
			}
			if tokens != nil {
				t.Errorf("expected nil tokens alongside the error, got %v", tokens)
			}

			var cerr *CompileError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *CompileError, got %T", err)
			}
			if cerr.Kind != LexError {
				t.Errorf("Kind = %v, want LexError", cerr.Kind)
			}
			if cerr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", cerr.Message, tt.wantMsg)
			}
			if cerr.Span == nil {
				t.Fatalf("expected a span on the error")
			}
			if cerr.Span.Line != tt.wantLine || cerr.Span.Col != tt.wantCol {
				t.Errorf("Span = %d:%d, want %d:%d", cerr.Span.Line, cerr.Span.Col, tt.wantLine, tt.wantCol)
			}
		})
	}
}
