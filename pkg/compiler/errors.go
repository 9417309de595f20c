package compiler

import (
	"fmt"
	"strings"
)

// ErrorKind says which stage of the compiler rejected the input.
type ErrorKind int

const (
	LexError   ErrorKind = iota // invalid character, bad literal, unterminated string
	ParseError                  // unexpected token, unknown variable, type mismatch
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "Lexer error"
	case ParseError:
		return "Parser error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// CompileError is the single error type produced by Lex and Parse. The first
// error aborts the stage that found it; there is no recovery or collection.
//
// Span is nil for errors that have no single source location, such as type
// mismatches found while deriving the type of a whole expression.
type CompileError struct {
	Kind    ErrorKind
	Message string
	Span    *Span
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// FormatWithSource renders the error with a source-line excerpt and a caret
// underline when a span is available:
//
//	3:9: Lexer error: unterminated string literal
//	println "abc
//	        ^^^^
//
// Without a span it falls back to the bare Error() form.
func (e *CompileError) FormatWithSource(src string) string {
	if e.Span == nil {
		return e.Error()
	}
	excerpt, ok := sourceLine(src, e.Span.Line)
	if !ok {
		return e.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%d: %s: %s\n", e.Span.Line, e.Span.Col, e.Kind, e.Message)
	b.WriteString(excerpt)
	b.WriteByte('\n')
	col := e.Span.Col
	if col < 1 {
		col = 1
	}
	width := e.Span.Length
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat(" ", col-1))
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

// sourceLine returns the 1-based line n of src without its line terminator.
func sourceLine(src string, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	lines := strings.Split(src, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

func lexErrorf(span Span, format string, args ...any) *CompileError {
	return &CompileError{Kind: LexError, Message: fmt.Sprintf(format, args...), Span: &span}
}

func parseErrorf(span Span, format string, args ...any) *CompileError {
	return &CompileError{Kind: ParseError, Message: fmt.Sprintf(format, args...), Span: &span}
}

// typeErrorf is for mismatches found during type derivation, which cover a
// whole expression rather than one token and so carry no span.
func typeErrorf(format string, args ...any) *CompileError {
	return &CompileError{Kind: ParseError, Message: fmt.Sprintf(format, args...)}
}
