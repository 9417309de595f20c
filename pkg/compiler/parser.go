package compiler

import "fmt"

// Parser consumes the flat token slice produced by the Lexer and builds an
// AST. Type checking is fused into parsing: a variable-type table is filled
// in as assignments are parsed, and every expression is checked at the site
// where it is consumed.
//
// Grammar:
//
//	program     = statement* EOF
//	statement   = assignment | exitStmt | printStmt | printlnStmt | whileStmt | ifStmt
//	assignment  = IDENTIFIER "=" expression [";"]
//	exitStmt    = "exit" [expression] [";"]
//	printStmt   = "print" expression [";"]
//	printlnStmt = "println" [expression] [";"]
//	whileStmt   = "while" expression block
//	ifStmt      = "if" expression block ["else" block]
//	block       = "{" statement* "}"
//	expression  = precedence climbing over binary operators, see binaryPrecedence
//	unary       = ("!" | "-" | "~") unary | primary
//	primary     = INTEGER | STRING | IDENTIFIER | "(" expression ")"
type Parser struct {
	tokens []Token
	pos    int
	types  map[string]Type
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, types: make(map[string]Type)}
}

// precedence orders the binary operator classes from loosest to tightest
// binding. Comparisons sit below additive, so `a + 1 < b * 2` parses as
// `(a + 1) < (b * 2)`.
type precedence int

const (
	precLowest precedence = iota
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precComparison
	precShift
	precAdditive
	precMultiplicative
)

// binaryPrecedence returns the precedence of tt as a binary operator, or
// precLowest if tt cannot continue an expression.
func binaryPrecedence(tt TokenType) precedence {
	switch tt {
	case OR_LOGICAL:
		return precLogicalOr
	case AND_LOGICAL:
		return precLogicalAnd
	case PIPE:
		return precBitOr
	case CARET:
		return precBitXor
	case AND:
		return precBitAnd
	case LESS, LESS_EQ, GREATER, GREATER_EQ, EQUALS, NOT_EQ:
		return precComparison
	case SHL_OP, SHR_OP:
		return precShift
	case PLUS, MINUS:
		return precAdditive
	case STAR, SLASH:
		return precMultiplicative
	}
	return precLowest
}

func isComparison(tt TokenType) bool {
	switch tt {
	case LESS, LESS_EQ, GREATER, GREATER_EQ, EQUALS, NOT_EQ:
		return true
	}
	return false
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, parseErrorf(tok.Span, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// skipSemicolon consumes one trailing ';' if present; statements do not
// require a terminator.
func (p *Parser) skipSemicolon() {
	if p.peek().Type == SEMICOLON {
		p.advance()
	}
}

// exprType derives the type of e structurally. Binary and unary operators
// require integer operands and produce an integer; string values only ever
// flow through plain literals, variables, and print.
func (p *Parser) exprType(e Expr) (Type, error) {
	switch n := e.(type) {
	case *Literal:
		return TypeInt, nil
	case *StringLiteral:
		return TypeString, nil
	case *VarRef:
		t, ok := p.types[n.Name]
		if !ok {
			return TypeInt, typeErrorf("unknown variable %q", n.Name)
		}
		return t, nil
	case *BinaryExpr:
		lt, err := p.exprType(n.Left)
		if err != nil {
			return TypeInt, err
		}
		rt, err := p.exprType(n.Right)
		if err != nil {
			return TypeInt, err
		}
		if lt != TypeInt || rt != TypeInt {
			return TypeInt, typeErrorf("operation requires integer operands")
		}
		return TypeInt, nil
	case *UnaryExpr:
		t, err := p.exprType(n.Right)
		if err != nil {
			return TypeInt, err
		}
		if t != TypeInt {
			return TypeInt, typeErrorf("operation requires integer operands")
		}
		return TypeInt, nil
	}
	panic(fmt.Sprintf("compiler: unhandled expression node %T", e))
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseBinary(precLowest)
}

// parseBinary is the precedence-climbing loop: it keeps consuming binary
// operators that bind tighter than min, parsing each right-hand side at the
// operator's own precedence so that operators of equal precedence associate
// left. Chained comparisons such as `a < b < c` are rejected outright
// rather than silently associating.
func (p *Parser) parseBinary(min precedence) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		opPrec := binaryPrecedence(p.peek().Type)
		if opPrec <= min {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseBinary(opPrec)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right}
		if isComparison(op.Type) && isComparison(p.peek().Type) {
			return nil, parseErrorf(p.peek().Span, "chained comparisons are not allowed")
		}
	}
}

// parseUnary handles the prefix operators, which bind tighter than any
// binary operator.
func (p *Parser) parseUnary() (Expr, error) {
	switch p.peek().Type {
	case NOT, MINUS, TILDE:
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op.Type, Right: right}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.advance()
		return &Literal{Value: tok.Value}, nil
	case STRING:
		p.advance()
		return &StringLiteral{Value: tok.Lexeme}, nil
	case IDENTIFIER:
		p.advance()
		if _, ok := p.types[tok.Lexeme]; !ok {
			return nil, parseErrorf(tok.Span, "unknown variable %q", tok.Lexeme)
		}
		return &VarRef{Name: tok.Lexeme}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, parseErrorf(tok.Span, "unexpected token %s (%q)", tok.Type, tok.Lexeme)
}

// parseStatement dispatches on the leading token.
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Type {
	case IDENTIFIER:
		return p.parseAssignment()
	case EXIT:
		return p.parseExit()
	case PRINT:
		return p.parsePrint()
	case PRINTLN:
		return p.parsePrintln()
	case WHILE:
		return p.parseWhile()
	case IF:
		return p.parseIf()
	}
	tok := p.peek()
	return nil, parseErrorf(tok.Span, "unexpected token %s (%q)", tok.Type, tok.Lexeme)
}

func (p *Parser) parseAssignment() (Stmt, error) {
	name := p.advance()
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	t, err := p.exprType(value)
	if err != nil {
		return nil, err
	}
	p.types[name.Lexeme] = t // first assignment declares, later ones may retype
	p.skipSemicolon()
	return &Assignment{Name: name.Lexeme, Value: value}, nil
}

// endsStatement reports whether tt cannot start an expression and instead
// closes the current statement. This is how a bare `exit` or `println` is
// told apart from one with an argument.
func endsStatement(tt TokenType) bool {
	return tt == SEMICOLON || tt == RBRACE || tt == EOF
}

func (p *Parser) parseExit() (Stmt, error) {
	p.advance() // consume "exit"
	var code Expr
	if !endsStatement(p.peek().Type) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		t, err := p.exprType(expr)
		if err != nil {
			return nil, err
		}
		if t != TypeInt {
			return nil, typeErrorf("exit code must be an integer")
		}
		code = expr
	}
	p.skipSemicolon()
	return &ExitStmt{Code: code}, nil
}

func (p *Parser) parsePrint() (Stmt, error) {
	p.advance() // consume "print"
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.exprType(expr); err != nil {
		return nil, err
	}
	p.skipSemicolon()
	return &PrintStmt{Expr: expr}, nil
}

func (p *Parser) parsePrintln() (Stmt, error) {
	p.advance() // consume "println"
	var expr Expr
	if !endsStatement(p.peek().Type) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.exprType(e); err != nil {
			return nil, err
		}
		expr = e
	}
	p.skipSemicolon()
	return &PrintlnStmt{Expr: expr}, nil
}

// parseCondition parses a loop or branch condition and checks that it is an
// integer; a condition is true when its value is nonzero.
func (p *Parser) parseCondition() (Expr, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	t, err := p.exprType(cond)
	if err != nil {
		return nil, err
	}
	if t != TypeInt {
		return nil, typeErrorf("condition must be an integer")
	}
	return cond, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	p.advance() // consume "while"
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Condition: cond, Body: body}, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	p.advance() // consume "if"
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody []Stmt
	if p.peek().Type == ELSE {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Condition: cond, Body: body, ElseBody: elseBody}, nil
}

// parseBlock parses "{" statement* "}" and returns the statements. The
// returned slice is never nil, so an empty else block stays distinguishable
// from an absent one.
func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	stmts := []Stmt{}
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

// Parse consumes tokens and returns the finished Program. The first error
// aborts the parse; no partial AST is returned.
func Parse(tokens []Token) (*Program, error) {
	p := NewParser(tokens)
	var stmts []Stmt
	for p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &Program{Stmts: stmts, Types: p.types}, nil
}
