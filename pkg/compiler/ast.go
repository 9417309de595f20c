package compiler

import "fmt"

// Type classifies the value a Pine expression produces. There is no
// coercion between the two.
type Type int

const (
	TypeInt Type = iota
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeString:
		return "String"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
}

// Literal is a compile-time integer constant.
//
//	x = 10
//	    ^^  Literal{Value: 10}
type Literal struct {
	Value int32
}

func (*Literal) exprNode()        {}
func (l *Literal) String() string { return fmt.Sprintf("%d", l.Value) }

// StringLiteral is a string constant "..." with escapes already decoded.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) exprNode()        {}
func (s *StringLiteral) String() string { return fmt.Sprintf("%q", s.Value) }

// VarRef is a read of a named variable.
//
//	print x
//	      ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// BinaryExpr represents a binary operation: Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryExpr represents a prefix operation: Op Right (e.g. !x, -x, ~x).
type UnaryExpr struct {
	Op    TokenType
	Right Expr
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Right) }

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// Assignment represents  name = expr;
// The first assignment to a name declares it; later assignments may change
// its recorded type (last write wins).
type Assignment struct {
	Name  string
	Value Expr
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s = %s)", a.Name, a.Value)
}

// ExitStmt represents  exit [expr];
type ExitStmt struct {
	Code Expr // nil when no exit code was written
}

func (*ExitStmt) stmtNode() {}
func (e *ExitStmt) String() string {
	if e.Code == nil {
		return "ExitStmt"
	}
	return fmt.Sprintf("ExitStmt(%s)", e.Code)
}

// PrintStmt represents  print expr;
type PrintStmt struct {
	Expr Expr
}

func (*PrintStmt) stmtNode() {}
func (p *PrintStmt) String() string {
	return fmt.Sprintf("PrintStmt(%s)", p.Expr)
}

// PrintlnStmt represents  println [expr];
type PrintlnStmt struct {
	Expr Expr // nil prints a bare newline
}

func (*PrintlnStmt) stmtNode() {}
func (p *PrintlnStmt) String() string {
	if p.Expr == nil {
		return "PrintlnStmt"
	}
	return fmt.Sprintf("PrintlnStmt(%s)", p.Expr)
}

// WhileStmt represents  while cond { body }
type WhileStmt struct {
	Condition Expr
	Body      []Stmt
}

func (*WhileStmt) stmtNode() {}
func (w *WhileStmt) String() string {
	return fmt.Sprintf("WhileStmt(while %s do %v)", w.Condition, w.Body)
}

// IfStmt represents  if cond { body } [else { elseBody }]
type IfStmt struct {
	Condition Expr
	Body      []Stmt
	ElseBody  []Stmt // nil when no else clause was written
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	if i.ElseBody != nil {
		return fmt.Sprintf("IfStmt(if %s then %v else %v)", i.Condition, i.Body, i.ElseBody)
	}
	return fmt.Sprintf("IfStmt(if %s then %v)", i.Condition, i.Body)
}

// Program is the parse result: the statement list in source order plus the
// variable-type table accumulated while parsing. CodeGen reads it, never
// mutates it.
type Program struct {
	Stmts []Stmt
	Types map[string]Type
}
