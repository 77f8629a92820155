// Package ast defines the expression tree produced by internal/exprparser
// from the grammar of spec.md §6, in the teacher's visitor-dispatch style.
package ast

import "shotcompile/internal/compileerr"

// Expr is any node of a parsed shot expression.
type Expr interface {
	Accept(visitor Visitor) interface{}
	Span() compileerr.Span
}

type Visitor interface {
	VisitNumberExpr(e *NumberExpr) interface{}
	VisitIdentExpr(e *IdentExpr) interface{}
	VisitUnaryExpr(e *UnaryExpr) interface{}
	VisitBinaryExpr(e *BinaryExpr) interface{}
	VisitCallExpr(e *CallExpr) interface{}
}

// NumberExpr is a bare numeric literal or one suffixed with a unit name,
// e.g. "42" or "10 ms". Unit is "" for a bare number.
type NumberExpr struct {
	Literal string
	Unit    string
	SrcSpan compileerr.Span
}

func (n *NumberExpr) Accept(v Visitor) interface{}  { return v.VisitNumberExpr(n) }
func (n *NumberExpr) Span() compileerr.Span         { return n.SrcSpan }

// IdentExpr is a bare identifier: a parameter, a named constant, or the
// special time variable "t".
type IdentExpr struct {
	Name    string
	SrcSpan compileerr.Span
}

func (i *IdentExpr) Accept(v Visitor) interface{} { return v.VisitIdentExpr(i) }
func (i *IdentExpr) Span() compileerr.Span        { return i.SrcSpan }

// UnaryExpr is a prefix +x or -x.
type UnaryExpr struct {
	Operator string
	Operand  Expr
	SrcSpan  compileerr.Span
}

func (u *UnaryExpr) Accept(v Visitor) interface{} { return v.VisitUnaryExpr(u) }
func (u *UnaryExpr) Span() compileerr.Span        { return u.SrcSpan }

// BinaryExpr is a+b, a-b, a*b, a/b, or a**b.
type BinaryExpr struct {
	Left     Expr
	Operator string
	Right    Expr
	SrcSpan  compileerr.Span
}

func (b *BinaryExpr) Accept(v Visitor) interface{} { return v.VisitBinaryExpr(b) }
func (b *BinaryExpr) Span() compileerr.Span        { return b.SrcSpan }

// CallExpr is a call to one of the closed set of built-in functions:
// sqrt(x), cos(x), and so on.
type CallExpr struct {
	Callee  string
	Args    []Expr
	SrcSpan compileerr.Span
}

func (c *CallExpr) Accept(v Visitor) interface{} { return v.VisitCallExpr(c) }
func (c *CallExpr) Span() compileerr.Span        { return c.SrcSpan }
