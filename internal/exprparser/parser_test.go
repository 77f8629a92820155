package exprparser

import (
	"testing"

	"shotcompile/internal/ast"
)

func TestParsesUnitSuffixedNumber(t *testing.T) {
	e, err := Parse("10 ms")
	if err != nil {
		t.Fatal(err)
	}
	n, ok := e.(*ast.NumberExpr)
	if !ok {
		t.Fatalf("expected *ast.NumberExpr, got %T", e)
	}
	if n.Literal != "10" || n.Unit != "ms" {
		t.Fatalf("got literal=%q unit=%q", n.Literal, n.Unit)
	}
}

func TestParsesDottedIdentifier(t *testing.T) {
	e, err := Parse("dds.frequency")
	if err != nil {
		t.Fatal(err)
	}
	id, ok := e.(*ast.IdentExpr)
	if !ok || id.Name != "dds.frequency" {
		t.Fatalf("expected dds.frequency identifier, got %#v", e)
	}
}

func TestPowerIsNonAssociative(t *testing.T) {
	if _, err := Parse("2 ** 3 ** 2"); err == nil {
		t.Fatal("expected a syntax error for chained **")
	}
}

func TestPrecedenceOfMulOverAdd(t *testing.T) {
	e, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatal(err)
	}
	b, ok := e.(*ast.BinaryExpr)
	if !ok || b.Operator != "+" {
		t.Fatalf("expected top-level +, got %#v", e)
	}
	if _, ok := b.Right.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected right operand to be the * subexpression")
	}
}

func TestCallExpression(t *testing.T) {
	e, err := Parse("sqrt(2)")
	if err != nil {
		t.Fatal(err)
	}
	c, ok := e.(*ast.CallExpr)
	if !ok || c.Callee != "sqrt" || len(c.Args) != 1 {
		t.Fatalf("got %#v", e)
	}
}

func TestUnaryMinus(t *testing.T) {
	e, err := Parse("-5")
	if err != nil {
		t.Fatal(err)
	}
	u, ok := e.(*ast.UnaryExpr)
	if !ok || u.Operator != "-" {
		t.Fatalf("got %#v", e)
	}
}

func TestUnmatchedParenIsSyntaxError(t *testing.T) {
	if _, err := Parse("(1 + 2"); err == nil {
		t.Fatal("expected a syntax error for the missing ')'")
	}
}
