package ast

import (
	"testing"

	"github.com/opalscript/lumen/internal/token"
)

func TestPrintBinaryExpression(t *testing.T) {
	expr := &Binary{
		Left:  &Literal{Value: 1.0, Tok: token.Token{Kind: token.NUMBER, Lexeme: "1"}},
		Op:    token.Token{Kind: token.PLUS, Lexeme: "+"},
		Right: &Literal{Value: 2.0, Tok: token.Token{Kind: token.NUMBER, Lexeme: "2"}},
	}
	if got := Print(expr); got != "(+ 1 2)" {
		t.Errorf("got %q, want %q", got, "(+ 1 2)")
	}
}

func TestPrintGroupingAndUnary(t *testing.T) {
	expr := &Unary{
		Op: token.Token{Kind: token.MINUS, Lexeme: "-"},
		Operand: &Grouping{Inner: &Literal{
			Value: 3.0,
			Tok:   token.Token{Kind: token.NUMBER, Lexeme: "3"},
		}},
	}
	if got := Print(expr); got != "(- (group 3))" {
		t.Errorf("got %q, want %q", got, "(- (group 3))")
	}
}

func TestPrintStringLiteralIsQuoted(t *testing.T) {
	expr := &Literal{Value: "hi", Tok: token.Token{Kind: token.STRING, Lexeme: `"hi"`}}
	if got := Print(expr); got != `"hi"` {
		t.Errorf("got %q, want %q", got, `"hi"`)
	}
}
