package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders an expression in a fully-parenthesized Lisp-like form,
// used by the CLI's debug_expr subcommand.
func Print(e Expr) string {
	var b strings.Builder
	printExpr(&b, e)
	return b.String()
}

func printExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Unary:
		parenthesize(b, n.Op.Lexeme, n.Operand)
	case *Binary:
		parenthesize(b, n.Op.Lexeme, n.Left, n.Right)
	case *Logical:
		parenthesize(b, n.Op.Lexeme, n.Left, n.Right)
	case *Conditional:
		parenthesize(b, "?:", n.Cond, n.Then, n.Else)
	case *Literal:
		b.WriteString(literalString(n.Value))
	case *Grouping:
		parenthesize(b, "group", n.Inner)
	case *Variable:
		b.WriteString(n.Name.Lexeme)
	case *Assign:
		parenthesize(b, "= "+n.Name.Lexeme, n.Value)
	case *Call:
		args := append([]Expr{n.Callee}, n.Args...)
		parenthesize(b, "call", args...)
	case *GetAttr:
		parenthesize(b, "get "+n.Name.Lexeme, n.Object)
	case *SetAttr:
		parenthesize(b, "set "+n.Name.Lexeme, n.Object, n.Value)
	case *Self:
		b.WriteString("self")
	case *Super:
		b.WriteString("(super." + n.Method.Lexeme + ")")
	default:
		b.WriteString(fmt.Sprintf("<?%T>", e))
	}
}

func literalString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func parenthesize(b *strings.Builder, name string, exprs ...Expr) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteByte(' ')
		printExpr(b, e)
	}
	b.WriteByte(')')
}
