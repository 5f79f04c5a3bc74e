package parser

import (
	"testing"

	"github.com/opalscript/lumen/internal/ast"
	"github.com/opalscript/lumen/internal/lexer"
)

func mustParseProgram(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	stmts, err := ParseProgram(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return stmts
}

func mustParseExpr(t *testing.T, source string) ast.Expr {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	expr, err := ParseExpression(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return expr
}

func TestParseVarDecl(t *testing.T) {
	stmts := mustParseProgram(t, "var x = 1;")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	decl, ok := stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected *ast.VarDecl, got %T", stmts[0])
	}
	if decl.Name.Lexeme != "x" {
		t.Errorf("expected name 'x', got %q", decl.Name.Lexeme)
	}
	lit, ok := decl.Init.(*ast.Literal)
	if !ok || lit.Value != 1.0 {
		t.Errorf("expected initializer literal 1.0, got %#v", decl.Init)
	}
}

func TestParseFunctionDecl(t *testing.T) {
	stmts := mustParseProgram(t, "def add(a, b) { return a + b; }")
	fn, ok := stmts[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("expected *ast.FunctionDecl, got %T", stmts[0])
	}
	if fn.Name.Lexeme != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body.Stmts))
	}
	if _, ok := fn.Body.Stmts[0].(*ast.Return); !ok {
		t.Fatalf("expected return statement, got %T", fn.Body.Stmts[0])
	}
}

func TestParseClassWithSuperclassAndMembers(t *testing.T) {
	stmts := mustParseProgram(t, `
		class B < A {
			var x;
			def $init(v) { self.x = v; }
			def get() { return self.x; }
		}
	`)
	cls, ok := stmts[0].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("expected *ast.ClassDecl, got %T", stmts[0])
	}
	if cls.Name.Lexeme != "B" {
		t.Errorf("expected class name 'B', got %q", cls.Name.Lexeme)
	}
	if cls.Superclass == nil || cls.Superclass.Name.Lexeme != "A" {
		t.Fatalf("expected superclass 'A', got %+v", cls.Superclass)
	}
	if len(cls.Fields) != 1 || cls.Fields[0].Name.Lexeme != "x" {
		t.Fatalf("expected one field 'x', got %+v", cls.Fields)
	}
	if len(cls.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(cls.Methods))
	}
}

func TestParseClassBodyRejectsNonDeclaration(t *testing.T) {
	tokens, err := lexer.New("class A { echo 1; }").Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if _, err := ParseProgram(tokens); err == nil {
		t.Fatal("expected a parse error for a non-declaration statement in a class body")
	}
}

func TestParseCompoundAssignmentDesugars(t *testing.T) {
	stmts := mustParseProgram(t, "var x = 1; x += 2;")
	exprStmt, ok := stmts[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected *ast.ExprStmt, got %T", stmts[1])
	}
	assign, ok := exprStmt.Expr.(*ast.Assign)
	if !ok {
		t.Fatalf("expected *ast.Assign, got %T", exprStmt.Expr)
	}
	bin, ok := assign.Value.(*ast.Binary)
	if !ok {
		t.Fatalf("expected desugared *ast.Binary, got %T", assign.Value)
	}
	if bin.Op.Lexeme != "+=" {
		t.Errorf("expected operator token to stay '+=', got %q", bin.Op.Lexeme)
	}
	if _, ok := bin.Left.(*ast.Variable); !ok {
		t.Errorf("expected Binary.Left to be the original Variable reference, got %T", bin.Left)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	tokens, err := lexer.New("1 + 2 = 3;").Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if _, err := ParseProgram(tokens); err == nil {
		t.Fatal("expected a parse error for an invalid assignment target")
	}
}

func TestParseForLoopDefaultsConditionToTrue(t *testing.T) {
	stmts := mustParseProgram(t, "for ;; { break; }")
	forStmt, ok := stmts[0].(*ast.For)
	if !ok {
		t.Fatalf("expected *ast.For, got %T", stmts[0])
	}
	lit, ok := forStmt.Cond.(*ast.Literal)
	if !ok || lit.Value != true {
		t.Fatalf("expected default condition literal true, got %#v", forStmt.Cond)
	}
}

func TestParseTernary(t *testing.T) {
	expr := mustParseExpr(t, "true ? 1 : 2")
	cond, ok := expr.(*ast.Conditional)
	if !ok {
		t.Fatalf("expected *ast.Conditional, got %T", expr)
	}
	if _, ok := cond.Cond.(*ast.Literal); !ok {
		t.Errorf("expected literal condition, got %T", cond.Cond)
	}
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3).
	expr := mustParseExpr(t, "1 + 2 * 3")
	bin, ok := expr.(*ast.Binary)
	if !ok || bin.Op.Lexeme != "+" {
		t.Fatalf("expected top-level '+', got %#v", expr)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op.Lexeme != "*" {
		t.Fatalf("expected right-hand side to be '2 * 3', got %#v", bin.Right)
	}
}

func TestParseCallAndGetAttrChain(t *testing.T) {
	expr := mustParseExpr(t, "a.b(c).d")
	getAttr, ok := expr.(*ast.GetAttr)
	if !ok || getAttr.Name.Lexeme != "d" {
		t.Fatalf("expected trailing GetAttr(d), got %#v", expr)
	}
	call, ok := getAttr.Object.(*ast.Call)
	if !ok {
		t.Fatalf("expected a Call as the GetAttr's object, got %T", getAttr.Object)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 call argument, got %d", len(call.Args))
	}
}

func TestParseDeterminism(t *testing.T) {
	source := "def f(a) { return a * 2 + 1; }"
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	first, err := ParseProgram(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	second, err := ParseProgram(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if ast.Print(first[0].(*ast.FunctionDecl).Body.Stmts[0].(*ast.Return).Value) !=
		ast.Print(second[0].(*ast.FunctionDecl).Body.Stmts[0].(*ast.Return).Value) {
		t.Fatal("parsing the same token stream twice produced different ASTs")
	}
}
