package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/opalscript/lumen/internal/lexer"
	"github.com/opalscript/lumen/internal/parser"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	stmts, err := parser.ParseProgram(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var out bytes.Buffer
	i := New(&out)
	runErr := i.Run(stmts)
	return out.String(), runErr
}

func mustRun(t *testing.T, source string) string {
	t.Helper()
	out, err := run(t, source)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return out
}

func TestFibonacci(t *testing.T) {
	out := mustRun(t, `
		def fib(n) { if n < 2 { return n; } return fib(n-1)+fib(n-2); }
		echo fib(10);
	`)
	if strings.TrimSpace(out) != "55" {
		t.Fatalf("got %q, want \"55\"", out)
	}
}

func TestForLoopStringBuild(t *testing.T) {
	out := mustRun(t, `
		var s = ""; for var i=0; i<3; i=i+1 { s = s + $str(i); } echo s;
	`)
	if strings.TrimSpace(out) != "012" {
		t.Fatalf("got %q, want \"012\"", out)
	}
}

func TestClassFieldAndMethod(t *testing.T) {
	out := mustRun(t, `
		class A { var x; def $init(v) { self.x = v; } def get() { return self.x; } }
		echo A(7).get();
	`)
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("got %q, want \"7\"", out)
	}
}

func TestInheritanceAndSuper(t *testing.T) {
	out := mustRun(t, `
		class A { var x; def $init(v) { self.x = v; } def get() { return self.x; } }
		class B < A { def get() { return super.get() + 1; } }
		echo B(7).get();
	`)
	if strings.TrimSpace(out) != "8" {
		t.Fatalf("got %q, want \"8\"", out)
	}
}

func TestBlockScopeShadowing(t *testing.T) {
	out := mustRun(t, `
		var x = 1; { var x = 2; echo x; } echo x;
	`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "2" || lines[1] != "1" {
		t.Fatalf("got %q, want [2 1]", lines)
	}
}

func TestMixedPlusIsRuntimeError(t *testing.T) {
	_, err := run(t, `echo 1 + "a";`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "+") {
		t.Errorf("expected error to mention '+', got %v", err)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	out := mustRun(t, `
		def boom() { echo "should not run"; return true; }
		echo false and boom();
	`)
	if strings.TrimSpace(out) != "false" {
		t.Fatalf("got %q, want \"false\" (boom() must not have run)", out)
	}
}

func TestShortCircuitOr(t *testing.T) {
	out := mustRun(t, `
		def boom() { echo "should not run"; return false; }
		echo true or boom();
	`)
	if strings.TrimSpace(out) != "true" {
		t.Fatalf("got %q, want \"true\" (boom() must not have run)", out)
	}
}

func TestClosureCapture(t *testing.T) {
	out := mustRun(t, `
		def make_adder(n) {
			def adder(a) { return n + a; }
			return adder;
		}
		var add5 = make_adder(5);
		var add10 = make_adder(10);
		echo add5(1);
		echo add10(1);
	`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "6" || lines[1] != "11" {
		t.Fatalf("got %q, want [6 11]", lines)
	}
}

func TestForContinueRunsIncrement(t *testing.T) {
	out := mustRun(t, `
		for var i=0; i<3; i=i+1 { if i==1 { continue; } echo i; }
	`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "0" || lines[1] != "2" {
		t.Fatalf("got %q, want [0 2]", lines)
	}
}

func TestInstanceFieldIsolation(t *testing.T) {
	out := mustRun(t, `
		class A { var x = 0; def set(v) { self.x = v; } def get() { return self.x; } }
		var a = A();
		var b = A();
		a.set(1);
		echo a.get();
		echo b.get();
	`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "1" || lines[1] != "0" {
		t.Fatalf("got %q, want [1 0] (instances must not share fields)", lines)
	}
}

func TestFieldOrderBaseFirstThenOverride(t *testing.T) {
	out := mustRun(t, `
		class A { var x = 1; }
		class B < A { var x = 2; }
		echo B().x;
	`)
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("got %q, want \"2\" (subclass field initializer must win)", out)
	}
}

func TestMethodBindingCapturesSelfAtGetTime(t *testing.T) {
	out := mustRun(t, `
		class A { var x = 9; def method() { return self.x; } }
		var inst = A();
		var m = inst.method;
		echo m();
	`)
	if strings.TrimSpace(out) != "9" {
		t.Fatalf("got %q, want \"9\"", out)
	}
}

func TestMainEntryPointInvoked(t *testing.T) {
	out := mustRun(t, `
		def $main() { echo "hello"; }
	`)
	if strings.TrimSpace(out) != "hello" {
		t.Fatalf("got %q, want \"hello\"", out)
	}
}

func TestNumberStringifyStripsTrailingDotZero(t *testing.T) {
	out := mustRun(t, `echo 3.0; echo 3.5;`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "3" || lines[1] != "3.5" {
		t.Fatalf("got %q, want [3 3.5]", lines)
	}
}

func TestTernaryLazyEvaluation(t *testing.T) {
	out := mustRun(t, `
		def boom() { echo "should not run"; return 0; }
		echo true ? 1 : boom();
	`)
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("got %q, want \"1\" (else-branch must not evaluate)", out)
	}
}

func TestSetAttrCannotCreateNewField(t *testing.T) {
	_, err := run(t, `
		class A { var x; }
		var a = A();
		a.y = 1;
	`)
	if err == nil {
		t.Fatal("expected a runtime error for setting an undeclared field")
	}
}

func TestPrintPrintlnAndEcho(t *testing.T) {
	out := mustRun(t, `$print("a"); $print("b"); $println("c"); echo 1, 2;`)
	if out != "abc\n1 2\n" {
		t.Fatalf("got %q, want \"abc\\n1 2\\n\"", out)
	}
}
