package langerr

import "testing"

func TestErrorMessageIncludesLine(t *testing.T) {
	err := NewRuntime(12, "undefined variable '%s'", "x")
	want := "Runtime Error: undefined variable 'x' [line 12]"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestScanAndParseShareSyntaxLabel(t *testing.T) {
	scan := NewScan(1, "Unexpected character")
	parse := NewParse(2, "expected ';'")
	if scan.Kind.label() != "Syntax Error" || parse.Kind.label() != "Syntax Error" {
		t.Error("scan and parse errors must both report as Syntax Error")
	}
}

func TestErrorWithoutLine(t *testing.T) {
	err := &Error{Kind: RuntimeError, Message: "boom"}
	if err.Error() != "Runtime Error: boom" {
		t.Errorf("got %q, want no line suffix when Line is 0", err.Error())
	}
}
