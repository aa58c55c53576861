package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunSourceSuccess(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runSource("(+ 1 2 3)", strings.NewReader(""), &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if got, want := out.String(), "success\n6\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr = %q, want empty", errOut.String())
	}
}

func TestRunSourcePinnedOutputs(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		stdin string
		want  string
	}{
		{"float", "(+ 1 2.0)", "", "success\n3.000000\n"},
		{"print-and-value", "(ifzero 0 (print 1) (print 2))", "", "success\n1\n1\n"},
		{"read", "(let ((x (readi32))) (* x 2))", "21\n", "success\ni: 42\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if code := runSource(tc.src, strings.NewReader(tc.stdin), &out, &errOut); code != 0 {
				t.Fatalf("exit code %d, stderr %q", code, errOut.String())
			}
			if got := out.String(); got != tc.want {
				t.Errorf("stdout = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunSourceParseFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runSource(")", strings.NewReader(""), &out, &errOut)
	if code == 0 {
		t.Fatal("exit code 0 for a parse error")
	}
	if got, want := out.String(), "failure\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(errOut.String(), "stray right parenthesis") {
		t.Errorf("stderr = %q, want the parse diagnostic", errOut.String())
	}
}

func TestRunSourceRuntimeFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runSource("(readi32)", strings.NewReader(""), &out, &errOut)
	if code == 0 {
		t.Fatal("exit code 0 for a failed read")
	}
	if got, want := out.String(), "success\ni: "; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(errOut.String(), "invalid input") {
		t.Errorf("stderr = %q, want the runtime diagnostic", errOut.String())
	}
}

func TestRunSourceASTDump(t *testing.T) {
	*astFlag = true
	defer func() { *astFlag = false }()

	var out, errOut bytes.Buffer
	if code := runSource("(+ 1 2)", strings.NewReader(""), &out, &errOut); code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, errOut.String())
	}

	// the dump before evaluation shows the call, the one after shows the
	// folded literal
	want := "success\n" +
		"eval-fun: i32 +\n" +
		"  literal: i32 1\n" +
		"  literal: i32 2\n" +
		"3\n" +
		"literal: i32 3\n"
	if got := out.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestReplHistoryPath(t *testing.T) {
	path := replHistoryPath()
	if path == "" {
		t.Skip("no home directory in the test environment")
	}
	if !strings.HasSuffix(path, ".lisp32_history") {
		t.Errorf("history path = %q, want a .lisp32_history file", path)
	}
}
