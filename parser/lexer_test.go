package parser

import (
	"errors"
	"strings"
	"testing"
)

func mustTokenize(t *testing.T, src string) []Token {
	t.Helper()
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q) returned error: %v", src, err)
	}
	return tokens
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	src := "( ) defun let + - * / ifzero ifneg print readi32 readf32 foo _bar letx deadbeef"
	tokens := mustTokenize(t, src)

	want := []struct {
		typ    TokenType
		lexeme string
	}{
		{tokenLParen, "("},
		{tokenRParen, ")"},
		{tokenDefun, "defun"},
		{tokenLet, "let"},
		{tokenPlus, "+"},
		{tokenMinus, "-"},
		{tokenMul, "*"},
		{tokenDiv, "/"},
		{tokenIfZero, "ifzero"},
		{tokenIfNeg, "ifneg"},
		{tokenPrint, "print"},
		{tokenReadI32, "readi32"},
		{tokenReadF32, "readf32"},
		{tokenIdentifier, "foo"},
		{tokenIdentifier, "_bar"},
		{tokenIdentifier, "letx"},
		{tokenIdentifier, "deadbeef"},
	}

	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Lexeme != w.lexeme {
			t.Errorf("token %d = %v %q, want %v %q", i, tokens[i].Type, tokens[i].Lexeme, w.typ, w.lexeme)
		}
	}
}

func TestTokenizeIntegerLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want int32
	}{
		{"0", 0},
		{"12", 12},
		{"+3", 3},
		{"-7", -7},
		{"2147483647", 2147483647},
		{"-2147483648", -2147483648},
		{"0x1F", 31},
		{"0X1f", 31},
		{"-0x10", -16},
		{"+0xff", 255},
	}
	for _, tc := range tests {
		tokens := mustTokenize(t, tc.src)
		if len(tokens) != 1 {
			t.Fatalf("Tokenize(%q): got %d tokens, want 1", tc.src, len(tokens))
		}
		if tokens[0].Type != tokenLiteralI32 {
			t.Fatalf("Tokenize(%q): type %v, want literal-i32", tc.src, tokens[0].Type)
		}
		if tokens[0].I32 != tc.want {
			t.Errorf("Tokenize(%q) = %d, want %d", tc.src, tokens[0].I32, tc.want)
		}
	}
}

func TestTokenizeFloatLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want float32
	}{
		{"2.5", 2.5},
		{"-0.5", -0.5},
		{"+1.25", 1.25},
		{".5", 0.5},
		{"3.", 3},
		{"1e3", 1000},
	}
	for _, tc := range tests {
		tokens := mustTokenize(t, tc.src)
		if len(tokens) != 1 {
			t.Fatalf("Tokenize(%q): got %d tokens, want 1", tc.src, len(tokens))
		}
		if tokens[0].Type != tokenLiteralF32 {
			t.Fatalf("Tokenize(%q): type %v, want literal-f32", tc.src, tokens[0].Type)
		}
		if tokens[0].F32 != tc.want {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.src, tokens[0].F32, tc.want)
		}
	}
}

func TestTokenizeDigitLeadingIdentifier(t *testing.T) {
	// not a valid literal, but every byte is identifier-allowed
	tokens := mustTokenize(t, "1abz")
	if len(tokens) != 1 || tokens[0].Type != tokenIdentifier || tokens[0].Lexeme != "1abz" {
		t.Fatalf("Tokenize(1abz) = %+v, want a single identifier", tokens)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := mustTokenize(t, "(+ 1\n  2)")

	want := []Position{
		{Row: 1, Col: 0},
		{Row: 1, Col: 1},
		{Row: 1, Col: 3},
		{Row: 2, Col: 2},
		{Row: 2, Col: 3},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Pos != w {
			t.Errorf("token %d at %+v, want %+v", i, tokens[i].Pos, w)
		}
	}
}

func TestTokenizeSyntaxError(t *testing.T) {
	for _, src := range []string{"@", "(+ 1 #)", "1.2.3"} {
		_, err := Tokenize(src)
		if err == nil {
			t.Fatalf("Tokenize(%q) succeeded, want syntax error", src)
		}
		if !strings.Contains(err.Error(), "syntax error") {
			t.Errorf("Tokenize(%q) error = %q, want syntax error", src, err)
		}
	}
}

func TestTokenizeErrorPosition(t *testing.T) {
	_, err := Tokenize("(+ 1\n 2 @)")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %T does not wrap *Error", err)
	}
	if perr.Pos.Row != 2 || perr.Pos.Col != 3 {
		t.Errorf("error at %+v, want row 2 column 3", perr.Pos)
	}
}
