package lang

import (
	"testing"

	"github.com/sergev/lisp32/parser"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		val  Value
		want string
	}{
		{I32Value(6), "6"},
		{I32Value(-42), "-42"},
		{F32Value(2.5), "2.500000"},
		{F32Value(3), "3.000000"},
	}
	for _, tc := range tests {
		if got := tc.val.String(); got != tc.want {
			t.Errorf("String(%+v) = %q, want %q", tc.val, got, tc.want)
		}
	}
}

func TestValueConstructors(t *testing.T) {
	v := I32Value(7)
	if v.Type != parser.ReturnI32 || v.I32 != 7 || v.Literal || v.Sidefx || v.Incoh {
		t.Errorf("I32Value(7) = %+v, want a plain i32 scalar", v)
	}
	f := F32Value(1.5)
	if f.Type != parser.ReturnF32 || f.F32 != 1.5 || f.Literal || f.Sidefx || f.Incoh {
		t.Errorf("F32Value(1.5) = %+v, want a plain f32 scalar", f)
	}
}
