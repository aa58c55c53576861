package lang

import (
	"fmt"

	"github.com/sergev/lisp32/parser"
)

// Value is the result of evaluating a node: a scalar plus the three
// dataflow flags that drive tree rewriting.
type Value struct {
	Type    parser.ReturnType
	I32     int32
	F32     float32
	Literal bool // derives solely from literal constants
	Sidefx  bool // computation performed input or output
	Incoh   bool // produced by an if whose branches disagree on type
}

// I32Value constructs an integer Value.
func I32Value(v int32) Value {
	return Value{Type: parser.ReturnI32, I32: v}
}

// F32Value constructs a floating-point Value.
func F32Value(v float32) Value {
	return Value{Type: parser.ReturnF32, F32: v}
}

// String formats the scalar the way the print intrinsic does.
func (v Value) String() string {
	if v.Type == parser.ReturnF32 {
		return fmt.Sprintf("%f", v.F32)
	}
	return fmt.Sprintf("%d", v.I32)
}
