package lang

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sergev/lisp32/parser"
)

// Evaluator walks a parsed tree, rewriting it in place as evaluation
// discovers constant sub-expressions, decided conditionals and user calls
// to inline.
type Evaluator struct {
	tree  *parser.Tree
	stack []namedValue
	in    io.Reader
	out   io.Writer
}

// namedValue is a variable-stack slot: the Init the value is bound to plus
// the value itself. Slots are pushed anonymized and named by the enclosing
// scope once all its bindings are in.
type namedValue struct {
	name parser.NodeIndex
	val  Value
}

// NewEvaluator constructs an evaluator over the given tree. in supplies
// the read intrinsics; out receives print output and read prompts.
func NewEvaluator(tree *parser.Tree, in io.Reader, out io.Writer) *Evaluator {
	return &Evaluator{tree: tree, in: in, out: out}
}

// Run evaluates the whole program and returns its final value. The tree is
// rewritten as a side effect; a second Run over the same tree re-executes
// the rewritten program.
func (ev *Evaluator) Run() (Value, error) {
	return ev.eval(0)
}

var (
	errDivideByZero = errors.New("integer division by zero")
	errInvalidInput = errors.New("invalid input")
)

func addI32(a, b int32) (int32, error) { return a + b, nil }
func subI32(a, b int32) (int32, error) { return a - b, nil }
func mulI32(a, b int32) (int32, error) { return a * b, nil }

// divI32 pins the two quotients the hardware traps on: division by zero is
// a runtime error, MinInt32 / -1 wraps.
func divI32(a, b int32) (int32, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	if a == math.MinInt32 && b == -1 {
		return a, nil
	}
	return a / b, nil
}

func addF32(a, b float32) float32 { return a + b }
func subF32(a, b float32) float32 { return a - b }
func mulF32(a, b float32) float32 { return a * b }
func divF32(a, b float32) float32 { return a / b }

func predZeroI32(v int32) bool   { return v == 0 }
func predZeroF32(v float32) bool { return v == 0 }
func predNegI32(v int32) bool    { return v < 0 }

// IEEE comparison: false for NaN, so a NaN predicate takes the else branch.
func predNegF32(v float32) bool { return v < 0 }

// eval evaluates the node at index. Node pointers are never held across
// nested eval calls: evaluation may append to the pool, which invalidates
// them.
func (ev *Evaluator) eval(index parser.NodeIndex) (Value, error) {
	stackRestore := len(ev.stack)
	var ret Value
	var err error
	obsolete := false

	switch ev.tree.At(index).Kind {
	case parser.NodeLet:
		sidefx := false
		// initializations, when present, are mandatorily first
		n := 0
		for ; n < len(ev.tree.At(index).Args); n++ {
			arg := ev.tree.At(index).Args[n]
			if !ev.tree.At(arg).IsInit() {
				break
			}
			ret, err = ev.eval(arg)
			if err != nil {
				return Value{}, err
			}
			sidefx = sidefx || ret.Sidefx
		}
		// de-anonymize the newly-initialized vars
		for i := stackRestore; i < len(ev.stack); i++ {
			init := ev.tree.At(index).Args[i-stackRestore]
			ev.stack[i].name = ev.tree.At(init).Eval
		}
		// eval the rest of the expressions in this scope; defun
		// statements, i.e. named Let sub-nodes, do not execute linearly
		for ; n < len(ev.tree.At(index).Args); n++ {
			arg := ev.tree.At(index).Args[n]
			if ev.tree.At(arg).IsDefun() {
				continue
			}
			ret, err = ev.eval(arg)
			if err != nil {
				return Value{}, err
			}
			sidefx = sidefx || ret.Sidefx
		}
		ret.Sidefx = sidefx
		// pop locals from the var stack
		ev.stack = ev.stack[:stackRestore]

	case parser.NodeInit:
		// init the local var and put it on the stack anonymized
		ret, err = ev.eval(ev.tree.At(index).Args[0])
		if err != nil {
			return Value{}, err
		}
		// the stack is a sidefx terminator: values that land on it lose
		// sidefx, and type incoherence with it
		stored := ret
		stored.Sidefx = false
		stored.Incoh = false
		ev.stack = append(ev.stack, namedValue{name: parser.NullIndex, val: stored})

	case parser.NodeEvalVar:
		// scan the var stack from the top down for our var
		target := ev.tree.At(index).Eval
		i := len(ev.stack) - 1
		for ; i >= 0 && ev.stack[i].name != target; i-- {
		}
		if i < 0 {
			panic("lang: unbound variable slipped through parsing")
		}
		ret = ev.stack[i].val

	case parser.NodeEvalFun:
		switch ev.tree.At(index).Eval {
		case parser.IntrinPlus:
			ret, err = ev.evalArith(index, addI32, addF32)
		case parser.IntrinMinus:
			ret, err = ev.evalArith(index, subI32, subF32)
		case parser.IntrinMul:
			ret, err = ev.evalArith(index, mulI32, mulF32)
		case parser.IntrinDiv:
			ret, err = ev.evalArith(index, divI32, divF32)
		case parser.IntrinIfZero:
			ret, obsolete, err = ev.evalIf(index, predZeroI32, predZeroF32)
		case parser.IntrinIfNeg:
			ret, obsolete, err = ev.evalIf(index, predNegI32, predNegF32)
		case parser.IntrinPrint:
			ret, err = ev.eval(ev.tree.At(index).Args[0])
			if err != nil {
				return Value{}, err
			}
			if ret.Type == parser.ReturnF32 {
				fmt.Fprintf(ev.out, "%f\n", ret.F32)
			} else {
				fmt.Fprintf(ev.out, "%d\n", ret.I32)
			}
			ret.Sidefx = true
		case parser.IntrinReadI32:
			// a read node is never rewritten: revisits must read again
			fmt.Fprint(ev.out, "i: ")
			var v int32
			if _, err := fmt.Fscan(ev.in, &v); err != nil {
				return Value{}, errInvalidInput
			}
			return Value{Type: parser.ReturnI32, I32: v, Sidefx: true}, nil
		case parser.IntrinReadF32:
			fmt.Fprint(ev.out, "f: ")
			var v float32
			if _, err := fmt.Fscan(ev.in, &v); err != nil {
				return Value{}, errInvalidInput
			}
			return Value{Type: parser.ReturnF32, F32: v, Sidefx: true}, nil
		default:
			return ev.inlineCall(index)
		}
		if err != nil {
			return Value{}, err
		}

	case parser.NodeLiteral:
		// a literal node needs no update -- just return
		if ev.tree.At(index).RType == parser.ReturnF32 {
			return Value{Type: parser.ReturnF32, F32: ev.tree.At(index).F32, Literal: true}, nil
		}
		return Value{Type: parser.ReturnI32, I32: ev.tree.At(index).I32, Literal: true}, nil
	}

	if obsolete {
		return ret, nil
	}

	// collapse the node into a literal when its value is constant and
	// effect-free; never for the root or for init statements
	if index != 0 && !ev.tree.At(index).IsInit() && ret.Literal && !ret.Sidefx {
		parent := ev.tree.At(index).Parent
		if ret.Type == parser.ReturnF32 {
			*ev.tree.At(index) = parser.Node{F32: ret.F32, RType: ret.Type, Kind: parser.NodeLiteral, Parent: parent, Eval: parser.NullIndex}
		} else {
			*ev.tree.At(index) = parser.Node{I32: ret.I32, RType: ret.Type, Kind: parser.NodeLiteral, Parent: parent, Eval: parser.NullIndex}
		}
		return ret, nil
	}

	if ret.Incoh {
		ev.tree.At(index).RType = parser.ReturnUnknown
	} else {
		ev.tree.At(index).RType = ret.Type
	}
	return ret, nil
}

// evalArith reduces the arguments of an arithmetic intrinsic left to
// right. The accumulation starts as i32 and promotes to f32 at the first
// f32 argument; i32 arguments past that point widen. Literal combines by
// intersection, sidefx and incoh by union.
func (ev *Evaluator) evalArith(index parser.NodeIndex, opI func(int32, int32) (int32, error), opF func(float32, float32) float32) (Value, error) {
	var accI int32
	var accF float32
	isF32 := false

	// arithmetic intrinsics have at least two args
	arg, err := ev.eval(ev.tree.At(index).Args[0])
	if err != nil {
		return Value{}, err
	}
	literal, sidefx, incoh := arg.Literal, arg.Sidefx, arg.Incoh

	if arg.Type == parser.ReturnF32 {
		accF = arg.F32
		isF32 = true
	} else {
		accI = arg.I32
	}

	n := 1
	if !isF32 {
		for ; n < len(ev.tree.At(index).Args); n++ {
			arg, err := ev.eval(ev.tree.At(index).Args[n])
			if err != nil {
				return Value{}, err
			}
			literal = literal && arg.Literal
			sidefx = sidefx || arg.Sidefx
			incoh = incoh || arg.Incoh

			if arg.Type == parser.ReturnF32 {
				accF = opF(float32(accI), arg.F32)
				isF32 = true
				n++ // this arg is done
				break
			}
			if accI, err = opI(accI, arg.I32); err != nil {
				return Value{}, err
			}
		}
	}
	if isF32 {
		for ; n < len(ev.tree.At(index).Args); n++ {
			arg, err := ev.eval(ev.tree.At(index).Args[n])
			if err != nil {
				return Value{}, err
			}
			literal = literal && arg.Literal
			sidefx = sidefx || arg.Sidefx
			incoh = incoh || arg.Incoh

			if arg.Type == parser.ReturnF32 {
				accF = opF(accF, arg.F32)
			} else {
				accF = opF(accF, float32(arg.I32))
			}
		}
	}

	if isF32 {
		return Value{Type: parser.ReturnF32, F32: accF, Literal: literal, Sidefx: sidefx, Incoh: incoh}, nil
	}
	return Value{Type: parser.ReturnI32, I32: accI, Literal: literal, Sidefx: sidefx, Incoh: incoh}, nil
}

// evalIf evaluates a three-way conditional and applies the conditional
// rewriting rule: a constant predicate without side effects splices the
// taken branch over the call (marking it obsolete), a constant predicate
// with side effects turns the call into a two-expression scope keeping the
// predicate for its effects.
func (ev *Evaluator) evalIf(index parser.NodeIndex, predI func(int32) bool, predF func(float32) bool) (value Value, obsolete bool, err error) {
	pred, err := ev.eval(ev.tree.At(index).Args[0])
	if err != nil {
		return Value{}, false, err
	}
	literal, sidefx := pred.Literal, pred.Sidefx

	taken := false
	if pred.Type == parser.ReturnF32 {
		taken = predF(pred.F32)
	} else {
		taken = predI(pred.I32)
	}
	branch := 2
	if taken {
		branch = 1
	}

	// the branch eval may inline, swapping the node under Args[branch]
	ret, err := ev.eval(ev.tree.At(index).Args[branch])
	if err != nil {
		return Value{}, false, err
	}
	ret.Literal = ret.Literal && literal
	ret.Sidefx = ret.Sidefx || sidefx
	ret.Incoh = ret.Incoh ||
		!literal && ev.tree.At(ev.tree.At(index).Args[1]).RType != ev.tree.At(ev.tree.At(index).Args[2]).RType

	if !literal {
		return ret, false, nil
	}

	if sidefx {
		// keep the predicate for its effects, drop the dispatch and the
		// untaken branch
		predIdx := ev.tree.At(index).Args[0]
		chosen := ev.tree.At(index).Args[branch]
		parent := ev.tree.At(index).Parent
		*ev.tree.At(index) = parser.Node{
			RType:  parser.ReturnNone,
			Kind:   parser.NodeLet,
			Parent: parent,
			Eval:   parser.NullIndex,
			Args:   []parser.NodeIndex{predIdx, chosen},
		}
		return ret, false, nil
	}

	ev.tree.ReplaceChild(index, ev.tree.At(index).Args[branch], ev.tree.At(index).Parent)
	return ret, true, nil
}

// inlineCall expands a user call: a fresh anonymous Let takes the call's
// place in the parent, the callee subtree is deep-copied under it, and the
// call-site argument nodes are grafted onto the copied argument inits so
// each parameter becomes a local initialized to its argument. The original
// call node becomes unreachable; the callee stays untouched, so every call
// materializes a fresh body.
func (ev *Evaluator) inlineCall(index parser.NodeIndex) (Value, error) {
	callee := ev.tree.At(index).Eval
	parent := ev.tree.At(index).Parent

	letIdx := ev.tree.Append(parser.Node{RType: parser.ReturnNone, Kind: parser.NodeLet, Parent: parent, Eval: parser.NullIndex})
	ev.tree.CopySubtree(callee, letIdx)
	ev.tree.ReplaceChild(index, letIdx, parent)

	for i, arg := range ev.tree.At(index).Args {
		init := ev.tree.At(letIdx).Args[i]
		ev.tree.At(init).Args = append(ev.tree.At(init).Args, arg)
	}

	// execute the callee this time as a let expression
	return ev.eval(letIdx)
}
