package parser

// NodeKind enumerates the semantical node types of the expression tree.
type NodeKind uint8

const (
	NodeLet     NodeKind = iota // expression introducing named variables via a nested scope
	NodeInit                    // statement initializing a single named variable; leads 'let' expressions
	NodeEvalVar                 // variable evaluation expression
	NodeEvalFun                 // function evaluation expression
	NodeLiteral                 // literal expression
)

// A function definition does not get a dedicated kind; a defun is a Let node
// that is a nop for linear execution but introduces a scope of
// initialized-from-args variables when branched to. Named Let = defun,
// anonymous Let = let expression.

func (k NodeKind) String() string {
	switch k {
	case NodeLet:
		return "let"
	case NodeInit:
		return "init"
	case NodeEvalVar:
		return "eval-var"
	case NodeEvalFun:
		return "eval-fun"
	case NodeLiteral:
		return "literal"
	default:
		return "alien-node-kind"
	}
}

// ReturnType is the inferred scalar return type of a node.
type ReturnType uint8

const (
	ReturnNone    ReturnType = iota // not yet established
	ReturnI32                       // 32-bit signed integer
	ReturnF32                       // 32-bit floating point
	ReturnUnknown                   // superposition
)

func (rt ReturnType) String() string {
	switch rt {
	case ReturnNone:
		return "none"
	case ReturnI32:
		return "i32"
	case ReturnF32:
		return "f32"
	case ReturnUnknown:
		return "unknown"
	default:
		return "alien-return-type"
	}
}

// NodeIndex identifies a node within a Tree. The reserved NullIndex means
// "absent"; the negative intrinsic sentinels stand for built-in functions
// and appear only in the Eval field of call nodes.
type NodeIndex int

const NullIndex NodeIndex = -1

const (
	IntrinPlus NodeIndex = -2 - iota
	IntrinMinus
	IntrinMul
	IntrinDiv
	IntrinIfZero
	IntrinIfNeg
	IntrinPrint
	IntrinReadI32
	IntrinReadF32
)

func intrinFromToken(tt TokenType) NodeIndex {
	switch tt {
	case tokenPlus:
		return IntrinPlus
	case tokenMinus:
		return IntrinMinus
	case tokenMul:
		return IntrinMul
	case tokenDiv:
		return IntrinDiv
	case tokenIfZero:
		return IntrinIfZero
	case tokenIfNeg:
		return IntrinIfNeg
	case tokenPrint:
		return IntrinPrint
	case tokenReadI32:
		return IntrinReadI32
	case tokenReadF32:
		return IntrinReadF32
	}
	return NullIndex
}

// Node is the equivalent of an expression or a statement in a (sub-)
// program. Name is set for Let (named = defun), Init, EvalVar and EvalFun
// nodes; the literal payloads only for Literal nodes.
type Node struct {
	Name   string
	I32    int32
	F32    float32
	RType  ReturnType
	Kind   NodeKind
	Parent NodeIndex
	Eval   NodeIndex   // eval semantics target
	Args   []NodeIndex // per argument/sub-expression index
}

// IsDefun reports whether the node is a named Let, i.e. a function
// definition.
func (n *Node) IsDefun() bool { return n.Kind == NodeLet && n.Name != "" }

// IsInit reports whether the node is a variable initialization.
func (n *Node) IsInit() bool { return n.Kind == NodeInit }

// Tree is the node pool holding a parsed program. It is append-only during
// parsing; evaluation may overwrite nodes in place and edit child lists,
// but indices stay stable and nothing is ever freed.
type Tree struct {
	nodes []Node
}

// NewTree returns a pool seeded with the synthetic anonymous root Let at
// index 0.
func NewTree() *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, Node{
		Kind:   NodeLet,
		RType:  ReturnNone,
		Parent: NullIndex,
		Eval:   NullIndex,
	})
	return t
}

// Len returns the number of nodes in the pool.
func (t *Tree) Len() int { return len(t.nodes) }

// At returns the node at the given index. The pointer is invalidated by any
// subsequent Append; callers holding work across appends must re-fetch by
// index.
func (t *Tree) At(i NodeIndex) *Node { return &t.nodes[i] }

// Append adds a node to the pool and returns its index. Linking the new
// index into the parent's child list is the caller's concern.
func (t *Tree) Append(n Node) NodeIndex {
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return idx
}

// ReplaceChild swaps oldIdx for newIdx in the child list of parent.
func (t *Tree) ReplaceChild(oldIdx, newIdx, parent NodeIndex) {
	args := t.nodes[parent].Args
	for i, a := range args {
		if a == oldIdx {
			args[i] = newIdx
			return
		}
	}
	panic("parser: replaced child not present in parent")
}

// CopySubtree deep-copies the children of srcIdx under dstIdx, preserving
// structure and setting fresh parent links. dstIdx must be childless.
func (t *Tree) CopySubtree(srcIdx, dstIdx NodeIndex) {
	srcArgs := t.nodes[srcIdx].Args
	for _, child := range srcArgs {
		n := t.nodes[child]
		n.Parent = dstIdx
		n.Args = nil

		idx := t.Append(n)
		t.nodes[dstIdx].Args = append(t.nodes[dstIdx].Args, idx)
		t.CopySubtree(child, idx)
	}
}

// SubCount returns the number of leading Init statements of a node when
// countInit is set, and the number of non-defun body sub-expressions
// otherwise.
func (t *Tree) SubCount(countInit bool, parent NodeIndex) int {
	node := &t.nodes[parent]

	i := 0
	for ; i < len(node.Args); i++ {
		if !t.nodes[node.Args[i]].IsInit() {
			break
		}
	}
	if countInit {
		return i
	}

	count := 0
	for ; i < len(node.Args); i++ {
		// defun statements, i.e. named Let sub-nodes, do not execute linearly
		if t.nodes[node.Args[i]].IsDefun() {
			continue
		}
		count++
	}
	return count
}
