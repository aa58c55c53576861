package parser

import "errors"

// Parse consumes a token sequence and builds the expression tree. Node 0 is
// the synthetic anonymous root scope whose body children are the top-level
// expressions of the program. Name and arity resolution happen in the same
// pass; the first error aborts parsing.
func Parse(tokens []Token) (*Tree, error) {
	t := NewTree()

	start, remain := 0, len(tokens)
	for remain > 0 {
		span, err := parseNode(tokens, start, remain, 0, t)
		if err != nil {
			return nil, err
		}
		start += span
		remain -= span
	}

	if t.SubCount(false, 0) == 0 {
		return nil, &Error{Err: errors.New("root expression does not return")}
	}
	return t, nil
}

// ParseString tokenizes and parses a source buffer.
func ParseString(src string) (*Tree, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// matchingParens returns the length of the leading sub-span enclosed by
// matching parentheses, both parentheses included, or -1 when the right
// parenthesis is missing. tokens[start] must be a left parenthesis.
func matchingParens(tokens []Token, start, length int) int {
	depth := 0
	for i := start + 1; i < start+length; i++ {
		switch tokens[i].Type {
		case tokenRParen:
			if depth == 0 {
				return i - start + 1
			}
			depth--
		case tokenLParen:
			depth++
		}
	}
	return -1
}

// parseNode builds the leading expression of a token span as a child of
// parent and returns the number of tokens consumed.
func parseNode(tokens []Token, start, length int, parent NodeIndex, t *Tree) (int, error) {
	first := tokens[start]

	if first.Type == tokenRParen {
		return 0, errorAt(first.Pos, errors.New("stray right parenthesis"))
	}

	if first.Type == tokenLParen {
		return parseForm(tokens, start, length, parent, t)
	}

	// single-token nodes
	var node Node
	switch first.Type {
	case tokenLiteralI32:
		node = Node{I32: first.I32, RType: ReturnI32, Kind: NodeLiteral, Parent: parent, Eval: NullIndex}

	case tokenLiteralF32:
		node = Node{F32: first.F32, RType: ReturnF32, Kind: NodeLiteral, Parent: parent, Eval: NullIndex}

	case tokenIdentifier:
		initIdx := lookupVar(t, first.Lexeme, parent)
		if initIdx == NullIndex {
			return 0, errorAt(first.Pos, errors.New("unknown var"))
		}
		node = Node{Name: first.Lexeme, RType: t.At(initIdx).RType, Kind: NodeEvalVar, Parent: parent, Eval: initIdx}

	default:
		return 0, errorAt(first.Pos, errors.New("unexpected token"))
	}

	idx := t.Append(node)
	t.At(parent).Args = append(t.At(parent).Args, idx)
	return 1, nil
}

// parseForm builds a parenthesized expression: a function definition, a
// let expression, or a call.
func parseForm(tokens []Token, start, length int, parent NodeIndex, t *Tree) (int, error) {
	first := tokens[start]

	span := matchingParens(tokens, start, length)
	if span < 0 {
		return 0, incompleteErrorAt(first.Pos, errors.New("stray left parenthesis"))
	}
	if span == 2 {
		return 0, errorAt(first.Pos, errors.New("empty parentheses"))
	}

	cur := start + 1   // left parenthesis
	remain := span - 2 // both parentheses
	head := tokens[cur]

	var newIdx NodeIndex
	switch head.Type {
	case tokenDefun:
		// defun statements are disallowed anywhere but in let scopes
		if t.At(parent).Kind != NodeLet {
			return 0, errorAt(first.Pos, errors.New("misplaced defun"))
		}
		// minimal defun statement: defun f ( ) expr
		if remain < 5 || tokens[cur+1].Type != tokenIdentifier {
			return 0, errorAt(first.Pos, errors.New("invalid defun"))
		}
		cur++
		remain--

		// the node introduces a named scope
		newIdx = t.Append(Node{Name: tokens[cur].Lexeme, RType: ReturnUnknown, Kind: NodeLet, Parent: parent, Eval: NullIndex})
		t.At(parent).Args = append(t.At(parent).Args, newIdx)

		sub, err := parseDefunArgs(tokens, cur, remain, newIdx, t)
		if err != nil {
			return 0, err
		}
		cur += sub
		remain -= sub

	case tokenLet:
		// minimal let expression: let ( ) expr
		if remain < 4 || tokens[cur+1].Type != tokenLParen {
			return 0, errorAt(first.Pos, errors.New("invalid let"))
		}

		// the node introduces an anonymous scope
		newIdx = t.Append(Node{RType: ReturnNone, Kind: NodeLet, Parent: parent, Eval: NullIndex})
		t.At(parent).Args = append(t.At(parent).Args, newIdx)

		cur++
		remain--

		sub, err := parseLetInits(tokens, cur, remain, newIdx, t)
		if err != nil {
			return 0, err
		}
		cur += sub
		remain -= sub

	case tokenPlus, tokenMinus, tokenMul, tokenDiv,
		tokenIfZero, tokenIfNeg, tokenPrint, tokenReadI32, tokenReadF32,
		tokenIdentifier:
		newIdx = t.Append(Node{Name: head.Lexeme, RType: ReturnNone, Kind: NodeEvalFun, Parent: parent, Eval: intrinFromToken(head.Type)})
		t.At(parent).Args = append(t.At(parent).Args, newIdx)

		cur++
		remain--

	default:
		return 0, errorAt(first.Pos, errors.New("unexpected token"))
	}

	// the remaining inner tokens form a sub-expression sequence
	for remain > 0 {
		sub, err := parseNode(tokens, cur, remain, newIdx, t)
		if err != nil {
			return 0, err
		}
		cur += sub
		remain -= sub
	}

	// verify the expected number of sub-expressions
	switch t.At(newIdx).Kind {
	case NodeLet:
		// a let scope, named or not, needs at least one expression to return
		if t.SubCount(false, newIdx) == 0 {
			return 0, errorAt(first.Pos, errors.New("invalid let/defun"))
		}
		// return type copied from the last non-defun sub-expression
		args := t.At(newIdx).Args
		for i := len(args) - 1; i >= 0; i-- {
			if t.At(args[i]).IsDefun() {
				continue
			}
			t.At(newIdx).RType = t.At(args[i]).RType
			break
		}

	case NodeEvalFun:
		subcount := t.SubCount(false, newIdx)
		count, exact, known := callArity(t, newIdx)
		if !known {
			return 0, errorAt(first.Pos, errors.New("unknown function call"))
		}
		if exact && subcount != count || !exact && subcount < count {
			return 0, errorAt(first.Pos, errors.New("invalid function call"))
		}
	}

	return span, nil
}

// parseLetInits parses the binding list of a let expression. tokens[start]
// must be the left parenthesis opening the list; each binding is a
// parenthesized (name expr) pair emitted as an Init child of parent.
// Returns the number of tokens consumed, the list parentheses included.
func parseLetInits(tokens []Token, start, length int, parent NodeIndex, t *Tree) (int, error) {
	span := matchingParens(tokens, start, length)
	if span < 0 {
		return 0, incompleteErrorAt(tokens[start].Pos, errors.New("invalid let"))
	}

	cur := start + 1
	remain := span - 2

	for remain > 0 {
		// minimal binding: ( x expr )
		if remain < 4 || tokens[cur].Type != tokenLParen || tokens[cur+1].Type != tokenIdentifier {
			return 0, errorAt(tokens[cur].Pos, errors.New("invalid var-init"))
		}

		sub := matchingParens(tokens, cur, remain)
		if sub < 0 {
			return 0, errorAt(tokens[cur].Pos, errors.New("invalid var-init"))
		}

		cur++ // left parenthesis
		remain -= sub
		subRemain := sub - 2

		idx := t.Append(Node{Name: tokens[cur].Lexeme, RType: ReturnNone, Kind: NodeInit, Parent: parent, Eval: NullIndex})
		t.At(idx).Eval = idx
		t.At(parent).Args = append(t.At(parent).Args, idx)

		cur++ // identifier
		subRemain--

		initSpan, err := parseNode(tokens, cur, subRemain, idx, t)
		if err != nil {
			return 0, err
		}
		if initSpan != subRemain {
			return 0, errorAt(tokens[cur].Pos, errors.New("invalid var-init"))
		}

		// the binding returns whatever its initializer returns
		t.At(idx).RType = t.At(t.At(idx).Args[0]).RType

		cur += initSpan + 1 // right parenthesis
	}

	return span, nil
}

// parseDefunArgs parses the argument list of a function definition.
// tokens[start] must be the function name; each argument is a bare
// identifier emitted as a childless Init of return type Unknown. Returns
// the number of tokens consumed, name and list parentheses included.
func parseDefunArgs(tokens []Token, start, length int, parent NodeIndex, t *Tree) (int, error) {
	if tokens[start+1].Type != tokenLParen {
		return 0, errorAt(tokens[start].Pos, errors.New("invalid defun"))
	}

	span := matchingParens(tokens, start+1, length-1)
	if span < 0 {
		return 0, incompleteErrorAt(tokens[start+1].Pos, errors.New("invalid defun"))
	}

	cur := start + 2
	remain := span - 2

	// introduce named args without initializers; each acquires its
	// initializer child at call time
	for remain > 0 {
		if tokens[cur].Type != tokenIdentifier {
			return 0, errorAt(tokens[cur].Pos, errors.New("invalid defun-arg"))
		}

		idx := t.Append(Node{Name: tokens[cur].Lexeme, RType: ReturnUnknown, Kind: NodeInit, Parent: parent, Eval: NullIndex})
		t.At(idx).Eval = idx
		t.At(parent).Args = append(t.At(parent).Args, idx)

		cur++
		remain--
	}

	return span + 1, nil // account for the name identifier
}

// lookupVar climbs the parent chain for the Init statement binding name.
// When the walk starts at an Init, its own scope is stepped out of first: a
// variable's initializer must not see sibling bindings of the same list.
func lookupVar(t *Tree, name string, parent NodeIndex) NodeIndex {
	if parent == NullIndex {
		return NullIndex
	}

	if t.At(parent).IsInit() {
		parent = t.At(parent).Parent // the binding's own scope
		parent = t.At(parent).Parent // the scope enclosing it
		if parent == NullIndex {
			return NullIndex
		}
	}

	if t.At(parent).Kind == NodeLet {
		for _, a := range t.At(parent).Args {
			// only the leading children of a scope are bindings
			if !t.At(a).IsInit() {
				break
			}
			if t.At(a).Name == name {
				return a
			}
		}
	}

	return lookupVar(t, name, t.At(parent).Parent)
}

// lookupDefun climbs the parent chain for a named Let. At each Let
// ancestor the ancestor itself is checked first, then its Let-kind
// children; the root scope participates in the walk.
func lookupDefun(t *Tree, name string, parent NodeIndex) NodeIndex {
	if parent == NullIndex {
		return NullIndex
	}

	if t.At(parent).Kind == NodeLet {
		if t.At(parent).Name == name {
			return parent
		}
		for _, a := range t.At(parent).Args {
			if t.At(a).Kind != NodeLet {
				continue
			}
			if t.At(a).Name == name {
				return a
			}
		}
	}

	return lookupDefun(t, name, t.At(parent).Parent)
}

// argsReturnType returns the promoted type of the arguments to an
// arithmetic call; promotion follows the ReturnType ordering.
func argsReturnType(t *Tree, idx NodeIndex) ReturnType {
	args := t.At(idx).Args
	if len(args) == 0 {
		return ReturnNone
	}

	ret := t.At(args[0]).RType
	for _, a := range args[1:] {
		if ret == ReturnUnknown {
			break
		}
		if rt := t.At(a).RType; ret < rt {
			ret = rt
		}
	}
	return ret
}

// ifReturnType returns the common type of a conditional's branches, or
// Unknown when the branches disagree.
func ifReturnType(t *Tree, idx NodeIndex) ReturnType {
	args := t.At(idx).Args
	if len(args) != 3 {
		return ReturnNone
	}

	ret := t.At(args[1]).RType
	if t.At(args[2]).RType != ret {
		ret = ReturnUnknown
	}
	return ret
}

// callArity returns the expected argument count of a call node, patching
// the node's return type as a side effect. exact reports whether count is
// exact rather than a minimum; known reports whether the callee exists.
// For user calls the node's eval target is patched to the resolved
// definition and the return type copied from it.
func callArity(t *Tree, idx NodeIndex) (count int, exact, known bool) {
	node := t.At(idx)

	switch node.Eval {
	case IntrinPlus, IntrinMinus, IntrinMul, IntrinDiv:
		node.RType = argsReturnType(t, idx)
		return 2, false, true
	case IntrinIfZero, IntrinIfNeg:
		node.RType = ifReturnType(t, idx)
		return 3, true, true
	case IntrinPrint:
		if len(node.Args) > 0 {
			node.RType = t.At(node.Args[0]).RType
		}
		return 1, true, true
	case IntrinReadI32:
		node.RType = ReturnI32
		return 0, true, true
	case IntrinReadF32:
		node.RType = ReturnF32
		return 0, true, true
	}

	defunIdx := lookupDefun(t, node.Name, node.Parent)
	if defunIdx == NullIndex {
		return 0, false, false
	}

	node.RType = t.At(defunIdx).RType
	node.Eval = defunIdx
	return t.SubCount(true, defunIdx), true, true
}
