package core

// Arity and type checks shared by call implementations.  Each helper
// reports via the NodeReporter and returns false on failure, so a
// Validate method can just And them together.

import "strconv"

// NChildren checks for exactly k children.
func NChildren(n *Node, r *NodeReporter, k int) bool {
	if len(n.Children()) != k {
		r.Error("wants " + strconv.Itoa(k) + " children, has " +
			strconv.Itoa(len(n.Children())))
		return false
	}
	return true
}

// NOrMoreChildren checks for at least k children.
func NOrMoreChildren(n *Node, r *NodeReporter, k int) bool {
	if len(n.Children()) < k {
		r.Error("wants at least " + strconv.Itoa(k) + " children, has " +
			strconv.Itoa(len(n.Children())))
		return false
	}
	return true
}

// NoChildren checks for zero children.
func NoChildren(n *Node, r *NodeReporter) bool {
	return NChildren(n, r, 0)
}

// NthChildIsLiteral checks that child i exists and is a literal.
func NthChildIsLiteral(n *Node, r *NodeReporter, i int) bool {
	if i >= len(n.Children()) {
		r.Error("missing child " + strconv.Itoa(i))
		return false
	}
	if !n.Children()[i].IsLiteral() {
		r.Error("child " + strconv.Itoa(i) + " must be a literal")
		return false
	}
	return true
}

// NthChildIsString checks that child i is a string literal.
func NthChildIsString(n *Node, r *NodeReporter, i int) bool {
	if !NthChildIsLiteral(n, r, i) {
		return false
	}
	v, _ := n.Children()[i].LiteralValue()
	if v.Kind() != String {
		r.Error("child " + strconv.Itoa(i) + " must be a string literal")
		return false
	}
	return true
}

// NthChildIsNumeric checks that child i is a number or float literal.
func NthChildIsNumeric(n *Node, r *NodeReporter, i int) bool {
	if !NthChildIsLiteral(n, r, i) {
		return false
	}
	v, _ := n.Children()[i].LiteralValue()
	if v.Kind() != Number && v.Kind() != Float {
		r.Error("child " + strconv.Itoa(i) + " must be a numeric literal")
		return false
	}
	return true
}
