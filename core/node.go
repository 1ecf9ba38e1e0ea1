/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import "strings"

// A Node is a vertex in the predicate DAG: either a literal wrapping a
// constant Value, or a call with an operator and ordered children.
//
// Nodes are built by the parser as trees and become DAG-shaped only
// once merged into a graph.  Children are shared (a node may have many
// parents); the parent back-references exist so that graph rewriting
// can walk upward.  Rewrites must never introduce a cycle; that is
// enforced by construction, not by the type system.
type Node struct {
	call     Call
	lit      Value
	children []*Node
	parents  []*Node
	index    int
}

// Call is the behavior of a call node.  A Call instance belongs to
// exactly one Node; the CallFactory makes a fresh instance per node.
//
// EvalCalculate examines the children's values (evaluating them as
// needed) and updates the node's evaluation state.  It is invoked at
// most once per phase per evaluation context.
type Call interface {
	Name() string
	EvalCalculate(n *Node, s *GraphEvalState, ctx *EvalContext) error
}

// Validator is implemented by calls that check arity or type
// constraints.  Validate reports problems without mutating anything
// and returns false if it reported an error.
type Validator interface {
	Validate(n *Node, r *NodeReporter) bool
}

// Transformer is implemented by calls that rewrite themselves.
// Transform may only replace the node itself or alter its own children
// through MergeGraph primitives.  It returns whether it rewrote
// anything.
type Transformer interface {
	Transform(n *Node, g Grapher, factory *CallFactory, r *NodeReporter) (bool, error)
}

// Initializer is implemented by calls that need exactly-once,
// per-context setup before their first calculation.
type Initializer interface {
	EvalInitialize(n *Node, s *GraphEvalState, ctx *EvalContext) error
}

// PostTransformer is implemented by calls that must not survive
// transformation (templates, refs).  PostTransform reports if the node
// still exists after the transform fixed point.
type PostTransformer interface {
	PostTransform(n *Node, r *NodeReporter)
}

// Grapher is the slice of MergeGraph that Transformers are allowed to
// use.  It lives here to keep the core free of a dependency on the
// graph package.
type Grapher interface {
	// Replace rewrites every parent of which to refer to with, and
	// moves root identity from which to with if which was a root.
	Replace(which, with *Node) error

	// Known returns the in-graph node equivalent to n, or nil.
	Known(n *Node) *Node
}

// NewLiteral makes a literal node with the given Value.
func NewLiteral(v Value) *Node {
	return &Node{lit: v, index: -1}
}

// NewCall makes a call node around the given Call.
func NewCall(c Call) *Node {
	return &Node{call: c, index: -1}
}

// IsLiteral reports whether the node is a literal.
func (n *Node) IsLiteral() bool {
	return n.call == nil
}

// Name returns the operator mnemonic for calls and the empty string
// for literals.
func (n *Node) Name() string {
	if n.call == nil {
		return ""
	}
	return n.call.Name()
}

// Call returns the node's Call, nil for literals.
func (n *Node) Call() Call {
	return n.call
}

// LiteralValue returns a literal node's Value.
func (n *Node) LiteralValue() (Value, error) {
	if !n.IsLiteral() {
		return Value{}, Einval("not a literal")
	}
	return n.lit, nil
}

// Children returns the node's ordered children.  The caller should not
// modify the slice.
func (n *Node) Children() []*Node {
	return n.children
}

// Parents returns the node's current parents, one entry per edge: a
// parent referencing this node twice appears twice.  The caller should
// not modify the slice.
func (n *Node) Parents() []*Node {
	return n.parents
}

// Index returns the node's evaluation index, or -1 if the node has not
// been indexed.
func (n *Node) Index() int {
	return n.index
}

// SetIndex assigns the node's evaluation index.  Assigning twice is an
// error: indices are stable for the life of the DAG.
func (n *Node) SetIndex(i int) error {
	if n.index >= 0 {
		return Einval("node already indexed")
	}
	n.index = i
	return nil
}

// AddChild appends a child, recording this node among the child's
// parents.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return Einval("cannot add nil child")
	}
	if n.IsLiteral() {
		return Einval("literals cannot have children")
	}
	n.children = append(n.children, child)
	child.parents = append(child.parents, n)
	return nil
}

// RemoveChild removes the first occurrence of child, dropping this
// node from the child's parents.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil {
		return Einval("cannot remove nil child")
	}
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.removeParent(n)
			return nil
		}
	}
	return Enoent("no such child")
}

// ReplaceChild swaps every occurrence of child for with.  Parent
// lists hold one entry per edge, so each occurrence moves one
// backlink from child to with.
func (n *Node) ReplaceChild(child, with *Node) error {
	if child == nil || with == nil {
		return Einval("cannot replace with nil")
	}
	found := false
	for i, c := range n.children {
		if c == child {
			n.children[i] = with
			child.removeParent(n)
			with.parents = append(with.parents, n)
			found = true
		}
	}
	if !found {
		return Enoent("no such child")
	}
	return nil
}

func (n *Node) removeParent(p *Node) {
	for i, x := range n.parents {
		if x == p {
			n.parents = append(n.parents[:i], n.parents[i+1:]...)
			return
		}
	}
}

// SExpr returns the canonical textual form of the node: the emitted
// literal, or "(name child...)".  This form defines node equivalence
// for merging: equivalence is syntactic, child order included.
func (n *Node) SExpr() string {
	var b strings.Builder
	n.sexpr(&b)
	return b.String()
}

func (n *Node) sexpr(b *strings.Builder) {
	if n.IsLiteral() {
		b.WriteString(EmitLiteral(n.lit))
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Name())
	for _, c := range n.children {
		b.WriteByte(' ')
		c.sexpr(b)
	}
	b.WriteByte(')')
}

func (n *Node) String() string {
	return n.SExpr()
}

// Validate runs the call's validation hook, if any.  Literals always
// validate.
func (n *Node) Validate(r *NodeReporter) bool {
	if v, is := n.call.(Validator); is {
		return v.Validate(n, r)
	}
	return true
}

// Transform runs the call's transform hook, if any, reporting whether
// a rewrite happened.
func (n *Node) Transform(g Grapher, factory *CallFactory, r *NodeReporter) (bool, error) {
	if t, is := n.call.(Transformer); is {
		return t.Transform(n, g, factory, r)
	}
	return false, nil
}

// PostTransform runs the call's post-transform hook, if any.
func (n *Node) PostTransform(r *NodeReporter) {
	if t, is := n.call.(PostTransformer); is {
		t.PostTransform(n, r)
	}
}

// TreeCopy makes a deep copy of the tree at n, instantiating fresh
// calls via the factory.  The copy shares no structure with the
// original; literal Values are immutable and are reused.
func TreeCopy(n *Node, factory *CallFactory) (*Node, error) {
	if n.IsLiteral() {
		return NewLiteral(n.lit), nil
	}
	cp, err := factory.New(n.Name())
	if err != nil {
		return nil, err
	}
	for _, c := range n.children {
		cc, err := TreeCopy(c, factory)
		if err != nil {
			return nil, err
		}
		if err := cp.AddChild(cc); err != nil {
			return nil, err
		}
	}
	return cp, nil
}
