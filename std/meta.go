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

// Package std is the standard call library: booleans, arithmetic,
// value-list plumbing, field and operator adapters, templates, and a
// couple of development aids.  Load registers everything.
package std

import (
	"sort"

	"github.com/Comcast/predicate/core"
)

// base supplies the Name half of core.Call.
type base struct {
	name string
}

func (b base) Name() string {
	return b.name
}

// sexprSorted reports whether the nodes are in canonical (s-expression
// string) order.
func sexprSorted(ns []*core.Node) bool {
	for i := 1; i < len(ns); i++ {
		if ns[i].SExpr() < ns[i-1].SExpr() {
			return false
		}
	}
	return true
}

// transformAbelian reorders a commutative call's children into
// canonical order so that, say, (and a b) and (and b a) merge to one
// node.  Returns whether a reorder happened.
func transformAbelian(n *core.Node, g core.Grapher, factory *core.CallFactory) (bool, error) {
	kids := n.Children()
	if len(kids) < 2 || sexprSorted(kids) {
		return false, nil
	}
	sorted := append([]*core.Node(nil), kids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SExpr() < sorted[j].SExpr()
	})
	repl, err := factory.New(n.Name())
	if err != nil {
		return false, err
	}
	for _, c := range sorted {
		if err := repl.AddChild(c); err != nil {
			return false, err
		}
	}
	return true, g.Replace(n, repl)
}

// replaceWithCall swaps n for a fresh call of the given name with the
// given children.
func replaceWithCall(n *core.Node, g core.Grapher, factory *core.CallFactory, name string, children []*core.Node) (bool, error) {
	repl, err := factory.New(name)
	if err != nil {
		return false, err
	}
	for _, c := range children {
		if err := repl.AddChild(c); err != nil {
			return false, err
		}
	}
	return true, g.Replace(n, repl)
}

// replaceWithLiteral swaps n for a literal.
func replaceWithLiteral(n *core.Node, g core.Grapher, v core.Value) (bool, error) {
	return true, g.Replace(n, core.NewLiteral(v))
}

// aliasCall is a call that immediately rewrites itself to another call
// with the same children.  Used for synonyms and deprecated names.
type aliasCall struct {
	base
	target string
}

// NewAlias makes a generator for name that rewrites to target.
func NewAlias(name, target string) core.Generator {
	return func(string) core.Call {
		return &aliasCall{base{name}, target}
	}
}

func (c *aliasCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return &core.EvalStateError{What: "alias call " + c.name + " evaluated before transformation"}
}

func (c *aliasCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	return replaceWithCall(n, g, factory, c.target, n.Children())
}

// mapNew applies f to each element of vl not yet consumed, advancing
// the cursor.  The incremental-calculation workhorse: a call keeps a
// cursor per input in its node state and never reprocesses a value,
// however many phases the evaluation spans.
func mapNew(vl *core.ValueList, cursor *int, f func(core.Value) error) error {
	vs := vl.Values()
	for ; *cursor < len(vs); *cursor++ {
		if err := f(vs[*cursor]); err != nil {
			return err
		}
	}
	return nil
}

// literalChildValue returns the i'th child's literal Value.
func literalChildValue(n *core.Node, i int) (core.Value, error) {
	return n.Children()[i].LiteralValue()
}

// literalChildString returns the i'th child's literal string value.
func literalChildString(n *core.Node, i int) (string, error) {
	v, err := literalChildValue(n, i)
	if err != nil {
		return "", err
	}
	bs, err := v.AsString()
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// allLiterals reports whether every child of n is a literal.
func allLiterals(n *core.Node) bool {
	for _, c := range n.Children() {
		if !c.IsLiteral() {
			return false
		}
	}
	return true
}
