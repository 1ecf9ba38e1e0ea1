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

// Package graph merges predicate expression trees into a single DAG
// and drives its transformation to a fixed point.
//
// The MergeGraph owns every node added to it.  Equivalence is
// syntactic: two nodes with the same canonical s-expression are the
// same node.  Root indices are handed out by AddRoot and stay valid
// across any amount of rewriting, so a host can attach meaning (a rule
// id, say) to an index once and never revisit it.
package graph

import (
	"fmt"
	"io"
	"sort"

	"github.com/Comcast/predicate/core"
)

// MergeGraph accumulates expression trees, sharing equal subtrees, and
// supports in-place replacement of subexpressions during
// transformation.
type MergeGraph struct {
	roots       []*core.Node
	rootIndices map[*core.Node][]int
	bySexpr     map[string]*core.Node
	transformed map[string]string
}

// NewMergeGraph makes an empty graph.
func NewMergeGraph() *MergeGraph {
	return &MergeGraph{
		rootIndices: make(map[*core.Node][]int),
		bySexpr:     make(map[string]*core.Node),
		transformed: make(map[string]string),
	}
}

// Size returns the number of distinct nodes in the graph.
func (g *MergeGraph) Size() int {
	return len(g.bySexpr)
}

// NumRoots returns the number of root indices handed out, including
// any later removed.
func (g *MergeGraph) NumRoots() int {
	return len(g.roots)
}

// AddRoot merges the tree at root into the graph and returns its
// stable root index.  The tree must be exclusively owned by the
// caller: root may not already have parents, and none of its nodes may
// already belong to this graph.
func (g *MergeGraph) AddRoot(root *core.Node) (int, error) {
	if root == nil {
		return 0, core.Einval("cannot add nil root")
	}
	if len(root.Parents()) != 0 {
		return 0, core.Einval("root cannot have parents")
	}
	merged, err := g.mergeTree(root)
	if err != nil {
		return 0, err
	}
	index := len(g.roots)
	g.roots = append(g.roots, merged)
	g.rootIndices[merged] = append(g.rootIndices[merged], index)
	return index, nil
}

// mergeTree rewrites the tree at n bottom-up, replacing every subtree
// that the graph already knows with the graph's copy, and learns every
// subtree it does not.  Returns the in-graph node for n.
func (g *MergeGraph) mergeTree(n *core.Node) (*core.Node, error) {
	for i := 0; i < len(n.Children()); i++ {
		c := n.Children()[i]
		m, err := g.mergeTree(c)
		if err != nil {
			return nil, err
		}
		if m != c {
			if err := n.ReplaceChild(c, m); err != nil {
				return nil, err
			}
		}
	}
	sexpr := n.SExpr()
	if known, have := g.bySexpr[sexpr]; have {
		if known != n {
			// n is a duplicate about to be dropped; unhook it so its
			// children do not keep a parent link to a dead node.
			for len(n.Children()) > 0 {
				if err := n.RemoveChild(n.Children()[0]); err != nil {
					return nil, err
				}
			}
		}
		return known, nil
	}
	g.bySexpr[sexpr] = n
	return n, nil
}

// Root returns the root at index.
func (g *MergeGraph) Root(index int) (*core.Node, error) {
	if index < 0 || index >= len(g.roots) || g.roots[index] == nil {
		return nil, core.Enoent(fmt.Sprintf("no root at index %d", index))
	}
	return g.roots[index], nil
}

// Roots returns the current root nodes, with nil holes where roots
// were removed.  The caller should not modify the slice.
func (g *MergeGraph) Roots() []*core.Node {
	return g.roots
}

// RootIndices returns every index at which n is a root.  Distinct
// indices can share a root when their expressions merged to the same
// node.
func (g *MergeGraph) RootIndices(n *core.Node) ([]int, error) {
	indices, have := g.rootIndices[n]
	if !have {
		return nil, core.Enoent("node is not a root")
	}
	return indices, nil
}

// IsRoot reports whether n is currently a root.
func (g *MergeGraph) IsRoot(n *core.Node) bool {
	_, have := g.rootIndices[n]
	return have
}

// Known returns the in-graph node with the same canonical form as n,
// or nil if the graph has none.  Satisfies core.Grapher.
func (g *MergeGraph) Known(n *core.Node) *core.Node {
	if n == nil {
		return nil
	}
	return g.bySexpr[n.SExpr()]
}

// Replace substitutes with for which everywhere in the graph: every
// parent of which is rewritten, and any root indices held by which
// move to with.  which is resolved to its in-graph equivalent by
// canonical form (the caller may hold a stale copy); with is merged in
// first and may be (or merge into) an existing node.  Replacing a node
// with its own equivalent is a no-op.
//
// The subtree under which is removed, except for nodes still reachable
// from elsewhere.  The replacement is noted in the transform record so
// that FindTransform can map pre-transform expressions to their final
// forms.
func (g *MergeGraph) Replace(which, with *core.Node) error {
	if which == nil || with == nil {
		return core.Einval("cannot replace nil")
	}
	whichSexpr := which.SExpr()
	known, have := g.bySexpr[whichSexpr]
	if !have {
		return core.Enoent("node to replace is not in graph")
	}
	which = known

	merged, err := g.mergeTree(with)
	if err != nil {
		return err
	}
	if merged == which {
		return nil
	}

	// Every ancestor's canonical form is about to change.
	oldForms, err := g.unlearnUp(which)
	if err != nil {
		return err
	}

	// Parents appear once per edge; ReplaceChild rewrites every edge,
	// so visit each parent once.
	replaced := make(map[*core.Node]bool)
	parents := append([]*core.Node(nil), which.Parents()...)
	for _, p := range parents {
		if replaced[p] {
			continue
		}
		replaced[p] = true
		if err := p.ReplaceChild(which, merged); err != nil {
			return err
		}
	}

	if indices, isRoot := g.rootIndices[which]; isRoot {
		for _, i := range indices {
			g.roots[i] = merged
		}
		g.rootIndices[merged] = append(g.rootIndices[merged], indices...)
		delete(g.rootIndices, which)
	}

	if err := g.learnUp(merged); err != nil {
		return err
	}

	g.transformed[whichSexpr] = merged.SExpr()
	for a, old := range oldForms {
		if a == which {
			continue
		}
		if now := a.SExpr(); now != old {
			g.transformed[old] = now
		}
	}

	g.removeDetached(which)
	return nil
}

// unlearnUp forgets n and every ancestor of n, returning their
// canonical forms at the time so the transform record can note how
// each changed.
func (g *MergeGraph) unlearnUp(n *core.Node) (map[*core.Node]string, error) {
	oldForms := make(map[*core.Node]string)
	err := core.BFSUp(n, make(map[*core.Node]bool), func(a *core.Node) error {
		sexpr := a.SExpr()
		oldForms[a] = sexpr
		delete(g.bySexpr, sexpr)
		return nil
	})
	return oldForms, err
}

// learnUp learns n and every ancestor of n.  An ancestor whose new
// form collides with a node already learned keeps the learned copy;
// that duplication is resolved by the next transform round's merge.
func (g *MergeGraph) learnUp(n *core.Node) error {
	return core.BFSUp(n, make(map[*core.Node]bool), func(a *core.Node) error {
		sexpr := a.SExpr()
		if _, have := g.bySexpr[sexpr]; !have {
			g.bySexpr[sexpr] = a
		}
		return nil
	})
}

// removeDetached unlearns n, now parentless, and walks down the old
// subtree: children reachable only through it are removed too, while
// children shared with the surviving graph are merely detached.
func (g *MergeGraph) removeDetached(n *core.Node) {
	if g.bySexpr[n.SExpr()] == n {
		delete(g.bySexpr, n.SExpr())
	}
	children := append([]*core.Node(nil), n.Children()...)
	for _, c := range children {
		// RemoveChild drops one parent link per occurrence.
		for err := n.RemoveChild(c); err == nil; err = n.RemoveChild(c) {
		}
		if len(c.Parents()) == 0 && !g.IsRoot(c) {
			g.removeDetached(c)
		}
	}
}

// RemoveRoot removes the root at index and any part of its tree not
// shared with other roots.  The index stays allocated; Root on it
// reports ENOENT afterward.
func (g *MergeGraph) RemoveRoot(index int) error {
	root, err := g.Root(index)
	if err != nil {
		return err
	}
	indices := g.rootIndices[root]
	remaining := indices[:0]
	for _, i := range indices {
		if i != index {
			remaining = append(remaining, i)
		}
	}
	g.roots[index] = nil
	if len(remaining) > 0 {
		g.rootIndices[root] = remaining
		return nil
	}
	delete(g.rootIndices, root)
	if len(root.Parents()) == 0 {
		g.removeDetached(root)
	}
	return nil
}

// FindTransform follows the transform record from a pre-transform
// canonical form to the final form it became, reporting whether any
// transformation applied.
func (g *MergeGraph) FindTransform(sexpr string) (string, bool) {
	found := false
	seen := map[string]bool{}
	for {
		next, have := g.transformed[sexpr]
		if !have || seen[sexpr] {
			return sexpr, found
		}
		seen[sexpr] = true
		sexpr = next
		found = true
	}
}

// ClearTransformRecord drops the transform record, typically after the
// host has translated its expression-to-rule bindings.
func (g *MergeGraph) ClearTransformRecord() {
	g.transformed = make(map[string]string)
}

// WriteDebugReport dumps every node with its parents and children.
// For human eyes during development.
func (g *MergeGraph) WriteDebugReport(w io.Writer) {
	fmt.Fprintf(w, "MergeGraph: %d nodes, %d roots\n", len(g.bySexpr), len(g.roots))
	sexprs := make([]string, 0, len(g.bySexpr))
	for s := range g.bySexpr {
		sexprs = append(sexprs, s)
	}
	sort.Strings(sexprs)
	for _, s := range sexprs {
		n := g.bySexpr[s]
		fmt.Fprintf(w, "%p %s\n", n, s)
		for _, p := range n.Parents() {
			fmt.Fprintf(w, "  parent %p\n", p)
		}
		for _, c := range n.Children() {
			fmt.Fprintf(w, "  child  %p %s\n", c, c.SExpr())
		}
	}
	for i, r := range g.roots {
		if r == nil {
			fmt.Fprintf(w, "root %d (removed)\n", i)
			continue
		}
		fmt.Fprintf(w, "root %d %s\n", i, r.SExpr())
	}
}

// WriteValidationReport checks internal consistency, writing any
// problem found, and reports whether the graph is consistent.
func (g *MergeGraph) WriteValidationReport(w io.Writer) bool {
	ok := true
	complain := func(format string, args ...interface{}) {
		ok = false
		fmt.Fprintf(w, format+"\n", args...)
	}

	for sexpr, n := range g.bySexpr {
		if got := n.SExpr(); got != sexpr {
			complain("learned form %q does not match node form %q", sexpr, got)
		}
		for _, c := range n.Children() {
			if !hasNode(c.Parents(), n) {
				complain("%s: child %s lacks parent backlink", sexpr, c.SExpr())
			}
			if g.bySexpr[c.SExpr()] != c {
				complain("%s: child %s is not learned", sexpr, c.SExpr())
			}
		}
		for _, p := range n.Parents() {
			if !hasNode(p.Children(), n) {
				complain("%s: parent %s lacks child link", sexpr, p.SExpr())
			}
		}
	}

	for i, r := range g.roots {
		if r == nil {
			continue
		}
		if g.bySexpr[r.SExpr()] != r {
			complain("root %d (%s) is not learned", i, r.SExpr())
		}
		if !hasIndex(g.rootIndices[r], i) {
			complain("root %d (%s) missing from root index map", i, r.SExpr())
		}
	}
	for n, indices := range g.rootIndices {
		for _, i := range indices {
			if i < 0 || i >= len(g.roots) || g.roots[i] != n {
				complain("root index map names %s at %d, but it is not there", n.SExpr(), i)
			}
		}
	}
	return ok
}

func hasNode(ns []*core.Node, n *core.Node) bool {
	for _, x := range ns {
		if x == n {
			return true
		}
	}
	return false
}

func hasIndex(indices []int, i int) bool {
	for _, x := range indices {
		if x == i {
			return true
		}
	}
	return false
}
