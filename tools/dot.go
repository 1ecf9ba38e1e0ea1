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

// Package tools renders predicate DAGs for human consumption:
// Graphviz dot, YAML reports, and an HTML call reference.
package tools

import (
	"fmt"
	"io"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/graph"
)

// DotOptions controls GraphDot output.
type DotOptions struct {
	// Name is the graph name in the dot output.
	Name string

	// EvalState, if given, annotates each node with its current
	// values and whether it has finished.
	EvalState *core.GraphEvalState

	// Horizontal lays the graph out left to right.
	Horizontal bool
}

// GraphDot writes the DAG as a Graphviz digraph.  Roots are drawn as
// boxes annotated with their indices; everything else is an ellipse.
func GraphDot(w io.Writer, g *graph.MergeGraph, opts *DotOptions) error {
	if opts == nil {
		opts = &DotOptions{}
	}
	name := opts.Name
	if name == "" {
		name = "predicate"
	}
	fmt.Fprintf(w, "digraph %q {\n", name)
	if opts.Horizontal {
		fmt.Fprintf(w, "  rankdir=LR;\n")
	}

	ids := make(map[*core.Node]int)
	id := func(n *core.Node) int {
		i, have := ids[n]
		if !have {
			i = len(ids)
			ids[n] = i
		}
		return i
	}

	err := g.EachNode(func(n *core.Node) error {
		label := n.Name()
		if n.IsLiteral() {
			label = n.SExpr()
		}
		if indices, err := g.RootIndices(n); err == nil {
			sort.Ints(indices)
			label += fmt.Sprintf("\nroot %v", indices)
		}
		if s := opts.EvalState; s != nil && n.Index() >= 0 {
			label += fmt.Sprintf("\n%v", s.Values(n.Index()).Values())
			if s.IsFinished(n.Index()) {
				label += " (finished)"
			}
		}
		shape := "ellipse"
		if g.IsRoot(n) {
			shape = "box"
		}
		fmt.Fprintf(w, "  n%d [label=%q, shape=%s];\n", id(n), label, shape)
		for _, c := range n.Children() {
			fmt.Fprintf(w, "  n%d -> n%d;\n", id(n), id(c))
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "}\n")
	return nil
}

// NodeReport is one node in a YAML graph report.
type NodeReport struct {
	Id       int    `yaml:"id"`
	SExpr    string `yaml:"sexpr"`
	Call     string `yaml:"call,omitempty"`
	Children []int  `yaml:"children,omitempty,flow"`
	Roots    []int  `yaml:"roots,omitempty,flow"`
}

// GraphReport is a whole-graph YAML report.
type GraphReport struct {
	Nodes int          `yaml:"nodes"`
	Roots int          `yaml:"roots"`
	Graph []NodeReport `yaml:"graph"`
}

// WriteGraphYAML writes the DAG as YAML, one entry per node, children
// by id.  Mostly for diffing graphs across compiler changes.
func WriteGraphYAML(w io.Writer, g *graph.MergeGraph) error {
	ids := make(map[*core.Node]int)
	var order []*core.Node
	err := g.EachNode(func(n *core.Node) error {
		ids[n] = len(order)
		order = append(order, n)
		return nil
	})
	if err != nil {
		return err
	}

	report := GraphReport{
		Nodes: len(order),
		Roots: g.NumRoots(),
	}
	for i, n := range order {
		nr := NodeReport{
			Id:    i,
			SExpr: n.SExpr(),
			Call:  n.Name(),
		}
		for _, c := range n.Children() {
			nr.Children = append(nr.Children, ids[c])
		}
		if indices, err := g.RootIndices(n); err == nil {
			sort.Ints(indices)
			nr.Roots = indices
		}
		report.Graph = append(report.Graph, nr)
	}

	bs, err := yaml.Marshal(&report)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}

// WriteValues writes each root's current values, one line per root,
// for quick looks during development.
func WriteValues(w io.Writer, g *graph.MergeGraph, s *core.GraphEvalState) {
	for i, root := range g.Roots() {
		if root == nil {
			continue
		}
		state := "unfinished"
		if s.IsFinished(root.Index()) {
			state = "finished"
		}
		vs := make([]string, 0, s.Size(root.Index()))
		for _, v := range s.Values(root.Index()).Values() {
			vs = append(vs, v.String())
		}
		fmt.Fprintf(w, "%d %s %s [%s]\n", i, root.SExpr(), state, strings.Join(vs, " "))
	}
}
