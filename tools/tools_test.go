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

package tools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/graph"
	"github.com/Comcast/predicate/std"
)

func testGraph(t *testing.T, exprs ...string) (*graph.MergeGraph, *core.CallFactory) {
	t.Helper()
	factory := std.Load(core.NewCallFactory())
	g := graph.NewMergeGraph()
	for _, src := range exprs {
		pos := 0
		n, err := core.ParseCall(src, &pos, factory)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		if _, err := g.AddRoot(n); err != nil {
			t.Fatal(err)
		}
	}
	return g, factory
}

func TestGraphDot(t *testing.T) {
	g, _ := testGraph(t, "(and (eq 'x' 5) (eq 'y' 5))", "(eq 'x' 5)")

	var buf bytes.Buffer
	if err := GraphDot(&buf, g, &DotOptions{Name: "test", Horizontal: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"digraph \"test\"",
		"rankdir=LR",
		"shape=box",
		"root [1]",
		"->",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGraphDotWithEvalState(t *testing.T) {
	g, factory := testGraph(t, "(true)")
	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}
	limit, err := g.AssignIndices()
	if err != nil {
		t.Fatal(err)
	}
	s := core.NewGraphEvalState(limit)
	root, err := g.Root(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval(root, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := GraphDot(&buf, g, &DotOptions{EvalState: s}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "finished") {
		t.Fatalf("missing eval annotation in:\n%s", buf.String())
	}
}

func TestWriteGraphYAML(t *testing.T) {
	g, _ := testGraph(t, "(eq 'x' 5)")

	var buf bytes.Buffer
	if err := WriteGraphYAML(&buf, g); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"nodes: 3",
		"roots: 1",
		"sexpr: (eq 'x' 5)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteValues(t *testing.T) {
	g, factory := testGraph(t, "(true)")
	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}
	limit, err := g.AssignIndices()
	if err != nil {
		t.Fatal(err)
	}
	s := core.NewGraphEvalState(limit)
	root, err := g.Root(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval(root, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	WriteValues(&buf, g, s)
	if !strings.Contains(buf.String(), "finished") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteCallReference(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	var buf bytes.Buffer
	if err := WriteCallReference(&buf, factory, ""); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<html>", "<h2", "orSC", "field"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
}
