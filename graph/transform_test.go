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

package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/std"
)

func TestTransformAndOfTrues(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	g := NewMergeGraph()
	if _, err := g.AddRoot(parse(t, factory, "(and (true) (true))")); err != nil {
		t.Fatal(err)
	}

	rep := core.NewReporter()
	rounds, err := g.TransformToFixpoint(factory, rep, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rounds > 2 {
		t.Fatalf("took %d rounds", rounds)
	}
	root, _ := g.Root(0)
	if root.SExpr() != "''" {
		t.Fatalf("root is %s", root.SExpr())
	}
}

func TestTransformCollapseToChild(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	g := NewMergeGraph()
	if _, err := g.AddRoot(parse(t, factory, "(and (eq 'x' 5) (true))")); err != nil {
		t.Fatal(err)
	}
	original, _ := g.Root(0)
	originalSexpr := original.SExpr()

	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}

	root, _ := g.Root(0)
	if root.SExpr() != "(eq 'x' 5)" {
		t.Fatalf("root is %s", root.SExpr())
	}

	final, transformed := g.FindTransform(originalSexpr)
	if !transformed || final != "(eq 'x' 5)" {
		t.Fatalf("FindTransform(%q) = %q, %v", originalSexpr, final, transformed)
	}
}

func TestTransformAbelianMerge(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	g := NewMergeGraph()

	i, err := g.AddRoot(parse(t, factory, "(and (field 'a') (field 'b'))"))
	if err != nil {
		t.Fatal(err)
	}
	j, err := g.AddRoot(parse(t, factory, "(and (field 'b') (field 'a'))"))
	if err != nil {
		t.Fatal(err)
	}

	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}

	a, _ := g.Root(i)
	b, _ := g.Root(j)
	if a != b {
		t.Fatalf("commuted expressions should merge: %s vs %s", a.SExpr(), b.SExpr())
	}
	if a.SExpr() != "(and (field 'a') (field 'b'))" {
		t.Fatalf("not canonical: %s", a.SExpr())
	}
}

// growCall never stops rewriting itself.
type growCall struct {
	n *int64
}

func (c *growCall) Name() string {
	return "grow"
}

func (c *growCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return s.At(n.Index()).FinishFalse()
}

func (c *growCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	*c.n++
	repl, err := factory.New("grow")
	if err != nil {
		return false, err
	}
	if err := repl.AddChild(core.NewLiteral(core.NewNumber(*c.n))); err != nil {
		return false, err
	}
	return true, g.Replace(n, repl)
}

func TestTransformDivergence(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	var count int64
	factory.Add("grow", func(string) core.Call {
		return &growCall{&count}
	})

	g := NewMergeGraph()
	if _, err := g.AddRoot(parse(t, factory, "(grow 0)")); err != nil {
		t.Fatal(err)
	}

	rep := core.NewReporter()
	rounds, err := g.TransformToFixpoint(factory, rep, 5)
	var div *DivergenceError
	if !errors.As(err, &div) {
		t.Fatalf("want DivergenceError, got %v", err)
	}
	if rounds != 5 || div.Rounds != 5 {
		t.Fatalf("rounds = %d, div = %d", rounds, div.Rounds)
	}
}

func TestValidatePre(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	g := NewMergeGraph()
	// not takes exactly one child.
	if _, err := g.AddRoot(parse(t, factory, "(not (true) (true))")); err != nil {
		t.Fatal(err)
	}

	rep := core.NewReporter()
	ok, err := g.Validate(PreTransform, rep)
	if err != nil {
		t.Fatal(err)
	}
	if ok || rep.NumErrors() == 0 {
		t.Fatal("arity error should fail validation")
	}
	if !strings.Contains(rep.Reports()[0].Message, "(not") {
		t.Fatalf("report should name the node: %q", rep.Reports()[0].Message)
	}
}

func TestValidatePostRef(t *testing.T) {
	factory := std.Load(core.NewCallFactory())
	g := NewMergeGraph()
	if _, err := g.AddRoot(parse(t, factory, "(ref 'a')")); err != nil {
		t.Fatal(err)
	}

	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}
	ok, err := g.Validate(PostTransform, rep)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("a surviving ref should fail post-transform validation")
	}
}
