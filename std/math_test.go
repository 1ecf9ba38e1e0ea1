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

package std

import (
	"testing"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/graph"
)

func transformed(t *testing.T, factory *core.CallFactory, src string) string {
	t.Helper()
	g := graph.NewMergeGraph()
	if _, err := g.AddRoot(parseTree(t, factory, src)); err != nil {
		t.Fatal(err)
	}
	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}
	root, err := g.Root(0)
	if err != nil {
		t.Fatal(err)
	}
	return root.SExpr()
}

func TestFoldLiterals(t *testing.T) {
	factory := Load(core.NewCallFactory())
	for _, c := range []struct {
		src, want string
	}{
		{"(add 1 2)", "3"},
		{"(add 1 2 3)", "6"},
		{"(add 1 2.5)", "3.5"},
		{"(mult 2 3 4)", "24"},
		{"(max 1 9 5)", "9"},
		{"(min 3 -2 7)", "-2"},
		{"(neg 5)", "-5"},
		{"(neg 2.5)", "-2.5"},
	} {
		if got := transformed(t, factory, c.src); got != c.want {
			t.Fatalf("%s -> %s, want %s", c.src, got, c.want)
		}
	}
}

func TestFoldCanonicalOrder(t *testing.T) {
	factory := Load(core.NewCallFactory())
	a := transformed(t, factory, "(add (field 'x') (field 'y'))")
	b := transformed(t, factory, "(add (field 'y') (field 'x'))")
	if a != b {
		t.Fatalf("%q vs %q", a, b)
	}
}

func TestAddEval(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(add (field 'x') (field 'y'))")

	f := newFields()
	f.add("x", core.NewNumber(1)).add("x", core.NewNumber(2)).finish("x")
	f.add("y", core.NewNumber(10))
	ctx := &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f}

	vl, err := s.Eval(n, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !vl.Empty() {
		t.Fatal("sum should wait for all inputs to finish")
	}

	f.finish("y")
	ctx.Phase = core.PhaseRequestBody
	vl, err = s.Eval(n, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if vl.Len() != 1 || !s.IsFinished(n.Index()) {
		t.Fatalf("len=%d finished=%v", vl.Len(), s.IsFinished(n.Index()))
	}
	i, err := vl.Values()[0].AsNumber()
	if err != nil || i != 13 {
		t.Fatalf("sum = %d (%v), want 13", i, err)
	}
}

func TestMaxEmptyInputsIsFalse(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(max (field 'x') (field 'y'))")

	f := newFields()
	f.finishAll()
	vl, err := s.Eval(n, &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	if !vl.Empty() || !s.IsFinished(n.Index()) {
		t.Fatal("max of nothing should finish falsy")
	}
}

func TestNegIncremental(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(neg (field 'x'))")

	f := newFields()
	f.add("x", core.NewNumber(3).Named("a"))
	ctx := &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f}
	vl, err := s.Eval(n, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if vl.Len() != 1 {
		t.Fatalf("len=%d", vl.Len())
	}

	f.add("x", core.NewFloat(1.5)).finish("x")
	ctx.Phase = core.PhaseRequestBody
	vl, err = s.Eval(n, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if vl.Len() != 2 || !s.IsFinished(n.Index()) {
		t.Fatalf("len=%d finished=%v", vl.Len(), s.IsFinished(n.Index()))
	}
	i, _ := vl.Values()[0].AsNumber()
	fl, _ := vl.Values()[1].AsFloat()
	if i != -3 || fl != -1.5 {
		t.Fatalf("got %d, %v", i, fl)
	}
	if vl.Values()[0].Name() != "a" {
		t.Fatal("neg should keep value names")
	}
}

func TestFoldValidatesLiteralKinds(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n := parseTree(t, factory, "(add 1 'two')")
	rep := core.NewReporter()
	if n.Validate(core.NewNodeReporter(rep, n)) {
		t.Fatal("string literal under add should fail validation")
	}
}
