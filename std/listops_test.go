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
)

func numbers(t *testing.T, vl *core.ValueList) []int64 {
	t.Helper()
	var is []int64
	for _, v := range vl.Values() {
		i, err := v.AsNumber()
		if err != nil {
			t.Fatal(err)
		}
		is = append(is, i)
	}
	return is
}

func TestCatIncremental(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(cat (field 'x') (field 'y'))")

	f := newFields()
	f.add("x", core.NewNumber(1)).finish("x")
	f.add("y", core.NewNumber(2))
	ctx := &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f}

	vl, err := s.Eval(n, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := numbers(t, vl); len(got) != 2 || s.IsFinished(n.Index()) {
		t.Fatalf("got %v finished=%v", got, s.IsFinished(n.Index()))
	}

	f.add("y", core.NewNumber(3)).finish("y")
	ctx.Phase = core.PhaseRequestBody
	vl, err = s.Eval(n, ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := numbers(t, vl)
	if len(got) != 3 || !s.IsFinished(n.Index()) {
		t.Fatalf("got %v finished=%v", got, s.IsFinished(n.Index()))
	}
	// Each child's own values keep their order.
	if got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestFirstFinishesEarly(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(first (field 'x'))")

	f := newFields()
	f.add("x", core.NewNumber(7))
	vl, err := s.Eval(n, &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	if got := numbers(t, vl); len(got) != 1 || got[0] != 7 {
		t.Fatalf("got %v", got)
	}
	if !s.IsFinished(n.Index()) {
		t.Fatal("first should finish on its first value")
	}
}

func TestFirstOfNothing(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(first (field 'x'))")

	f := newFields()
	f.finishAll()
	vl, err := s.Eval(n, &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	if !vl.Empty() || !s.IsFinished(n.Index()) {
		t.Fatal("first of a finished empty input should finish falsy")
	}
}

func TestRest(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(rest (field 'x'))")

	f := newFields()
	f.add("x", core.NewNumber(1)).add("x", core.NewNumber(2)).add("x", core.NewNumber(3)).finish("x")
	vl, err := s.Eval(n, &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	got := numbers(t, vl)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("got %v", got)
	}
	if !s.IsFinished(n.Index()) {
		t.Fatal("rest should finish with its child")
	}
}

func TestSetName(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, "(setName 'renamed' (field 'x'))")

	f := newFields()
	f.add("x", core.NewNumber(1).Named("old")).finish("x")
	vl, err := s.Eval(n, &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	if vl.Len() != 1 || vl.Values()[0].Name() != "renamed" {
		t.Fatalf("got %s", vl.Values()[0])
	}
}

func TestListRewritesToCat(t *testing.T) {
	factory := Load(core.NewCallFactory())
	got := transformed(t, factory, "(list 1 2)")
	if got != "(cat 1 2)" {
		t.Fatalf("got %q", got)
	}
}
