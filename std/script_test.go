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

func evalJS(t *testing.T, src string, f *fields) (*core.ValueList, *core.Node, *core.GraphEvalState) {
	t.Helper()
	factory := Load(core.NewCallFactory())
	n, s := indexTree(t, factory, src)
	vl, err := s.Eval(n, &core.EvalContext{Phase: core.PhaseRequestHeader, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	return vl, n, s
}

func TestJSOverInputs(t *testing.T) {
	f := newFields()
	f.add("x", core.NewNumber(41)).finishAll()

	vl, n, s := evalJS(t, "(js 'inputs[0][0] + 1' (field 'x'))", f)
	if !s.IsFinished(n.Index()) || vl.Len() != 1 {
		t.Fatalf("finished=%v len=%d", s.IsFinished(n.Index()), vl.Len())
	}
	i, err := vl.Values()[0].AsNumber()
	if err != nil || i != 42 {
		t.Fatalf("got %d (%v)", i, err)
	}
}

func TestJSArrayResult(t *testing.T) {
	vl, _, _ := evalJS(t, "(js '[1, \\'a\\', 2.5]')", newFields())
	if vl.Len() != 3 {
		t.Fatalf("len=%d", vl.Len())
	}
	if k := vl.Values()[1].Kind(); k != core.String {
		t.Fatalf("kind=%v", k)
	}
}

func TestJSFalsyResults(t *testing.T) {
	for _, src := range []string{
		"(js 'null')",
		"(js 'undefined')",
		"(js 'false')",
	} {
		vl, n, s := evalJS(t, src, newFields())
		if !vl.Empty() || !s.IsFinished(n.Index()) {
			t.Fatalf("%s: len=%d finished=%v", src, vl.Len(), s.IsFinished(n.Index()))
		}
	}
}

func TestJSBoolTrue(t *testing.T) {
	vl, _, _ := evalJS(t, "(js '1 < 2')", newFields())
	if vl.Len() != 1 {
		t.Fatalf("len=%d", vl.Len())
	}
	if !vl.Values()[0].Equal(core.True()) {
		t.Fatalf("got %s, want canonical true", vl.Values()[0])
	}
}

func TestJSWaitsForInputs(t *testing.T) {
	f := newFields()
	f.add("x", core.NewNumber(1))

	vl, n, s := evalJS(t, "(js 'inputs[0].length' (field 'x'))", f)
	if !vl.Empty() || s.IsFinished(n.Index()) {
		t.Fatal("script should wait for its inputs to finish")
	}
}

func TestJSBadSourceFailsValidation(t *testing.T) {
	factory := Load(core.NewCallFactory())
	n := parseTree(t, factory, "(js 'this is not a program')")
	rep := core.NewReporter()
	if n.Validate(core.NewNodeReporter(rep, n)) {
		t.Fatal("unparsable script should fail validation")
	}
}
