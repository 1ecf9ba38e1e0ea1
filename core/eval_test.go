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

import "testing"

// countCall counts its calculations, optionally finishing true after
// some number of them.
type countCall struct {
	name        string
	calcs       int
	finishAfter int
}

func (c *countCall) Name() string {
	return c.name
}

func (c *countCall) EvalCalculate(n *Node, s *GraphEvalState, ctx *EvalContext) error {
	c.calcs++
	if c.finishAfter > 0 && c.calcs >= c.finishAfter {
		return s.At(n.Index()).FinishTrue()
	}
	return nil
}

func TestEvalStateProtocol(t *testing.T) {
	var s NodeEvalState

	if err := s.AppendToList(NewNumber(1)); err == nil {
		t.Fatal("append before setup should fail")
	}
	if err := s.SetupLocalList(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetupLocalList(); err != nil {
		t.Fatal("second setup should be a no-op")
	}
	if err := s.AppendToList(NewNumber(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Forward(NewLiteral(NewNumber(2))); err == nil {
		t.Fatal("forward with local values should fail")
	}
	if err := s.Alias(NewValueList()); err == nil {
		t.Fatal("alias on a local node should fail")
	}
	if err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(); err == nil {
		t.Fatal("double finish should fail")
	}
	if err := s.AppendToList(NewNumber(3)); err == nil {
		t.Fatal("append after finish should fail")
	}
	if !s.IsFinished() || s.Values().Len() != 1 {
		t.Fatalf("finished=%v len=%d", s.IsFinished(), s.Values().Len())
	}
}

func TestEvalStateForwardAlias(t *testing.T) {
	var s NodeEvalState
	other := NewLiteral(NewNumber(1))
	if err := s.Forward(other); err != nil {
		t.Fatal(err)
	}
	if err := s.Forward(other); err == nil {
		t.Fatal("double forward should fail")
	}
	if err := s.SetupLocalList(); err == nil {
		t.Fatal("setup on forwarded should fail")
	}
	if err := s.Finish(); err == nil {
		t.Fatal("finish on forwarded should fail")
	}

	var a NodeEvalState
	l := NewValueList()
	if err := a.Alias(l); err != nil {
		t.Fatal(err)
	}
	l.Append(NewNumber(7))
	if a.Values().Len() != 1 {
		t.Fatal("aliased list should show external growth")
	}
	if err := a.Finish(); err != nil {
		t.Fatal("aliased nodes finish themselves")
	}
}

func TestEvalLiteral(t *testing.T) {
	n := NewLiteral(NewNumber(5))
	limit, err := AssignIndices([]*Node{n})
	if err != nil || limit != 1 {
		t.Fatalf("%d %v", limit, err)
	}
	s := NewGraphEvalState(limit)
	vl, err := s.Eval(n, nil)
	if err != nil {
		t.Fatal(err)
	}
	if vl.Len() != 1 || !s.IsFinished(n.Index()) {
		t.Fatalf("len=%d finished=%v", vl.Len(), s.IsFinished(n.Index()))
	}

	null := NewLiteral(Value{})
	limit, err = AssignIndices([]*Node{null})
	if err != nil {
		t.Fatal(err)
	}
	s = NewGraphEvalState(limit)
	vl, err = s.Eval(null, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !vl.Empty() || !s.IsFinished(null.Index()) {
		t.Fatal("null literal should finish empty")
	}
}

func TestEvalPhaseMemoization(t *testing.T) {
	call := &countCall{name: "count"}
	n := NewCall(call)
	limit, err := AssignIndices([]*Node{n})
	if err != nil {
		t.Fatal(err)
	}
	s := NewGraphEvalState(limit)

	ctx := &EvalContext{Phase: PhaseRequestHeader}
	for i := 0; i < 3; i++ {
		if _, err := s.Eval(n, ctx); err != nil {
			t.Fatal(err)
		}
	}
	if call.calcs != 1 {
		t.Fatalf("one calculation per phase, got %d", call.calcs)
	}

	ctx.Phase = PhaseRequestBody
	if _, err := s.Eval(n, ctx); err != nil {
		t.Fatal(err)
	}
	if call.calcs != 2 {
		t.Fatalf("new phase should recalculate, got %d", call.calcs)
	}

	// PhaseNone always recalculates.
	none := &EvalContext{}
	for i := 0; i < 2; i++ {
		if _, err := s.Eval(n, none); err != nil {
			t.Fatal(err)
		}
	}
	if call.calcs != 4 {
		t.Fatalf("PhaseNone should always recalculate, got %d", call.calcs)
	}
}

func TestEvalFinishStops(t *testing.T) {
	call := &countCall{name: "count", finishAfter: 2}
	n := NewCall(call)
	limit, err := AssignIndices([]*Node{n})
	if err != nil {
		t.Fatal(err)
	}
	s := NewGraphEvalState(limit)

	phases := []Phase{PhaseConnect, PhaseRequestHeader, PhaseRequestBody, PhasePostProcess}
	for _, p := range phases {
		if _, err := s.Eval(n, &EvalContext{Phase: p}); err != nil {
			t.Fatal(err)
		}
	}
	if call.calcs != 2 {
		t.Fatalf("finished nodes must not recalculate; calcs = %d", call.calcs)
	}
	if !s.IsFinished(n.Index()) || !s.Truthy(n.Index()) {
		t.Fatal("should have finished true")
	}
}

func TestEvalForwardingChain(t *testing.T) {
	a := NewCall(&countCall{name: "a"})
	b := NewCall(&countCall{name: "b"})
	c := NewLiteral(NewNumber(9))
	limit, err := AssignIndices([]*Node{a, b, c})
	if err != nil || limit != 3 {
		t.Fatalf("%d %v", limit, err)
	}
	s := NewGraphEvalState(limit)

	if _, err := s.Eval(c, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.At(b.Index()).Forward(c); err != nil {
		t.Fatal(err)
	}
	if err := s.At(a.Index()).Forward(b); err != nil {
		t.Fatal(err)
	}

	if got := s.Final(a.Index()); got != s.At(c.Index()) {
		t.Fatal("Final should resolve the whole chain")
	}
	if s.Size(a.Index()) != 1 || !s.IsFinished(a.Index()) {
		t.Fatal("queries should follow forwarding")
	}

	// Eval on a forwarded node must not calculate it.
	vl, err := s.Eval(a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if vl.Len() != 1 {
		t.Fatal(vl.Len())
	}
	if ac := a.Call().(*countCall); ac.calcs != 0 {
		t.Fatalf("forwarded node calculated %d times", ac.calcs)
	}
}

func TestInitializeAll(t *testing.T) {
	root := NewCall(&countCall{name: "root"})
	lit := NewLiteral(NewString("x"))
	if err := root.AddChild(lit); err != nil {
		t.Fatal(err)
	}
	limit, err := AssignIndices([]*Node{root})
	if err != nil || limit != 2 {
		t.Fatalf("%d %v", limit, err)
	}
	s := NewGraphEvalState(limit)
	if err := InitializeAll([]*Node{root}, s, nil); err != nil {
		t.Fatal(err)
	}
	if !s.IsFinished(lit.Index()) {
		t.Fatal("literals finish at initialization")
	}
}
