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

import "github.com/Comcast/predicate/core"

// Value-list plumbing.  These calls are all incremental: values flow
// through as children produce them, across however many phases the
// evaluation spans.

// catCall concatenates the values of all its children.  Values are
// appended as they arrive, so the interleaving across children follows
// evaluation order, but each child's own values keep their order.
type catCall struct{ base }

func (c *catCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NOrMoreChildren(n, r, 1)
}

func (c *catCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	cursors, _ := es.State().([]int)
	if cursors == nil {
		cursors = make([]int, len(n.Children()))
		es.SetState(cursors)
	}
	allFinished := true
	for i, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		err = mapNew(vl, &cursors[i], es.AppendToList)
		if err != nil {
			return err
		}
		if !s.IsFinished(child.Index()) {
			allFinished = false
		}
	}
	if allFinished {
		return es.Finish()
	}
	return nil
}

// firstCall produces its child's first value and finishes.  The first
// value never changes once produced, so the node can finish before the
// child does.
type firstCall struct{ base }

func (c *firstCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1)
}

func (c *firstCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	child := n.Children()[0]
	vl, err := s.Eval(child, ctx)
	if err != nil {
		return err
	}
	vs := vl.Values()
	es := s.At(n.Index())
	if len(vs) > 0 {
		if err := es.SetupLocalList(); err != nil {
			return err
		}
		if err := es.AppendToList(vs[0]); err != nil {
			return err
		}
		return es.Finish()
	}
	if s.IsFinished(child.Index()) {
		return es.FinishFalse()
	}
	return nil
}

// restCall produces every value of its child but the first.
type restCall struct{ base }

func (c *restCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1)
}

func (c *restCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	child := n.Children()[0]
	vl, err := s.Eval(child, ctx)
	if err != nil {
		return err
	}
	cursor, _ := es.State().(*int)
	if cursor == nil {
		cursor = new(int)
		es.SetState(cursor)
	}
	vs := vl.Values()
	if *cursor == 0 && len(vs) > 0 {
		*cursor = 1
	}
	for ; *cursor < len(vs); *cursor++ {
		if err := es.AppendToList(vs[*cursor]); err != nil {
			return err
		}
	}
	if s.IsFinished(child.Index()) {
		return es.Finish()
	}
	return nil
}

// setNameCall is (setName 'name' input): every value of input,
// renamed.
type setNameCall struct{ base }

func (c *setNameCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 2) && core.NthChildIsString(n, r, 0)
}

func (c *setNameCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	name, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	es := s.At(n.Index())
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	child := n.Children()[1]
	vl, err := s.Eval(child, ctx)
	if err != nil {
		return err
	}
	cursor, _ := es.State().(*int)
	if cursor == nil {
		cursor = new(int)
		es.SetState(cursor)
	}
	err = mapNew(vl, cursor, func(v core.Value) error {
		return es.AppendToList(v.Named(name))
	})
	if err != nil {
		return err
	}
	if s.IsFinished(child.Index()) {
		return es.Finish()
	}
	return nil
}
