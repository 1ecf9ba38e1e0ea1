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

// The boolean calls.  Truth is a non-empty value list, and it is
// monotone: a child that is truthy now stays truthy, so a disjunction
// can finish true the moment any child produces a value.  A
// conjunction has no such early exit on the true side; it waits for
// every child to finish.

// trueCall always finishes truthy, and folds to the literal '' during
// transformation.
type trueCall struct{ base }

func (c *trueCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NoChildren(n, r)
}

func (c *trueCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	return replaceWithLiteral(n, g, core.True())
}

func (c *trueCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return s.At(n.Index()).FinishTrue()
}

// falseCall always finishes falsy, and folds to the null literal.
type falseCall struct{ base }

func (c *falseCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NoChildren(n, r)
}

func (c *falseCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	return replaceWithLiteral(n, g, core.False())
}

func (c *falseCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return s.At(n.Index()).FinishFalse()
}

// transformBooleanFold folds literal children of an and/or style call.
// A dominating literal (truthy for or, falsy for and) replaces the
// whole call; neutral literals are dropped.  A lone surviving
// non-literal child replaces the call outright, dropped literals or
// not.
func transformBooleanFold(n *core.Node, g core.Grapher, factory *core.CallFactory, shortOnTruthy bool) (bool, error) {
	var kept []*core.Node
	dropped := false
	for _, c := range n.Children() {
		if c.IsLiteral() {
			v, err := c.LiteralValue()
			if err != nil {
				return false, err
			}
			if v.Truthy() == shortOnTruthy {
				if shortOnTruthy {
					return replaceWithLiteral(n, g, core.True())
				}
				return replaceWithLiteral(n, g, core.False())
			}
			dropped = true
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 1 {
		return true, g.Replace(n, kept[0])
	}
	if !dropped {
		return false, nil
	}
	if len(kept) == 0 {
		// Nothing but neutral literals: or of falses, and of trues.
		if shortOnTruthy {
			return replaceWithLiteral(n, g, core.False())
		}
		return replaceWithLiteral(n, g, core.True())
	}
	return replaceWithCall(n, g, factory, n.Name(), kept)
}

// orCall finishes true as soon as any child is truthy and false once
// every child has finished falsy.  Commutative: children are kept in
// canonical order.
type orCall struct{ base }

func (c *orCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NOrMoreChildren(n, r, 2)
}

func (c *orCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	if changed, err := transformBooleanFold(n, g, factory, true); changed || err != nil {
		return changed, err
	}
	return transformAbelian(n, g, factory)
}

func (c *orCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	allFinished := true
	for _, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		if !vl.Empty() {
			return s.At(n.Index()).FinishTrue()
		}
		if !s.IsFinished(child.Index()) {
			allFinished = false
		}
	}
	if allFinished {
		return s.At(n.Index()).FinishFalse()
	}
	return nil
}

// andCall finishes false as soon as any child finishes falsy, and true
// only once every child has finished truthy.  Commutative.
type andCall struct{ base }

func (c *andCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NOrMoreChildren(n, r, 2)
}

func (c *andCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	if changed, err := transformBooleanFold(n, g, factory, false); changed || err != nil {
		return changed, err
	}
	return transformAbelian(n, g, factory)
}

func (c *andCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	allFinished := true
	for _, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		if vl.Empty() && s.IsFinished(child.Index()) {
			return s.At(n.Index()).FinishFalse()
		}
		if !s.IsFinished(child.Index()) {
			allFinished = false
		}
	}
	if allFinished {
		return s.At(n.Index()).FinishTrue()
	}
	return nil
}

// notCall inverts its single child.
type notCall struct{ base }

func (c *notCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1)
}

func (c *notCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	child := n.Children()[0]
	if !child.IsLiteral() {
		return false, nil
	}
	v, err := child.LiteralValue()
	if err != nil {
		return false, err
	}
	if v.Truthy() {
		return replaceWithLiteral(n, g, core.False())
	}
	return replaceWithLiteral(n, g, core.True())
}

func (c *notCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	child := n.Children()[0]
	vl, err := s.Eval(child, ctx)
	if err != nil {
		return err
	}
	if !vl.Empty() {
		return s.At(n.Index()).FinishFalse()
	}
	if s.IsFinished(child.Index()) {
		return s.At(n.Index()).FinishTrue()
	}
	return nil
}

// ifCall is (if pred then else).  Once the predicate decides, the node
// forwards to the chosen branch, so later queries cost nothing.
type ifCall struct{ base }

func (c *ifCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 3)
}

func (c *ifCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	pred := n.Children()[0]
	if !pred.IsLiteral() {
		return false, nil
	}
	v, err := pred.LiteralValue()
	if err != nil {
		return false, err
	}
	if v.Truthy() {
		return true, g.Replace(n, n.Children()[1])
	}
	return true, g.Replace(n, n.Children()[2])
}

func (c *ifCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	pred := n.Children()[0]
	vl, err := s.Eval(pred, ctx)
	if err != nil {
		return err
	}
	if !vl.Empty() {
		return s.At(n.Index()).Forward(n.Children()[1])
	}
	if s.IsFinished(pred.Index()) {
		return s.At(n.Index()).Forward(n.Children()[2])
	}
	return nil
}

// orSCCall is or with left-to-right evaluation: a child is not
// evaluated until every earlier child has finished falsy.  Not
// commutative, so no canonical reordering.
type orSCCall struct{ base }

func (c *orSCCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NOrMoreChildren(n, r, 2)
}

func (c *orSCCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	return transformBooleanFold(n, g, factory, true)
}

func (c *orSCCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	for _, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		if !vl.Empty() {
			return s.At(n.Index()).FinishTrue()
		}
		if !s.IsFinished(child.Index()) {
			return nil
		}
	}
	return s.At(n.Index()).FinishFalse()
}

// andSCCall is and with left-to-right evaluation: a child is not
// evaluated until every earlier child is truthy, and a falsy finished
// child stops evaluation of the rest for good.
type andSCCall struct{ base }

func (c *andSCCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NOrMoreChildren(n, r, 2)
}

func (c *andSCCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	return transformBooleanFold(n, g, factory, false)
}

func (c *andSCCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	for _, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		if vl.Empty() {
			if s.IsFinished(child.Index()) {
				return s.At(n.Index()).FinishFalse()
			}
			return nil
		}
	}
	return s.At(n.Index()).FinishTrue()
}
