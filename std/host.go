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

// Host adapters: the calls that reach outside the DAG, into whatever
// the embedding host exposes through the EvalContext.

// fieldCall is (field 'name'): the host field's value list, aliased
// rather than copied.  The list may keep growing underneath; the node
// finishes when the host says the field is complete.
type fieldCall struct{ base }

func (c *fieldCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1) && core.NthChildIsString(n, r, 0)
}

func (c *fieldCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	if ctx == nil || ctx.Fields == nil {
		return es.FinishFalse()
	}
	name, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	if !es.IsAliased() {
		vl, have := ctx.Fields.Field(name)
		if !have {
			if ctx.Fields.FieldFinished(name) {
				return es.FinishFalse()
			}
			return nil
		}
		if err := es.Alias(vl); err != nil {
			return err
		}
	}
	if ctx.Fields.FieldFinished(name) {
		return es.Finish()
	}
	return nil
}

// operatorCall is (operator 'name' 'arg' input): the host operator
// applied to each value of input, producing the captures of the values
// that match.
type operatorCall struct{ base }

type operatorState struct {
	cursor int
	fn     core.OperatorFunc
}

func (c *operatorCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 3) &&
		core.NthChildIsString(n, r, 0) &&
		core.NthChildIsString(n, r, 1)
}

func (c *operatorCall) EvalInitialize(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	if ctx == nil || ctx.Operators == nil {
		return nil
	}
	name, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	arg, err := literalChildString(n, 1)
	if err != nil {
		return err
	}
	fn, err := ctx.Operators.Operator(name, arg)
	if err != nil {
		return err
	}
	s.At(n.Index()).SetState(&operatorState{fn: fn})
	return nil
}

func (c *operatorCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	st, _ := es.State().(*operatorState)
	if st == nil {
		// No operator source in this context.
		return es.FinishFalse()
	}
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	child := n.Children()[2]
	vl, err := s.Eval(child, ctx)
	if err != nil {
		return err
	}
	err = mapNew(vl, &st.cursor, func(v core.Value) error {
		out, matched, err := st.fn(ctx, v)
		if err != nil {
			return err
		}
		if matched {
			return es.AppendToList(out)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.IsFinished(child.Index()) {
		return es.Finish()
	}
	return nil
}

// transformationCall is (transformation 'name' input): the host
// transformation mapped over every value of input.
type transformationCall struct{ base }

type transformationState struct {
	cursor int
	fn     core.TransformationFunc
}

func (c *transformationCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 2) && core.NthChildIsString(n, r, 0)
}

func (c *transformationCall) EvalInitialize(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	if ctx == nil || ctx.Transformations == nil {
		return nil
	}
	name, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	fn, err := ctx.Transformations.Transformation(name)
	if err != nil {
		return err
	}
	s.At(n.Index()).SetState(&transformationState{fn: fn})
	return nil
}

func (c *transformationCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	st, _ := es.State().(*transformationState)
	if st == nil {
		return es.FinishFalse()
	}
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	child := n.Children()[1]
	vl, err := s.Eval(child, ctx)
	if err != nil {
		return err
	}
	err = mapNew(vl, &st.cursor, func(v core.Value) error {
		out, err := st.fn(v)
		if err != nil {
			return err
		}
		return es.AppendToList(out)
	})
	if err != nil {
		return err
	}
	if s.IsFinished(child.Index()) {
		return es.Finish()
	}
	return nil
}
