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
	"regexp"
	"strings"

	"github.com/Comcast/predicate/core"
)

// Comparison calls: (eq 'fieldname' value) and friends.  The first
// child names a host field; the node's values are the field's values
// that satisfy the comparison, so the node is truthy exactly when some
// field value matches.  Values are tested as they arrive, and the node
// finishes when the host says the field is complete.

type compareCall struct {
	base
	match func(v, against core.Value) (bool, error)
}

func newCompare(name string, match func(v, against core.Value) (bool, error)) core.Generator {
	return func(string) core.Call {
		return &compareCall{base{name}, match}
	}
}

func compareMatch(want func(int) bool) func(v, against core.Value) (bool, error) {
	return func(v, against core.Value) (bool, error) {
		c, err := v.Compare(against)
		if err != nil {
			// Incomparable kinds fail the test rather than the
			// evaluation: fields carry whatever the host sends.
			return false, nil
		}
		return want(c), nil
	}
}

func (c *compareCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 2) &&
		core.NthChildIsString(n, r, 0) &&
		core.NthChildIsLiteral(n, r, 1)
}

func (c *compareCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	if ctx == nil || ctx.Fields == nil {
		return es.FinishFalse()
	}
	name, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	against, err := literalChildValue(n, 1)
	if err != nil {
		return err
	}
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	vl, _ := ctx.Fields.Field(name)
	cursor, _ := es.State().(*int)
	if cursor == nil {
		cursor = new(int)
		es.SetState(cursor)
	}
	err = mapNew(vl, cursor, func(v core.Value) error {
		hit, err := c.match(v, against)
		if err != nil {
			return err
		}
		if hit {
			return es.AppendToList(v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if ctx.Fields.FieldFinished(name) {
		return es.Finish()
	}
	return nil
}

// Name filters: (named 'foo' input) passes through the values of input
// whose name matches.  named is exact, namedi case-blind, namedRx a
// regular expression compiled once per evaluation context.

type namedCall struct {
	base
	compile func(pattern string) (func(string) bool, error)
}

func newNamed(name string, compile func(pattern string) (func(string) bool, error)) core.Generator {
	return func(string) core.Call {
		return &namedCall{base{name}, compile}
	}
}

type namedState struct {
	cursor int
	match  func(string) bool
}

func (c *namedCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	ok := core.NChildren(n, r, 2) && core.NthChildIsString(n, r, 0)
	if ok && c.name == "namedRx" {
		pattern, err := literalChildString(n, 0)
		if err == nil {
			if _, err = regexp.Compile(pattern); err != nil {
				r.Error("bad regexp: " + err.Error())
				ok = false
			}
		}
	}
	return ok
}

func (c *namedCall) EvalInitialize(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	pattern, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	match, err := c.compile(pattern)
	if err != nil {
		return err
	}
	s.At(n.Index()).SetState(&namedState{match: match})
	return nil
}

func (c *namedCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	es := s.At(n.Index())
	st, _ := es.State().(*namedState)
	if st == nil {
		return &core.EvalStateError{What: c.name + " calculated without initialization"}
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
		if st.match(v.Name()) {
			return es.AppendToList(v)
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

func namedExact(pattern string) (func(string) bool, error) {
	return func(name string) bool {
		return name == pattern
	}, nil
}

func namedFold(pattern string) (func(string) bool, error) {
	return func(name string) bool {
		return strings.EqualFold(name, pattern)
	}, nil
}

func namedRx(pattern string) (func(string) bool, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return rx.MatchString, nil
}
