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

// Arithmetic calls.  They consume every value of every child, so
// (add x y) sums all the numbers both inputs produce.  Integer
// arithmetic stays integer unless a float appears.

// number is an int64 that decays to float64 on contact with one.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func numeric(v core.Value) (number, error) {
	switch v.Kind() {
	case core.Number:
		i, err := v.AsNumber()
		return number{i: i}, err
	case core.Float:
		f, err := v.AsFloat()
		return number{f: f, isFloat: true}, err
	}
	return number{}, core.Einval("not a numeric value: " + v.String())
}

func (a number) value() core.Value {
	if a.isFloat {
		return core.NewFloat(a.f)
	}
	return core.NewNumber(a.i)
}

func (a number) asFloat() float64 {
	if a.isFloat {
		return a.f
	}
	return float64(a.i)
}

func (a number) add(b number) number {
	if a.isFloat || b.isFloat {
		return number{f: a.asFloat() + b.asFloat(), isFloat: true}
	}
	return number{i: a.i + b.i}
}

func (a number) mult(b number) number {
	if a.isFloat || b.isFloat {
		return number{f: a.asFloat() * b.asFloat(), isFloat: true}
	}
	return number{i: a.i * b.i}
}

func (a number) less(b number) bool {
	if a.isFloat || b.isFloat {
		return a.asFloat() < b.asFloat()
	}
	return a.i < b.i
}

// foldCall reduces all the values of all its children with a binary
// operation once every child has finished.  Commutative and
// associative, so children are kept in canonical order and all-literal
// instances fold to a literal during transformation.
type foldCall struct {
	base
	unit  *number
	apply func(a, b number) number
}

func newFold(name string, unit *number, apply func(a, b number) number) core.Generator {
	return func(string) core.Call {
		return &foldCall{base{name}, unit, apply}
	}
}

func (c *foldCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	ok := core.NOrMoreChildren(n, r, 2)
	for i, child := range n.Children() {
		if child.IsLiteral() {
			ok = core.NthChildIsNumeric(n, r, i) && ok
		}
	}
	return ok
}

func (c *foldCall) fold(vss ...[]core.Value) (core.Value, error) {
	acc := c.unit
	for _, vs := range vss {
		for _, v := range vs {
			x, err := numeric(v)
			if err != nil {
				return core.Value{}, err
			}
			if acc == nil {
				y := x
				acc = &y
				continue
			}
			y := c.apply(*acc, x)
			acc = &y
		}
	}
	if acc == nil {
		return core.False(), nil
	}
	return acc.value(), nil
}

func (c *foldCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	if allLiterals(n) {
		var vs []core.Value
		for _, child := range n.Children() {
			v, err := child.LiteralValue()
			if err != nil {
				return false, err
			}
			vs = append(vs, v)
		}
		v, err := c.fold(vs)
		if err != nil {
			return false, err
		}
		return replaceWithLiteral(n, g, v)
	}
	return transformAbelian(n, g, factory)
}

func (c *foldCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	var vss [][]core.Value
	for _, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		if !s.IsFinished(child.Index()) {
			return nil
		}
		vss = append(vss, vl.Values())
	}
	v, err := c.fold(vss...)
	if err != nil {
		return err
	}
	es := s.At(n.Index())
	if err := es.SetupLocalList(); err != nil {
		return err
	}
	if !v.IsNull() {
		if err := es.AppendToList(v); err != nil {
			return err
		}
	}
	return es.Finish()
}

// negCall negates each value of its child as the values arrive.
type negCall struct{ base }

func (c *negCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1)
}

func (c *negCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	child := n.Children()[0]
	if !child.IsLiteral() {
		return false, nil
	}
	v, err := child.LiteralValue()
	if err != nil {
		return false, err
	}
	x, err := numeric(v)
	if err != nil {
		return false, err
	}
	neg := number{i: -x.i, f: -x.f, isFloat: x.isFloat}
	return replaceWithLiteral(n, g, neg.value().Named(v.Name()))
}

func (c *negCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
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
	err = mapNew(vl, cursor, func(v core.Value) error {
		x, err := numeric(v)
		if err != nil {
			return err
		}
		neg := number{i: -x.i, f: -x.f, isFloat: x.isFloat}
		return es.AppendToList(neg.value().Named(v.Name()))
	})
	if err != nil {
		return err
	}
	if s.IsFinished(child.Index()) {
		return es.Finish()
	}
	return nil
}
