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
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/Comcast/predicate/core"
)

// jsCall is (js 'source' input...): an escape hatch for predicates the
// standard calls cannot express.  The source is ECMAScript; it sees
// the finished values of the inputs as the variable "inputs" (an array
// of arrays) and its completion value becomes the node's values: an
// array yields one value per element, anything else a single value,
// with null, undefined, and false yielding none.
//
// The script runs once, after every input has finished, so scripted
// nodes give up incrementality in exchange for generality.
type jsCall struct{ base }

type jsState struct {
	prog *goja.Program
}

func (c *jsCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	ok := core.NOrMoreChildren(n, r, 1) && core.NthChildIsString(n, r, 0)
	if ok {
		src, err := literalChildString(n, 0)
		if err == nil {
			if _, err = goja.Compile("", src, true); err != nil {
				r.Error("bad script: " + err.Error())
				ok = false
			}
		}
	}
	return ok
}

func (c *jsCall) EvalInitialize(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	src, err := literalChildString(n, 0)
	if err != nil {
		return err
	}
	prog, err := goja.Compile("", src, true)
	if err != nil {
		return err
	}
	s.At(n.Index()).SetState(&jsState{prog: prog})
	return nil
}

func (c *jsCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	inputs := n.Children()[1:]
	natives := make([]interface{}, 0, len(inputs))
	for _, child := range inputs {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		if !s.IsFinished(child.Index()) {
			return nil
		}
		vs := vl.Values()
		ns := make([]interface{}, 0, len(vs))
		for _, v := range vs {
			ns = append(ns, valueToNative(v))
		}
		natives = append(natives, ns)
	}

	es := s.At(n.Index())
	st, _ := es.State().(*jsState)
	if st == nil {
		return &core.EvalStateError{What: "js calculated without initialization"}
	}

	vm := goja.New()
	if err := vm.Set("inputs", natives); err != nil {
		return err
	}
	got, err := vm.RunProgram(st.prog)
	if err != nil {
		return err
	}

	if err := es.SetupLocalList(); err != nil {
		return err
	}
	if got != nil && !goja.IsUndefined(got) && !goja.IsNull(got) {
		vs, err := nativeToValues(got.Export())
		if err != nil {
			return err
		}
		for _, v := range vs {
			if err := es.AppendToList(v); err != nil {
				return err
			}
		}
	}
	return es.Finish()
}

func valueToNative(v core.Value) interface{} {
	switch v.Kind() {
	case core.Number:
		n, _ := v.AsNumber()
		return n
	case core.Float:
		f, _ := v.AsFloat()
		return f
	case core.String:
		bs, _ := v.AsString()
		return string(bs)
	case core.List:
		l, _ := v.AsList()
		vs := l.Values()
		ns := make([]interface{}, 0, len(vs))
		for _, e := range vs {
			ns = append(ns, valueToNative(e))
		}
		return ns
	}
	return nil
}

func nativeToValues(x interface{}) ([]core.Value, error) {
	if xs, is := x.([]interface{}); is {
		vs := make([]core.Value, 0, len(xs))
		for _, e := range xs {
			v, err := nativeToValue(e)
			if err != nil {
				return nil, err
			}
			vs = append(vs, v)
		}
		return vs, nil
	}
	v, err := nativeToValue(x)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	return []core.Value{v}, nil
}

func nativeToValue(x interface{}) (core.Value, error) {
	switch x := x.(type) {
	case nil:
		return core.False(), nil
	case bool:
		if x {
			return core.True(), nil
		}
		return core.False(), nil
	case int64:
		return core.NewNumber(x), nil
	case float64:
		return core.NewFloat(x), nil
	case string:
		return core.NewString(x), nil
	case []interface{}:
		l := core.NewValueList()
		for _, e := range x {
			v, err := nativeToValue(e)
			if err != nil {
				return core.Value{}, err
			}
			l.Append(v)
		}
		return core.NewList(l), nil
	case map[string]interface{}:
		// A map becomes a list of named values, in key order.
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		l := core.NewValueList()
		for _, k := range keys {
			v, err := nativeToValue(x[k])
			if err != nil {
				return core.Value{}, err
			}
			l.Append(v.Named(k))
		}
		return core.NewList(l), nil
	}
	return core.Value{}, core.Einval(fmt.Sprintf("script returned unsupported %T", x))
}
