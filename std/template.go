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

// Templates are user-defined macros: (mytemplate a b) expands, during
// transformation, into a copy of the template body with each
// (ref 'argname') replaced by the corresponding argument expression.
// Neither a template call nor a ref may survive to evaluation.

// refCall is (ref 'name'), only meaningful inside a template body.
type refCall struct{ base }

func (c *refCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1) && core.NthChildIsString(n, r, 0)
}

func (c *refCall) PostTransform(n *core.Node, r *core.NodeReporter) {
	r.Error("ref remains after transformation; missing or misspelled template argument")
}

func (c *refCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return &core.EvalStateError{What: "ref evaluated; graph was not transformed"}
}

// templateCall carries a template's argument names and body.  Each
// node gets its own instance, but args and body are shared: the body
// is never mutated, only copied during expansion.
type templateCall struct {
	base
	args []string
	body *core.Node
}

// DefineTemplate makes a generator for a template call.  The body is
// an ordinary expression tree owned by the definition; expansion deep
// copies it, so the same definition serves any number of call sites.
func DefineTemplate(name string, args []string, body *core.Node) core.Generator {
	return func(string) core.Call {
		return &templateCall{base{name}, args, body}
	}
}

func (c *templateCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, len(c.args))
}

func (c *templateCall) PostTransform(n *core.Node, r *core.NodeReporter) {
	r.Error("template call remains after transformation")
}

func (c *templateCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	bindings := make(map[string]*core.Node, len(c.args))
	kids := n.Children()
	if len(kids) != len(c.args) {
		// Validation reports this; leave the node alone.
		return false, nil
	}
	for i, arg := range c.args {
		bindings[arg] = kids[i]
	}
	expansion, err := expandTemplate(c.body, bindings, factory)
	if err != nil {
		return false, err
	}
	return true, g.Replace(n, expansion)
}

func (c *templateCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return &core.EvalStateError{What: "template evaluated; graph was not transformed"}
}

// expandTemplate copies body, splicing bound argument expressions in
// place of their refs.  Bound nodes are shared, not copied: an
// argument used twice in the body becomes one node with two parents.
func expandTemplate(body *core.Node, bindings map[string]*core.Node, factory *core.CallFactory) (*core.Node, error) {
	if body.IsLiteral() {
		v, err := body.LiteralValue()
		if err != nil {
			return nil, err
		}
		return core.NewLiteral(v), nil
	}
	if name, is := refName(body); is {
		if bound, have := bindings[name]; have {
			return bound, nil
		}
		// Unresolved ref: copy it through; post-transform validation
		// reports it.
	}
	cp, err := factory.New(body.Name())
	if err != nil {
		return nil, err
	}
	for _, child := range body.Children() {
		cc, err := expandTemplate(child, bindings, factory)
		if err != nil {
			return nil, err
		}
		if err := cp.AddChild(cc); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

func refName(n *core.Node) (string, bool) {
	if n.Name() != "ref" || len(n.Children()) != 1 {
		return "", false
	}
	v, err := n.Children()[0].LiteralValue()
	if err != nil {
		return "", false
	}
	bs, err := v.AsString()
	if err != nil {
		return "", false
	}
	return string(bs), true
}
