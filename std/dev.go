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
	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/util"
)

// Development aids.

// pCall is (p expr...): logs its children's current values each time
// it is calculated and forwards to the last child, so it can be
// dropped into any expression without changing its meaning.
type pCall struct{ base }

func (c *pCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NOrMoreChildren(n, r, 1)
}

func (c *pCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	for _, child := range n.Children() {
		vl, err := s.Eval(child, ctx)
		if err != nil {
			return err
		}
		util.Logf("p %s = %v (finished=%v)", child.SExpr(), vl.Values(), s.IsFinished(child.Index()))
	}
	last := n.Children()[len(n.Children())-1]
	return s.At(n.Index()).Forward(last)
}

// identityCall is (identity expr): expr.  Transforms away; if
// evaluated before that happens, forwards.
type identityCall struct{ base }

func (c *identityCall) Validate(n *core.Node, r *core.NodeReporter) bool {
	return core.NChildren(n, r, 1)
}

func (c *identityCall) Transform(n *core.Node, g core.Grapher, factory *core.CallFactory, r *core.NodeReporter) (bool, error) {
	return true, g.Replace(n, n.Children()[0])
}

func (c *identityCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	return s.At(n.Index()).Forward(n.Children()[0])
}
