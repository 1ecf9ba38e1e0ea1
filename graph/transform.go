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

package graph

import (
	"fmt"

	"github.com/Comcast/predicate/core"
)

// DefaultTransformLimit is how many full transform rounds
// TransformToFixpoint will run before deciding the graph diverges.
// Real rule sets converge in a handful of rounds.
const DefaultTransformLimit = 10

// DivergenceError says the graph was still changing when the round
// limit ran out.  Distinct from converging with validation errors,
// which is reported through the Reporter.
type DivergenceError struct {
	Rounds int
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("transformation did not converge after %d rounds", e.Rounds)
}

// ValidationKind selects which validation pass to run.
type ValidationKind int

const (
	// PreTransform checks what must hold before any rewriting: arity,
	// literal-argument types.
	PreTransform ValidationKind = iota
	// PostTransform additionally checks what must hold of the final
	// graph, such as templates having been expanded away.
	PostTransform
)

// EachNode visits every node of every live root exactly once,
// top-down.
func (g *MergeGraph) EachNode(visit func(*core.Node) error) error {
	return g.eachNode(visit)
}

func (g *MergeGraph) eachNode(visit func(*core.Node) error) error {
	visited := make(map[*core.Node]bool)
	for _, root := range g.roots {
		if root == nil {
			continue
		}
		if err := core.BFSDown(root, visited, visit); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs one validation pass over the whole graph, accumulating
// problems in rep, and reports whether no errors were found.
func (g *MergeGraph) Validate(kind ValidationKind, rep *core.Reporter) (bool, error) {
	before := rep.NumErrors()
	err := g.eachNode(func(n *core.Node) error {
		nr := core.NewNodeReporter(rep, n)
		n.Validate(nr)
		if kind == PostTransform {
			n.PostTransform(nr)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return rep.NumErrors() == before, nil
}

// TransformRound runs every node's transform hook once, bottom-up, and
// reports whether anything changed.  Rewrites during the walk can
// remove nodes collected earlier, so each node is checked to still be
// in the graph before its hook runs.
func (g *MergeGraph) TransformRound(factory *core.CallFactory, rep *core.Reporter) (bool, error) {
	var order []*core.Node
	err := g.eachNode(func(n *core.Node) error {
		order = append(order, n)
		return nil
	})
	if err != nil {
		return false, err
	}

	changed := false
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		if n.IsLiteral() {
			continue
		}
		if g.Known(n) != n {
			continue
		}
		c, err := n.Transform(g, factory, core.NewNodeReporter(rep, n))
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// TransformToFixpoint runs transform rounds until a round changes
// nothing.  limit <= 0 means DefaultTransformLimit.  If the limit is
// reached while the graph is still changing, the result is a
// DivergenceError.
func (g *MergeGraph) TransformToFixpoint(factory *core.CallFactory, rep *core.Reporter, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultTransformLimit
	}
	for round := 1; round <= limit; round++ {
		changed, err := g.TransformRound(factory, rep)
		if err != nil {
			return round, err
		}
		if !changed {
			return round, nil
		}
	}
	return limit, &DivergenceError{Rounds: limit}
}

// AssignIndices gives every node in the graph its evaluation index and
// returns the index limit.  Call once, after the last transformation.
func (g *MergeGraph) AssignIndices() (int, error) {
	live := make([]*core.Node, 0, len(g.roots))
	for _, r := range g.roots {
		if r != nil {
			live = append(live, r)
		}
	}
	return core.AssignIndices(live)
}
