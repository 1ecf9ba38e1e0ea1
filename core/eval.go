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

import "time"

// Phase names a stage of the host inspection pipeline.  A node is
// calculated at most once per phase per evaluation context; PhaseNone
// (used by pure-literal evaluation and tools) always recalculates.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseConnect
	PhaseRequestHeader
	PhaseRequestBody
	PhaseResponseHeader
	PhaseResponseBody
	PhasePostProcess
)

var phaseNames = map[Phase]string{
	PhaseNone:           "none",
	PhaseConnect:        "connect",
	PhaseRequestHeader:  "request-header",
	PhaseRequestBody:    "request-body",
	PhaseResponseHeader: "response-header",
	PhaseResponseBody:   "response-body",
	PhasePostProcess:    "post-process",
}

func (p Phase) String() string {
	if s, have := phaseNames[p]; have {
		return s
	}
	return "unknown"
}

// PhaseNamed resolves a phase name as used in rule-set files.
func PhaseNamed(name string) (Phase, bool) {
	for p, s := range phaseNames {
		if s == name {
			return p, true
		}
	}
	return PhaseNone, false
}

// Phases lists the real phases in pipeline order.
func Phases() []Phase {
	return []Phase{
		PhaseConnect,
		PhaseRequestHeader,
		PhaseRequestBody,
		PhaseResponseHeader,
		PhaseResponseBody,
		PhasePostProcess,
	}
}

// FieldSource projects host inspection data as named value lists.  A
// field's list may grow between phases; FieldFinished reports when the
// host knows no more values will arrive for this context.
type FieldSource interface {
	Field(name string) (*ValueList, bool)
	FieldFinished(name string) bool
}

// OperatorFunc applies a host operator to one value, returning the
// capture (or the input) and whether the value matched.
type OperatorFunc func(ctx *EvalContext, v Value) (Value, bool, error)

// OperatorSource resolves host operators by name and static argument.
type OperatorSource interface {
	Operator(name, arg string) (OperatorFunc, error)
}

// TransformationFunc maps one value to another.
type TransformationFunc func(v Value) (Value, error)

// TransformationSource resolves host transformations by name.
type TransformationSource interface {
	Transformation(name string) (TransformationFunc, error)
}

// EvalContext is what the host supplies for one evaluation of the DAG
// during one transaction.  The same context value is passed to every
// call; only Phase changes between invocations.
type EvalContext struct {
	Phase           Phase
	Fields          FieldSource
	Operators       OperatorSource
	Transformations TransformationSource
}

// ContextPhase is a nil-safe ctx.Phase.
func ContextPhase(ctx *EvalContext) Phase {
	if ctx == nil {
		return PhaseNone
	}
	return ctx.Phase
}

// Binding is how a node's evaluation state holds its values.
type Binding int

const (
	// Unbound: no values yet and no mode chosen.
	Unbound Binding = iota
	// BoundLocal: the node owns a growable local list.
	BoundLocal
	// BoundForwarded: all queries redirect to another node.
	BoundForwarded
	// BoundAliased: the node exposes an externally-owned list.
	BoundAliased
)

// NodeEvalState is the per-context evaluation state of a single node.
//
// A call chooses exactly one way to produce values:
//
//  1. Local: SetupLocalList once, AppendToList any number of times,
//     then Finish.
//  2. Forward: Forward(other) once, before any values and before
//     finishing; every later query redirects to other.
//  3. Alias: Alias(list) once, taking a read-only view of a list owned
//     elsewhere; the node still finishes itself when the list is known
//     to be complete.
//
// Mixing modes, mutating after Finish, or appending before setup are
// protocol errors, reported loudly rather than tolerated.
type NodeEvalState struct {
	binding     Binding
	forward     *Node
	values      *ValueList
	finished    bool
	lastPhase   Phase
	initialized bool

	// Call-specific scratch, established in EvalInitialize.
	state interface{}
}

// Binding returns the state's binding mode.
func (s *NodeEvalState) Binding() Binding {
	return s.binding
}

// IsFinished reports whether the node has finished.  Not meaningful if
// forwarding; see GraphEvalState.IsFinished.
func (s *NodeEvalState) IsFinished() bool {
	return s.finished
}

// IsForwarding reports whether the node forwards to another node.
func (s *NodeEvalState) IsForwarding() bool {
	return s.binding == BoundForwarded
}

// IsAliased reports whether the node aliases an external list.
func (s *NodeEvalState) IsAliased() bool {
	return s.binding == BoundAliased
}

// ForwardedTo returns the forwarding target, nil if none.
func (s *NodeEvalState) ForwardedTo() *Node {
	return s.forward
}

// LastPhase returns the phase of the most recent calculation.
func (s *NodeEvalState) LastPhase() Phase {
	return s.lastPhase
}

// Values returns the node's current value list, which may be nil.
// Not meaningful if forwarding; see GraphEvalState.Values.
func (s *NodeEvalState) Values() *ValueList {
	return s.values
}

// State returns the call-specific scratch value.
func (s *NodeEvalState) State() interface{} {
	return s.state
}

// SetState stores call-specific scratch, usually from EvalInitialize.
func (s *NodeEvalState) SetState(x interface{}) {
	s.state = x
}

// SetupLocalList binds the node to an owned local value list.  Calling
// again is a no-op; calling on a forwarded or aliased node is an
// error.
func (s *NodeEvalState) SetupLocalList() error {
	switch s.binding {
	case BoundForwarded:
		return &EvalStateError{"cannot set up local values on a forwarded node"}
	case BoundAliased:
		return &EvalStateError{"cannot set up local values on an aliased node"}
	case BoundLocal:
		return nil
	}
	s.binding = BoundLocal
	s.values = NewValueList()
	return nil
}

// AppendToList adds a value to the local list.
func (s *NodeEvalState) AppendToList(v Value) error {
	if s.binding == BoundForwarded {
		return &EvalStateError{"cannot add a value to a forwarded node"}
	}
	if s.finished {
		return &EvalStateError{"cannot add a value to a finished node"}
	}
	if s.binding != BoundLocal {
		return &EvalStateError{"attempt to add a value before setting up local list"}
	}
	s.values.Append(v)
	return nil
}

// Finish marks the node as done: its value list is immutable for the
// rest of the context's lifetime.
func (s *NodeEvalState) Finish() error {
	if s.binding == BoundForwarded {
		return &EvalStateError{"cannot finish a forwarded node"}
	}
	if s.finished {
		return &EvalStateError{"cannot finish an already finished node"}
	}
	s.finished = true
	return nil
}

// FinishTrue finishes the node with the canonical truthy value.
func (s *NodeEvalState) FinishTrue() error {
	if err := s.SetupLocalList(); err != nil {
		return err
	}
	if err := s.AppendToList(True()); err != nil {
		return err
	}
	return s.Finish()
}

// FinishFalse finishes the node with no values.
func (s *NodeEvalState) FinishFalse() error {
	if err := s.SetupLocalList(); err != nil {
		return err
	}
	return s.Finish()
}

// Forward redirects all queries for this node to other.  Chains are
// permitted but should stay short.
func (s *NodeEvalState) Forward(other *Node) error {
	if other == nil {
		return &EvalStateError{"cannot forward to nil"}
	}
	switch {
	case s.binding == BoundForwarded:
		return &EvalStateError{"cannot forward a forwarded node"}
	case s.binding == BoundAliased:
		return &EvalStateError{"cannot forward an aliased node"}
	case s.finished:
		return &EvalStateError{"cannot forward a finished node"}
	case s.binding == BoundLocal && !s.values.Empty():
		return &EvalStateError{"cannot forward a node with local values"}
	}
	s.binding = BoundForwarded
	s.forward = other
	s.values = nil
	return nil
}

// Alias binds the node to a list owned elsewhere.  The caller
// guarantees the list only grows, and must still Finish this node once
// the list is complete.
func (s *NodeEvalState) Alias(l *ValueList) error {
	if l == nil {
		return &EvalStateError{"cannot alias nil list"}
	}
	switch {
	case s.binding == BoundForwarded:
		return &EvalStateError{"cannot alias a forwarded node"}
	case s.binding == BoundAliased:
		return &EvalStateError{"cannot alias an aliased node"}
	case s.binding == BoundLocal:
		return &EvalStateError{"cannot alias a node with local values"}
	case s.finished:
		return &EvalStateError{"cannot alias a finished node"}
	}
	s.binding = BoundAliased
	s.values = l
	return nil
}

func (s *NodeEvalState) setPhase(p Phase) {
	s.lastPhase = p
}

// ProfileFrame is one entry of the evaluation call stack, kept when
// profiling is on.
type ProfileFrame struct {
	Index int
	Name  string
	Start time.Time
}

// GraphEvalState is the evaluation state of an entire DAG for one
// context (one transaction): one slot per node index.
//
// It is not safe for concurrent use; the host gets concurrency by
// giving each transaction its own GraphEvalState over the shared,
// read-only DAG.
type GraphEvalState struct {
	states []NodeEvalState

	// Profiling, off by default.
	Profile     bool
	stack       []ProfileFrame
	ProfileData map[int]time.Duration
}

// NewGraphEvalState makes state for a DAG whose node indices are all
// below indexLimit.
func NewGraphEvalState(indexLimit int) *GraphEvalState {
	return &GraphEvalState{
		states: make([]NodeEvalState, indexLimit),
	}
}

// At returns the state slot for an index directly, without following
// forwarding.  Calls use this to reach their own state.
func (g *GraphEvalState) At(index int) *NodeEvalState {
	return &g.states[index]
}

// Final returns the state at the end of index's forwarding chain.
func (g *GraphEvalState) Final(index int) *NodeEvalState {
	for g.states[index].IsForwarding() {
		index = g.states[index].ForwardedTo().Index()
	}
	return &g.states[index]
}

// Values returns the node's current values, following forwarding.  May
// be nil if the node is unbound.
func (g *GraphEvalState) Values(index int) *ValueList {
	return g.Final(index).Values()
}

// Size returns the number of values of the node, following forwarding.
func (g *GraphEvalState) Size(index int) int {
	return g.Values(index).Len()
}

// Empty reports whether the node currently has no values.
func (g *GraphEvalState) Empty(index int) bool {
	return g.Values(index).Empty()
}

// Truthy reports whether the node's current value counts as true: a
// non-empty value list.
func (g *GraphEvalState) Truthy(index int) bool {
	return !g.Empty(index)
}

// IsFinished reports whether the node is finished, following
// forwarding.
func (g *GraphEvalState) IsFinished(index int) bool {
	return g.Final(index).IsFinished()
}

// LastPhase returns the last phase the node was calculated at,
// following forwarding.
func (g *GraphEvalState) LastPhase(index int) Phase {
	return g.Final(index).LastPhase()
}

// Initialize runs the node's exactly-once, per-context setup.  Safe to
// call more than once; only the first call does anything.
func (g *GraphEvalState) Initialize(n *Node, ctx *EvalContext) error {
	st := &g.states[n.Index()]
	if st.initialized {
		return nil
	}
	st.initialized = true

	if n.IsLiteral() {
		// A literal's value never depends on the context: bind it
		// now and finish.
		if err := st.SetupLocalList(); err != nil {
			return err
		}
		v, err := n.LiteralValue()
		if err != nil {
			return err
		}
		if !v.IsNull() {
			if err := st.AppendToList(v); err != nil {
				return err
			}
		}
		return st.Finish()
	}

	if init, is := n.Call().(Initializer); is {
		return init.EvalInitialize(n, g, ctx)
	}
	return nil
}

// Eval forces or fetches the node's value for the context's current
// phase.  It resolves the forwarding chain, lazily initializes, and
// calculates only if the node is unfinished and has not already been
// calculated this phase (PhaseNone always calculates).
//
// Calls invoke Eval on their children, which makes evaluation
// recursive, depth-first, and memoized per phase.
func (g *GraphEvalState) Eval(n *Node, ctx *EvalContext) (*ValueList, error) {
	phase := ContextPhase(ctx)

	final := n
	for g.states[final.Index()].IsForwarding() {
		final = g.states[final.Index()].ForwardedTo()
	}

	st := &g.states[final.Index()]
	if !st.initialized {
		if err := g.Initialize(final, ctx); err != nil {
			return nil, err
		}
	}

	if !st.IsFinished() && (st.LastPhase() != phase || phase == PhaseNone) {
		st.setPhase(phase)
		if g.Profile {
			g.push(final)
		}
		err := final.Call().EvalCalculate(final, g, ctx)
		if g.Profile {
			g.pop()
		}
		if err != nil {
			return nil, err
		}
		if st.IsForwarding() {
			// The calculation forwarded the node; the answer now
			// lives at the end of the new chain.
			return g.Eval(final, ctx)
		}
	}

	return g.Values(n.Index()), nil
}

func (g *GraphEvalState) push(n *Node) {
	g.stack = append(g.stack, ProfileFrame{
		Index: n.Index(),
		Name:  n.Name(),
		Start: time.Now(),
	})
}

func (g *GraphEvalState) pop() {
	frame := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	if g.ProfileData == nil {
		g.ProfileData = make(map[int]time.Duration)
	}
	g.ProfileData[frame.Index] += time.Since(frame.Start)
}

// AssignIndices walks the forest breadth-first and gives every
// reachable node a unique index.  Returns the index limit (one past
// the largest assigned).  Must happen exactly once, after all merging
// and transformation and before any evaluation.
func AssignIndices(roots []*Node) (int, error) {
	limit := 0
	visited := make(map[*Node]bool)
	for _, root := range roots {
		err := BFSDown(root, visited, func(n *Node) error {
			if n.Index() >= 0 {
				return nil
			}
			if err := n.SetIndex(limit); err != nil {
				return err
			}
			limit++
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return limit, nil
}

// InitializeAll runs Initialize over every node reachable from the
// roots.  Hosts that want eager setup call this once per context;
// otherwise Eval initializes lazily.
func InitializeAll(roots []*Node, g *GraphEvalState, ctx *EvalContext) error {
	visited := make(map[*Node]bool)
	for _, root := range roots {
		err := BFSDown(root, visited, func(n *Node) error {
			return g.Initialize(n, ctx)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
