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

package oracle

import (
	"fmt"
	"strings"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/graph"
	"github.com/Comcast/predicate/std"
	"github.com/Comcast/predicate/util"
)

// Oracle accumulates rules, compiles their predicates into one merged
// DAG, and makes Transactions that evaluate it incrementally.
//
// Usage is two-phase: AddRule and DefineTemplate until everything is
// in, then Compile exactly once, then any number of concurrent
// Transactions.  The compiled DAG is immutable; all mutable state
// lives in the Transaction.
type Oracle struct {
	factory *core.CallFactory
	graph   *graph.MergeGraph

	rules []ruleEntry
	byId  map[string]int

	compiled   bool
	indexLimit int
}

type ruleEntry struct {
	id    string
	phase core.Phase
	root  int
	sexpr string
}

// New makes an empty Oracle.  A nil factory gets the standard call
// library.
func New(factory *core.CallFactory) *Oracle {
	if factory == nil {
		factory = std.Load(core.NewCallFactory())
	}
	return &Oracle{
		factory: factory,
		graph:   graph.NewMergeGraph(),
		byId:    make(map[string]int),
	}
}

// Factory returns the oracle's call factory, for registering host
// calls before any rules are added.
func (o *Oracle) Factory() *core.CallFactory {
	return o.factory
}

// Graph exposes the underlying graph, mostly for tooling.
func (o *Oracle) Graph() *graph.MergeGraph {
	return o.graph
}

// parseOne parses exactly one expression, rejecting trailing text.
func (o *Oracle) parseOne(sexpr string) (*core.Node, error) {
	text := strings.TrimSpace(sexpr)
	pos := 0
	n, err := core.ParseCall(text, &pos, o.factory)
	if err != nil {
		return nil, err
	}
	if pos != len(text) {
		return nil, &core.ParseError{Position: pos, Message: "trailing text after expression"}
	}
	return n, nil
}

// DefineTemplate parses body and registers name as a template call.
func (o *Oracle) DefineTemplate(name string, args []string, body string) error {
	if o.compiled {
		return core.Einval("oracle already compiled")
	}
	if o.factory.Known(name) {
		return core.Einval("call " + name + " already defined")
	}
	bodyNode, err := o.parseOne(body)
	if err != nil {
		return err
	}
	o.factory.Add(name, std.DefineTemplate(name, args, bodyNode))
	o.factory.SetDoc(name, fmt.Sprintf("Template `(%s %s)` = `%s`",
		name, strings.Join(args, " "), bodyNode.SExpr()))
	return nil
}

// AddRule parses the predicate and merges it into the DAG under the
// rule's id.  Duplicate ids are rejected; identical predicates from
// different rules share their whole subgraph.
func (o *Oracle) AddRule(id string, phase core.Phase, predicate string) error {
	if o.compiled {
		return core.Einval("oracle already compiled")
	}
	if _, have := o.byId[id]; have {
		return core.Einval("duplicate rule id " + id)
	}
	n, err := o.parseOne(predicate)
	if err != nil {
		return err
	}
	index, err := o.graph.AddRoot(n)
	if err != nil {
		return err
	}
	o.byId[id] = len(o.rules)
	o.rules = append(o.rules, ruleEntry{
		id:    id,
		phase: phase,
		root:  index,
		sexpr: n.SExpr(),
	})
	return nil
}

// LoadRuleSet defines the set's templates and adds its rules.
func (o *Oracle) LoadRuleSet(rs *RuleSet) error {
	for _, t := range rs.Templates {
		if err := o.DefineTemplate(t.Name, t.Args, t.Body); err != nil {
			return err
		}
	}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if err := o.AddRule(r.Id, r.phase(), r.Predicate); err != nil {
			return err
		}
	}
	return nil
}

// RuleIds returns the ids of all added rules, in addition order.
func (o *Oracle) RuleIds() []string {
	ids := make([]string, len(o.rules))
	for i, r := range o.rules {
		ids[i] = r.id
	}
	return ids
}

// Compile validates, transforms to a fixed point, validates again, and
// indexes the DAG.  Problems accumulate in rep; any error-level report
// fails the compile.  Compile is once: after it the rule set is
// frozen.
func (o *Oracle) Compile(rep *core.Reporter) error {
	if o.compiled {
		return core.Einval("oracle already compiled")
	}
	if rep == nil {
		rep = core.NewReporter()
	}

	ok, err := o.graph.Validate(graph.PreTransform, rep)
	if err != nil {
		return err
	}
	if !ok {
		return core.Einval(fmt.Sprintf("validation failed with %d errors", rep.NumErrors()))
	}

	rounds, err := o.graph.TransformToFixpoint(o.factory, rep, 0)
	if err != nil {
		return err
	}
	util.Logf("oracle compiled %d rules in %d transform rounds, %d nodes",
		len(o.rules), rounds, o.graph.Size())

	ok, err = o.graph.Validate(graph.PostTransform, rep)
	if err != nil {
		return err
	}
	if !ok {
		return core.Einval(fmt.Sprintf("post-transform validation failed with %d errors", rep.NumErrors()))
	}

	limit, err := o.graph.AssignIndices()
	if err != nil {
		return err
	}
	o.indexLimit = limit
	o.compiled = true
	return nil
}

// FindTransform maps a rule's original predicate text to what the
// compiler turned it into.
func (o *Oracle) FindTransform(id string) (string, error) {
	i, have := o.byId[id]
	if !have {
		return "", core.Enoent("no rule " + id)
	}
	final, _ := o.graph.FindTransform(o.rules[i].sexpr)
	return final, nil
}

// Transaction is one evaluation of the DAG: typically one inspected
// request.  Not safe for concurrent use; make one per goroutine.
type Transaction struct {
	oracle *Oracle
	ges    *core.GraphEvalState
	ctx    *core.EvalContext
}

// NewTransaction makes a Transaction over the given field source.  The
// operator and transformation sources may be nil.
func (o *Oracle) NewTransaction(fields core.FieldSource, ops core.OperatorSource, tfns core.TransformationSource) (*Transaction, error) {
	if !o.compiled {
		return nil, core.Einval("oracle not compiled")
	}
	return &Transaction{
		oracle: o,
		ges:    core.NewGraphEvalState(o.indexLimit),
		ctx: &core.EvalContext{
			Fields:          fields,
			Operators:       ops,
			Transformations: tfns,
		},
	}, nil
}

// EvalState exposes the transaction's evaluation state, for tooling.
func (t *Transaction) EvalState() *core.GraphEvalState {
	return t.ges
}

// RunPhase evaluates every rule's predicate at the given phase.
// Nodes already finished, or already calculated this phase, are not
// recalculated.  Call once per phase, in pipeline order.
func (t *Transaction) RunPhase(p core.Phase) error {
	t.ctx.Phase = p
	for _, r := range t.oracle.rules {
		root, err := t.oracle.graph.Root(r.root)
		if err != nil {
			return err
		}
		if _, err := t.ges.Eval(root, t.ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) rule(id string) (*ruleEntry, error) {
	i, have := t.oracle.byId[id]
	if !have {
		return nil, core.Enoent("no rule " + id)
	}
	return &t.oracle.rules[i], nil
}

// Truthy reports whether the rule's predicate is currently true.
func (t *Transaction) Truthy(id string) (bool, error) {
	r, err := t.rule(id)
	if err != nil {
		return false, err
	}
	root, err := t.oracle.graph.Root(r.root)
	if err != nil {
		return false, err
	}
	return t.ges.Truthy(root.Index()), nil
}

// Finished reports whether the rule's predicate can still change.
func (t *Transaction) Finished(id string) (bool, error) {
	r, err := t.rule(id)
	if err != nil {
		return false, err
	}
	root, err := t.oracle.graph.Root(r.root)
	if err != nil {
		return false, err
	}
	return t.ges.IsFinished(root.Index()), nil
}

// Values returns the rule's current values.
func (t *Transaction) Values(id string) (*core.ValueList, error) {
	r, err := t.rule(id)
	if err != nil {
		return nil, err
	}
	root, err := t.oracle.graph.Root(r.root)
	if err != nil {
		return nil, err
	}
	return t.ges.Values(root.Index()), nil
}

// Fired returns the ids of the rules bound to phase p (or to no
// particular phase) whose predicates are true now.
func (t *Transaction) Fired(p core.Phase) []string {
	var ids []string
	for _, r := range t.oracle.rules {
		if r.phase != core.PhaseNone && r.phase != p {
			continue
		}
		root, err := t.oracle.graph.Root(r.root)
		if err != nil {
			continue
		}
		if t.ges.Truthy(root.Index()) {
			ids = append(ids, r.id)
		}
	}
	return ids
}

// FieldMap is a simple in-memory FieldSource for hosts and tests.
type FieldMap struct {
	lists    map[string]*core.ValueList
	finished map[string]bool
	done     bool
}

// NewFieldMap makes an empty FieldMap.
func NewFieldMap() *FieldMap {
	return &FieldMap{
		lists:    make(map[string]*core.ValueList),
		finished: make(map[string]bool),
	}
}

// Add appends a value to the named field.
func (m *FieldMap) Add(name string, v core.Value) *FieldMap {
	l, have := m.lists[name]
	if !have {
		l = core.NewValueList()
		m.lists[name] = l
	}
	l.Append(v)
	return m
}

// FinishField marks one field complete.
func (m *FieldMap) FinishField(name string) *FieldMap {
	m.finished[name] = true
	return m
}

// FinishAll marks every field, present or absent, complete.
func (m *FieldMap) FinishAll() *FieldMap {
	m.done = true
	return m
}

func (m *FieldMap) Field(name string) (*core.ValueList, bool) {
	l, have := m.lists[name]
	return l, have
}

func (m *FieldMap) FieldFinished(name string) bool {
	return m.done || m.finished[name]
}
