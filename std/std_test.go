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
	"testing"

	"github.com/Comcast/predicate/core"
)

// fields is a little FieldSource for tests.
type fields struct {
	m   map[string]*core.ValueList
	fin map[string]bool
	all bool
}

func newFields() *fields {
	return &fields{
		m:   make(map[string]*core.ValueList),
		fin: make(map[string]bool),
	}
}

func (f *fields) add(name string, v core.Value) *fields {
	l, have := f.m[name]
	if !have {
		l = core.NewValueList()
		f.m[name] = l
	}
	l.Append(v)
	return f
}

func (f *fields) finish(name string) *fields {
	f.fin[name] = true
	return f
}

func (f *fields) finishAll() *fields {
	f.all = true
	return f
}

func (f *fields) Field(name string) (*core.ValueList, bool) {
	l, have := f.m[name]
	return l, have
}

func (f *fields) FieldFinished(name string) bool {
	return f.all || f.fin[name]
}

func parseTree(t *testing.T, factory *core.CallFactory, s string) *core.Node {
	t.Helper()
	pos := 0
	n, err := core.ParseCall(s, &pos, factory)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	if pos != len(s) {
		t.Fatalf("parse %q stopped at %d", s, pos)
	}
	return n
}

// indexTree parses an expression and makes evaluation state for it.
func indexTree(t *testing.T, factory *core.CallFactory, s string) (*core.Node, *core.GraphEvalState) {
	t.Helper()
	n := parseTree(t, factory, s)
	limit, err := core.AssignIndices([]*core.Node{n})
	if err != nil {
		t.Fatal(err)
	}
	return n, core.NewGraphEvalState(limit)
}

// countCall finishes true and counts how often it is calculated.
type countCall struct {
	calcs *int
}

func (c *countCall) Name() string {
	return "count"
}

func (c *countCall) EvalCalculate(n *core.Node, s *core.GraphEvalState, ctx *core.EvalContext) error {
	*c.calcs++
	return s.At(n.Index()).FinishTrue()
}

// withCount registers the count call on a fresh standard factory.
func withCount(calcs *int) *core.CallFactory {
	factory := Load(core.NewCallFactory())
	factory.Add("count", func(string) core.Call {
		return &countCall{calcs}
	})
	return factory
}
