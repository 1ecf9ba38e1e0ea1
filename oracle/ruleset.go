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

// Package oracle is the front end: it takes rule sets, which bind rule
// ids to predicate expressions, compiles them all into one shared DAG,
// and answers, per transaction and per phase, which rules are true.
package oracle

import (
	"fmt"
	"io/ioutil"

	"github.com/jsccast/yaml"

	"github.com/Comcast/predicate/core"
)

// TemplateDef is a user-defined macro in a rule set file.
type TemplateDef struct {
	Name string   `json:"name" yaml:"name"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
	Body string   `json:"body" yaml:"body"`
}

// Rule binds an id to a predicate expression and the phase at which
// the host wants an answer.  An empty phase means every phase.
type Rule struct {
	Id        string `json:"id" yaml:"id"`
	Phase     string `json:"phase,omitempty" yaml:"phase,omitempty"`
	Predicate string `json:"predicate" yaml:"predicate"`
}

// RuleSet is the unit of loading: templates first, then rules that can
// use them.
type RuleSet struct {
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	Templates []TemplateDef `json:"templates,omitempty" yaml:"templates,omitempty"`
	Rules     []Rule        `json:"rules" yaml:"rules"`
}

// ParseRuleSet reads a YAML (or JSON) rule set.
func ParseRuleSet(bs []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(bs, &rs); err != nil {
		return nil, err
	}
	for i, r := range rs.Rules {
		if r.Id == "" {
			return nil, core.Einval(fmt.Sprintf("rule %d has no id", i))
		}
		if r.Predicate == "" {
			return nil, core.Einval("rule " + r.Id + " has no predicate")
		}
		if r.Phase != "" {
			if _, have := core.PhaseNamed(r.Phase); !have {
				return nil, core.Einval("rule " + r.Id + " has unknown phase " + r.Phase)
			}
		}
	}
	return &rs, nil
}

// ReadRuleSetFile reads a rule set from a file.
func ReadRuleSetFile(filename string) (*RuleSet, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseRuleSet(bs)
}

// phase returns the rule's phase, PhaseNone for "every phase".
func (r *Rule) phase() core.Phase {
	p, _ := core.PhaseNamed(r.Phase)
	return p
}
