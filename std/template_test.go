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
	"github.com/Comcast/predicate/graph"
)

func defineTestTemplate(t *testing.T, factory *core.CallFactory, name string, args []string, body string) {
	t.Helper()
	factory.Add(name, DefineTemplate(name, args, parseTree(t, factory, body)))
}

func TestTemplateExpands(t *testing.T) {
	factory := Load(core.NewCallFactory())
	defineTestTemplate(t, factory, "hasValue", []string{"f", "v"},
		"(eq (ref 'f') (ref 'v'))")

	got := transformed(t, factory, "(hasValue 'x' 5)")
	if got != "(eq 'x' 5)" {
		t.Fatalf("expanded to %q", got)
	}
}

func TestTemplateSharesArgument(t *testing.T) {
	factory := Load(core.NewCallFactory())
	defineTestTemplate(t, factory, "both", []string{"p"},
		"(andSC (ref 'p') (ref 'p'))")

	g := graph.NewMergeGraph()
	if _, err := g.AddRoot(parseTree(t, factory, "(both (field 'x'))")); err != nil {
		t.Fatal(err)
	}
	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}
	root, err := g.Root(0)
	if err != nil {
		t.Fatal(err)
	}
	kids := root.Children()
	if len(kids) != 2 || kids[0] != kids[1] {
		t.Fatalf("argument should expand to one shared node: %s", root.SExpr())
	}
}

func TestTemplateNested(t *testing.T) {
	factory := Load(core.NewCallFactory())
	defineTestTemplate(t, factory, "isFive", []string{"f"},
		"(eq (ref 'f') 5)")
	defineTestTemplate(t, factory, "xOrY", nil,
		"(or (isFive 'x') (isFive 'y'))")

	got := transformed(t, factory, "(xOrY)")
	if got != "(or (eq 'x' 5) (eq 'y' 5))" {
		t.Fatalf("expanded to %q", got)
	}
}

func TestStrayRefFailsPostTransform(t *testing.T) {
	factory := Load(core.NewCallFactory())
	defineTestTemplate(t, factory, "oops", []string{"f"},
		"(eq (ref 'feild') 5)")

	g := graph.NewMergeGraph()
	if _, err := g.AddRoot(parseTree(t, factory, "(oops 'x')")); err != nil {
		t.Fatal(err)
	}
	rep := core.NewReporter()
	if _, err := g.TransformToFixpoint(factory, rep, 0); err != nil {
		t.Fatal(err)
	}
	ok, err := g.Validate(graph.PostTransform, rep)
	if err != nil {
		t.Fatal(err)
	}
	if ok || rep.NumErrors() == 0 {
		t.Fatal("surviving ref should fail post-transform validation")
	}
}

func TestTemplateArityValidated(t *testing.T) {
	factory := Load(core.NewCallFactory())
	defineTestTemplate(t, factory, "hasValue", []string{"f", "v"},
		"(eq (ref 'f') (ref 'v'))")

	n := parseTree(t, factory, "(hasValue 'x')")
	rep := core.NewReporter()
	if n.Validate(core.NewNodeReporter(rep, n)) {
		t.Fatal("wrong argument count should fail validation")
	}
}
