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

// preddot reads predicate expressions from stdin, one per line, merges
// them into a DAG, and writes the DAG as Graphviz dot (or YAML) to
// stdout.
//
// A line of the form
//
//	Define NAME ARG1,ARG2 BODY
//
// defines a template usable by later lines.  Use "Define NAME - BODY"
// for a template with no arguments.
//
//	echo "(and (eq 'x' 5) (eq 'y' 6))" | preddot -transform | dot -Tpng -o dag.png
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/graph"
	"github.com/Comcast/predicate/oracle"
	"github.com/Comcast/predicate/tools"
	"github.com/Comcast/predicate/util"
)

func main() {
	var (
		transform  = flag.Bool("transform", false, "transform the graph to its fixed point")
		asYAML     = flag.Bool("yaml", false, "write a YAML report instead of dot")
		horizontal = flag.Bool("horizontal", false, "lay the dot graph out left to right")
		reference  = flag.String("reference", "", "also write an HTML call reference to this file")
		verbose    = flag.Bool("v", false, "verbosity")
	)
	flag.Parse()
	util.Logging = *verbose

	if err := run(*transform, *asYAML, *horizontal, *reference); err != nil {
		fmt.Fprintf(os.Stderr, "preddot: %v\n", err)
		os.Exit(1)
	}
}

func run(transform, asYAML, horizontal bool, reference string) error {
	o := oracle.New(nil)
	g := o.Graph()

	in := bufio.NewScanner(os.Stdin)
	lineNo := 0
	exprs := 0
	for in.Scan() {
		lineNo++
		line := strings.TrimSpace(in.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "Define ") {
			if err := define(o, line); err != nil {
				return fmt.Errorf("line %d: %v", lineNo, err)
			}
			continue
		}
		exprs++
		id := fmt.Sprintf("expr-%d", exprs)
		if err := o.AddRule(id, core.PhaseNone, line); err != nil {
			return fmt.Errorf("line %d: %v", lineNo, err)
		}
	}
	if err := in.Err(); err != nil {
		return err
	}

	if transform {
		rep := core.NewReporter()
		ok, err := g.Validate(graph.PreTransform, rep)
		if err == nil && ok {
			_, err = g.TransformToFixpoint(o.Factory(), rep, 0)
		}
		if err == nil {
			_, err = g.Validate(graph.PostTransform, rep)
		}
		for _, r := range rep.Reports() {
			level := "warning"
			if r.Error {
				level = "error"
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", level, r.Message)
		}
		if err != nil {
			return err
		}
		if rep.NumErrors() > 0 {
			return fmt.Errorf("%d errors", rep.NumErrors())
		}
	}

	if reference != "" {
		f, err := os.Create(reference)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := tools.WriteCallReference(f, o.Factory(), ""); err != nil {
			return err
		}
	}

	if asYAML {
		return tools.WriteGraphYAML(os.Stdout, g)
	}
	return tools.GraphDot(os.Stdout, g, &tools.DotOptions{Horizontal: horizontal})
}

// define handles a "Define NAME ARGS BODY" line.
func define(o *oracle.Oracle, line string) error {
	parts := strings.SplitN(line, " ", 4)
	if len(parts) != 4 {
		return fmt.Errorf("bad Define; want \"Define NAME ARGS BODY\"")
	}
	name, argSpec, body := parts[1], parts[2], parts[3]
	var args []string
	if argSpec != "-" {
		args = strings.Split(argSpec, ",")
	}
	return o.DefineTemplate(name, args, body)
}
