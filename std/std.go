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

// Load registers the standard calls with the factory.  The docs are
// Markdown; see tools.WriteCallReference.
func Load(factory *core.CallFactory) *core.CallFactory {
	add := func(name string, gen core.Generator, doc string) {
		factory.Add(name, gen)
		factory.SetDoc(name, doc)
	}

	add("true", func(string) core.Call { return &trueCall{base{"true"}} },
		"`(true)`: always truthy.  Folds to the literal `''`.")
	add("false", func(string) core.Call { return &falseCall{base{"false"}} },
		"`(false)`: always falsy.  Folds to the literal `:`.")
	add("or", func(string) core.Call { return &orCall{base{"or"}} },
		"`(or a b ...)`: truthy as soon as any child is truthy.  Commutative.")
	add("and", func(string) core.Call { return &andCall{base{"and"}} },
		"`(and a b ...)`: truthy once every child is truthy.  Commutative.")
	add("not", func(string) core.Call { return &notCall{base{"not"}} },
		"`(not a)`: truthy iff `a` finishes falsy.")
	add("if", func(string) core.Call { return &ifCall{base{"if"}} },
		"`(if pred then else)`: `then` or `else` by `pred`.  Forwards once decided.")
	add("orSC", func(string) core.Call { return &orSCCall{base{"orSC"}} },
		"`(orSC a b ...)`: `or`, but evaluates children left to right, "+
			"stopping at the first truthy child.")
	add("andSC", func(string) core.Call { return &andSCCall{base{"andSC"}} },
		"`(andSC a b ...)`: `and`, but evaluates children left to right, "+
			"stopping at the first child that is not yet truthy.")

	add("add", newFold("add", &number{i: 0}, number.add),
		"`(add a b ...)`: the sum of every value of every child.")
	add("mult", newFold("mult", &number{i: 1}, number.mult),
		"`(mult a b ...)`: the product of every value of every child.")
	add("max", newFold("max", nil, func(a, b number) number {
		if a.less(b) {
			return b
		}
		return a
	}), "`(max a b ...)`: the largest value of any child.")
	add("min", newFold("min", nil, func(a, b number) number {
		if b.less(a) {
			return b
		}
		return a
	}), "`(min a b ...)`: the smallest value of any child.")
	add("neg", func(string) core.Call { return &negCall{base{"neg"}} },
		"`(neg a)`: every value of `a`, negated.")

	add("cat", func(string) core.Call { return &catCall{base{"cat"}} },
		"`(cat a b ...)`: the values of all children, concatenated.")
	add("list", NewAlias("list", "cat"),
		"`(list a b ...)`: synonym for `cat`.")
	add("first", func(string) core.Call { return &firstCall{base{"first"}} },
		"`(first a)`: the first value of `a`.")
	add("rest", func(string) core.Call { return &restCall{base{"rest"}} },
		"`(rest a)`: every value of `a` but the first.")
	add("setName", func(string) core.Call { return &setNameCall{base{"setName"}} },
		"`(setName 'name' a)`: every value of `a`, renamed.")

	add("eq", newCompare("eq", func(v, against core.Value) (bool, error) {
		return v.Equal(against), nil
	}), "`(eq 'field' value)`: the field's values equal to `value`.")
	add("ne", newCompare("ne", func(v, against core.Value) (bool, error) {
		return !v.Equal(against), nil
	}), "`(ne 'field' value)`: the field's values not equal to `value`.")
	add("lt", newCompare("lt", compareMatch(func(c int) bool { return c < 0 })),
		"`(lt 'field' value)`: the field's values less than `value`.")
	add("le", newCompare("le", compareMatch(func(c int) bool { return c <= 0 })),
		"`(le 'field' value)`: the field's values at most `value`.")
	add("gt", newCompare("gt", compareMatch(func(c int) bool { return c > 0 })),
		"`(gt 'field' value)`: the field's values greater than `value`.")
	add("ge", newCompare("ge", compareMatch(func(c int) bool { return c >= 0 })),
		"`(ge 'field' value)`: the field's values at least `value`.")

	add("named", newNamed("named", namedExact),
		"`(named 'name' a)`: the values of `a` named exactly `name`.")
	add("namedi", newNamed("namedi", namedFold),
		"`(namedi 'name' a)`: like `named`, ignoring case.")
	add("namedRx", newNamed("namedRx", namedRx),
		"`(namedRx 'pattern' a)`: the values of `a` whose names match the "+
			"regular expression.")

	add("field", func(string) core.Call { return &fieldCall{base{"field"}} },
		"`(field 'name')`: the host field's values.")
	add("operator", func(string) core.Call { return &operatorCall{base{"operator"}} },
		"`(operator 'name' 'arg' a)`: the host operator applied to every "+
			"value of `a`; produces the captures of the matches.")
	add("transformation", func(string) core.Call { return &transformationCall{base{"transformation"}} },
		"`(transformation 'name' a)`: the host transformation mapped over "+
			"every value of `a`.")

	add("ref", func(string) core.Call { return &refCall{base{"ref"}} },
		"`(ref 'name')`: a template argument.  Only valid inside a "+
			"template body.")

	add("js", func(string) core.Call { return &jsCall{base{"js"}} },
		"`(js 'source' a ...)`: ECMAScript over the finished values of "+
			"the inputs, seen as the variable `inputs`.")

	add("p", func(string) core.Call { return &pCall{base{"p"}} },
		"`(p a ...)`: logs its children's values; otherwise the last child.")
	add("identity", func(string) core.Call { return &identityCall{base{"identity"}} },
		"`(identity a)`: `a`.")

	return factory
}
