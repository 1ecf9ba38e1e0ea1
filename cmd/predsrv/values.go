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

package main

import (
	"fmt"
	"math"

	"github.com/Comcast/predicate/core"
)

// jsonToValue maps JSON natives to predicate Values.  JSON has only
// one number kind, so integral floats become numbers: a client sending
// 5 means 5, not 5.0, and rule literals are mostly integers.
func jsonToValue(x interface{}) (core.Value, error) {
	switch x := x.(type) {
	case nil:
		return core.False(), nil
	case bool:
		if x {
			return core.True(), nil
		}
		return core.False(), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return core.NewNumber(int64(x)), nil
		}
		return core.NewFloat(x), nil
	case string:
		return core.NewString(x), nil
	case []interface{}:
		l := core.NewValueList()
		for _, e := range x {
			v, err := jsonToValue(e)
			if err != nil {
				return core.Value{}, err
			}
			l.Append(v)
		}
		return core.NewList(l), nil
	case map[string]interface{}:
		// {"name": ..., "value": ...} makes a named value.
		name, _ := x["name"].(string)
		v, err := jsonToValue(x["value"])
		if err != nil {
			return core.Value{}, err
		}
		return v.Named(name), nil
	}
	return core.Value{}, fmt.Errorf("can't make a value from %T", x)
}
