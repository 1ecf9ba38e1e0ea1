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

import "bytes"

// Kind enumerates the kinds of Values.
//
// The zero Kind is Null: the singular value, which is also the
// canonical false.
type Kind int

const (
	Null Kind = iota
	Number
	Float
	String
	List
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Number:
		return "number"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	}
	return "unknown"
}

// Value is an immutable, optionally named datum: a number, a float, a
// byte string, a list of Values, or the singular null.
//
// Values are compared by content; names do not participate in Equal or
// Compare.  The zero Value is null.
type Value struct {
	name string
	kind Kind
	num  int64
	fl   float64
	str  []byte
	list *ValueList
}

// NewNumber makes a number Value.
func NewNumber(n int64) Value {
	return Value{kind: Number, num: n}
}

// NewFloat makes a float Value.
func NewFloat(f float64) Value {
	return Value{kind: Float, fl: f}
}

// NewString makes a byte-string Value from a string.
func NewString(s string) Value {
	return Value{kind: String, str: []byte(s)}
}

// NewBytes makes a byte-string Value.  The bytes are copied.
func NewBytes(bs []byte) Value {
	cp := make([]byte, len(bs))
	copy(cp, bs)
	return Value{kind: String, str: cp}
}

// NewList makes a list Value wrapping the given ValueList.  The list
// is shared, not copied, which is what aliasing wants.
func NewList(l *ValueList) Value {
	return Value{kind: List, list: l}
}

// NewListOf makes a list Value from the given elements.
func NewListOf(vs ...Value) Value {
	l := NewValueList()
	for _, v := range vs {
		l.Append(v)
	}
	return NewList(l)
}

// True is the canonical truthy Value: the empty string.
func True() Value {
	return Value{kind: String, str: []byte{}}
}

// False is the canonical falsy Value: null.
func False() Value {
	return Value{}
}

// Named returns a copy of the Value carrying the given name.
func (v Value) Named(name string) Value {
	v.name = name
	return v
}

// Name returns the Value's name, which may be empty.
func (v Value) Name() string {
	return v.name
}

// Kind returns the Value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the Value is the singular null.
func (v Value) IsNull() bool {
	return v.kind == Null
}

// Truthy reports whether the Value counts as true: null and empty
// lists are false; everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case List:
		return v.list.Len() > 0
	}
	return true
}

// AsNumber returns the Value as an int64.
func (v Value) AsNumber() (int64, error) {
	if v.kind != Number {
		return 0, Einval("value is " + v.kind.String() + ", not number")
	}
	return v.num, nil
}

// AsFloat returns the Value as a float64.
func (v Value) AsFloat() (float64, error) {
	if v.kind != Float {
		return 0, Einval("value is " + v.kind.String() + ", not float")
	}
	return v.fl, nil
}

// AsString returns the Value's bytes.  The caller should not modify
// them.
func (v Value) AsString() ([]byte, error) {
	if v.kind != String {
		return nil, Einval("value is " + v.kind.String() + ", not string")
	}
	return v.str, nil
}

// AsList returns the Value's list.
func (v Value) AsList() (*ValueList, error) {
	if v.kind != List {
		return nil, Einval("value is " + v.kind.String() + ", not list")
	}
	return v.list, nil
}

// Equal reports content equality.  Values of different kinds are never
// equal; names are ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Number:
		return v.num == o.num
	case Float:
		return v.fl == o.fl
	case String:
		return bytes.Equal(v.str, o.str)
	case List:
		a, b := v.list.Values(), o.list.Values()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two Values of the same scalar kind, returning -1, 0,
// or 1.  Comparing different kinds, nulls, or lists is an error, never
// a silent coercion.
func (v Value) Compare(o Value) (int, error) {
	if v.kind != o.kind {
		return 0, Einval("cannot order " + v.kind.String() + " against " + o.kind.String())
	}
	switch v.kind {
	case Number:
		switch {
		case v.num < o.num:
			return -1, nil
		case v.num > o.num:
			return 1, nil
		}
		return 0, nil
	case Float:
		switch {
		case v.fl < o.fl:
			return -1, nil
		case v.fl > o.fl:
			return 1, nil
		}
		return 0, nil
	case String:
		return bytes.Compare(v.str, o.str), nil
	}
	return 0, Einval("cannot order values of kind " + v.kind.String())
}

// String renders the Value in its s-expression literal form.
func (v Value) String() string {
	return EmitLiteral(v)
}

// ValueList is a growable, shared sequence of Values.
//
// A node's local values, an aliased externally-owned list, and a
// dynamic (lazily projected) list are all ValueLists; the sharing is
// the point.  Appends never invalidate previously observed prefixes.
type ValueList struct {
	vs []Value

	// For dynamic lists: get projects the current elements and set
	// accepts appends.  Supplied at construction, used instead of vs.
	get func() []Value
	set func(Value)
}

// NewValueList makes an empty ordinary list.
func NewValueList() *ValueList {
	return &ValueList{vs: make([]Value, 0, 4)}
}

// NewDynamicList makes a list whose elements are computed on demand by
// get.  The optional set receives appends; a nil set makes the list
// effectively read-only.
func NewDynamicList(get func() []Value, set func(Value)) *ValueList {
	return &ValueList{get: get, set: set}
}

// IsDynamic reports whether the list projects its elements lazily.
func (l *ValueList) IsDynamic() bool {
	return l != nil && l.get != nil
}

// Values returns the current elements.  The caller should treat the
// slice as a read-only snapshot.
func (l *ValueList) Values() []Value {
	if l == nil {
		return nil
	}
	if l.get != nil {
		return l.get()
	}
	return l.vs
}

// Len returns the current number of elements.
func (l *ValueList) Len() int {
	return len(l.Values())
}

// Empty reports whether the list is nil or has no elements.
func (l *ValueList) Empty() bool {
	return l.Len() == 0
}

// Append adds a value at the end.
func (l *ValueList) Append(v Value) {
	if l.set != nil {
		l.set(v)
		return
	}
	l.vs = append(l.vs, v)
}
