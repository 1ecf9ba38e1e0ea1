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

// S-expression text format:
//
//   expr    := literal | call
//   call    := '(' name (' ' expr)* ')'
//   literal := [name ':'] value
//   value   := number | float | string | list | ':'
//   number  := '-'? digit+
//   float   := '-'? digit+ '.' digit+
//   string  := "'" ( [^'\] | '\' any )* "'"
//   list    := '[' (value (' ' value)*)? ']'
//   name    := [A-Za-z_][A-Za-z0-9_.-]*
//
// A ':' alone is the null value.  ParseLiteral and EmitLiteral round
// trip: parsing an emitted literal reproduces the Value exactly.

import (
	"strconv"
	"strings"
)

func parseError(pos int, msg string) error {
	return &ParseError{Position: pos, Message: msg}
}

func nameStartChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func nameChar(c byte) bool {
	return nameStartChar(c) || numChar(c) || c == '.' || c == '-'
}

func numChar(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseLiteral consumes one literal starting at *pos, advancing *pos
// past the consumed text.
func ParseLiteral(text string, pos *int) (Value, error) {
	i := *pos
	if i >= len(text) {
		return Value{}, parseError(i, "expected literal")
	}

	var name string
	named := false

	switch {
	case text[i] == '\'':
		// Either a string value or a quoted name.  Scan the string
		// first and decide by what follows.
		s, next, err := parseString(text, i)
		if err != nil {
			return Value{}, err
		}
		if next < len(text) && text[next] == ':' {
			name = s
			named = true
			i = next + 1
		} else {
			*pos = next
			return NewString(s), nil
		}
	case nameStartChar(text[i]):
		j := i
		for j < len(text) && nameChar(text[j]) {
			j++
		}
		if j >= len(text) || text[j] != ':' {
			return Value{}, parseError(i, "bare name without ':'")
		}
		name = text[i:j]
		named = true
		i = j + 1
	}

	v, err := parseValue(text, &i)
	if err != nil {
		return Value{}, err
	}
	if named {
		v = v.Named(name)
	}
	*pos = i
	return v, nil
}

// parseValue consumes a nameless value at *pos.
func parseValue(text string, pos *int) (Value, error) {
	i := *pos
	if i >= len(text) {
		return Value{}, parseError(i, "unterminated literal")
	}

	switch {
	case text[i] == ':':
		*pos = i + 1
		return Value{}, nil

	case text[i] == '\'':
		s, next, err := parseString(text, i)
		if err != nil {
			return Value{}, err
		}
		*pos = next
		return NewString(s), nil

	case text[i] == '[':
		l := NewValueList()
		i++
		for {
			for i < len(text) && text[i] == ' ' {
				i++
			}
			if i >= len(text) {
				return Value{}, parseError(i, "unterminated list")
			}
			if text[i] == ']' {
				*pos = i + 1
				return NewList(l), nil
			}
			v, err := parseValue(text, &i)
			if err != nil {
				return Value{}, err
			}
			l.Append(v)
		}

	case numChar(text[i]) || text[i] == '-':
		start := i
		if text[i] == '-' {
			i++
			if i >= len(text) || !numChar(text[i]) {
				return Value{}, parseError(i, "unterminated literal")
			}
		}
		dot := false
		for i < len(text) && (numChar(text[i]) || text[i] == '.') {
			if text[i] == '.' {
				if dot {
					return Value{}, parseError(i, "multiple dots in numeric")
				}
				dot = true
			}
			i++
		}
		tok := text[start:i]
		if dot {
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return Value{}, parseError(start, "could not convert to float")
			}
			*pos = i
			return NewFloat(f), nil
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return Value{}, parseError(start, "could not convert to integer")
		}
		*pos = i
		return NewNumber(n), nil
	}

	return Value{}, parseError(i, "unexpected character "+string(text[i]))
}

// parseString scans a single-quoted string starting at i (which must
// be the opening quote).  Backslash is the only escape character.
// Returns the unescaped content and the index just past the closing
// quote.
func parseString(text string, i int) (string, int, error) {
	var b strings.Builder
	i++ // opening quote
	escape := false
	for ; i < len(text); i++ {
		c := text[i]
		switch {
		case escape:
			b.WriteByte(c)
			escape = false
		case c == '\\':
			escape = true
		case c == '\'':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", i, parseError(i, "unterminated string")
}

// ParseLiteralNode is ParseLiteral wrapped into a literal Node.
func ParseLiteralNode(text string, pos *int) (*Node, error) {
	v, err := ParseLiteral(text, pos)
	if err != nil {
		return nil, err
	}
	return NewLiteral(v), nil
}

// ParseCall consumes one call expression starting at *pos, advancing
// *pos past the closing ')'.  The factory instantiates calls by
// operator name.
//
// Implemented iteratively rather than recursively so that input depth
// is not limited by stack depth.
func ParseCall(text string, pos *int, factory *CallFactory) (*Node, error) {
	var (
		current *Node
		top     *Node
		i       = *pos
	)

	for i < len(text) {
		switch text[i] {
		case ' ':
			i++
		case '(':
			i++
			start := i
			for i < len(text) && nameChar(text[i]) {
				i++
			}
			op := text[start:i]
			if op == "" {
				return nil, parseError(i, "missing operation")
			}
			n, err := factory.New(op)
			if err != nil {
				return nil, err
			}
			if top == nil {
				top = n
			}
			if current != nil {
				if err := current.AddChild(n); err != nil {
					return nil, err
				}
			}
			current = n
		case ')':
			if current == nil {
				return nil, parseError(i, "too many )")
			}
			i++
			if len(current.Parents()) == 0 {
				*pos = i
				return top, nil
			}
			current = current.Parents()[0]
		default:
			if current == nil {
				return nil, parseError(i, "naked literal")
			}
			child, err := ParseLiteralNode(text, &i)
			if err != nil {
				return nil, err
			}
			if err := current.AddChild(child); err != nil {
				return nil, err
			}
		}
	}

	return nil, parseError(i, "unterminated call")
}

// EmitLiteralName renders a literal name for emission: bare if it is a
// legal bare name, otherwise quoted with ' and \ escaped.
func EmitLiteralName(name string) string {
	bare := len(name) > 0 && nameStartChar(name[0])
	if bare {
		for i := 1; i < len(name); i++ {
			if !nameChar(name[i]) {
				bare = false
				break
			}
		}
	}
	if bare {
		return name
	}
	return quoteString(name)
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
	return b.String()
}

// EmitLiteral renders a Value in its literal text form, such that
// ParseLiteral reproduces the Value.
func EmitLiteral(v Value) string {
	var b strings.Builder
	if v.Name() != "" {
		b.WriteString(EmitLiteralName(v.Name()))
		b.WriteByte(':')
	}
	emitValue(&b, v)
	return b.String()
}

func emitValue(b *strings.Builder, v Value) {
	switch v.Kind() {
	case Null:
		b.WriteByte(':')
	case Number:
		n, _ := v.AsNumber()
		b.WriteString(strconv.FormatInt(n, 10))
	case Float:
		f, _ := v.AsFloat()
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		b.WriteString(s)
	case String:
		bs, _ := v.AsString()
		b.WriteString(quoteString(string(bs)))
	case List:
		l, _ := v.AsList()
		b.WriteByte('[')
		for i, e := range l.Values() {
			if i > 0 {
				b.WriteByte(' ')
			}
			emitValue(b, e)
		}
		b.WriteByte(']')
	}
}
