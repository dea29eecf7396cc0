// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mvt

import (
	"fmt"
	"math"
)

type valueKind uint8

const (
	kindString valueKind = iota + 1
	kindFloat
	kindDouble
	kindInt
	kindUint
	kindSint
	kindBool
)

// Value is a typed attribute value.  Values are comparable; two values are
// equal only when both their kind and payload match exactly, so the float
// 1.0 and the int 1 are distinct.
type Value struct {
	kind valueKind
	s    string
	bits uint64
}

func StringValue(s string) Value { return Value{kind: kindString, s: s} }

func FloatValue(f float32) Value {
	return Value{kind: kindFloat, bits: uint64(math.Float32bits(f))}
}

func DoubleValue(d float64) Value {
	return Value{kind: kindDouble, bits: math.Float64bits(d)}
}

func IntValue(i int64) Value { return Value{kind: kindInt, bits: uint64(i)} }

func UintValue(u uint64) Value { return Value{kind: kindUint, bits: u} }

func SintValue(i int64) Value { return Value{kind: kindSint, bits: uint64(i)} }

func BoolValue(b bool) Value {
	v := Value{kind: kindBool}
	if b {
		v.bits = 1
	}

	return v
}

// Interface returns the Go value carried by v.
func (v Value) Interface() any {
	switch v.kind {
	case kindString:
		return v.s
	case kindFloat:
		return math.Float32frombits(uint32(v.bits))
	case kindDouble:
		return math.Float64frombits(v.bits)
	case kindInt, kindSint:
		return int64(v.bits)
	case kindUint:
		return v.bits
	case kindBool:
		return v.bits != 0
	default:
		return nil
	}
}

func (v Value) String() string {
	return fmt.Sprint(v.Interface())
}

// ValueTable assigns each distinct value an index, in order of first
// occurrence.  A table belongs to a single layer.
type ValueTable struct {
	index  map[Value]uint32
	values []Value
}

func NewValueTable() *ValueTable {
	return &ValueTable{index: make(map[Value]uint32)}
}

// Add returns the index of v, appending it when it has not been seen.
func (t *ValueTable) Add(v Value) uint32 {
	if i, ok := t.index[v]; ok {
		return i
	}

	i := uint32(len(t.values))
	t.index[v] = i
	t.values = append(t.values, v)

	return i
}

func (t *ValueTable) Len() int { return len(t.values) }

// AsArray returns the values in index order.
func (t *ValueTable) AsArray() []Value {
	return t.values
}

// KeyTable is the string counterpart of ValueTable for attribute keys.
type KeyTable struct {
	index map[string]uint32
	keys  []string
}

func NewKeyTable(keys ...string) *KeyTable {
	t := &KeyTable{index: make(map[string]uint32, len(keys))}

	for _, k := range keys {
		t.Add(k)
	}

	return t
}

func (t *KeyTable) Add(key string) uint32 {
	if i, ok := t.index[key]; ok {
		return i
	}

	i := uint32(len(t.keys))
	t.index[key] = i
	t.keys = append(t.keys, key)

	return i
}

func (t *KeyTable) AsArray() []string {
	return t.keys
}
