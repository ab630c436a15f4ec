// Package intent defines the canonical Intent Model (DIM): the deeply
// immutable tree produced by canonicalization, plus the erased Value type
// used for heterogeneous payload storage in facts and stage-transaction
// proposals.
//
// Per the "dynamic dictionaries of opaque object values" design note, Value
// is a closed set of admitted shapes rather than an unconstrained
// interface{} — every admitted shape implements StructuralEqual itself, so
// callers never fall back to reflection.
package intent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is the erased payload type admitted into a Fact or a Stage
// Transaction proposal. Concrete kinds: Null, Scalar, List, Map, Raw.
type Value interface {
	// StructuralEqual reports whether other is structurally equal to this
	// value, per spec.md §4.3: reference-identical is equal; both-null is
	// equal; one-null is unequal; same-shape sequences compare
	// element-wise in iteration order; otherwise host-level equality.
	StructuralEqual(other Value) bool

	// AsJSON renders the value as canonical-adjacent JSON for hashing and
	// for storage in the in-memory KV layer.
	AsJSON() ([]byte, error)
}

// Null is the sole representation of an absent/null value. Two Nulls are
// always structurally equal.
type Null struct{}

func (Null) StructuralEqual(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (Null) AsJSON() ([]byte, error) { return []byte("null"), nil }

// Scalar holds a bool, a number, or a string leaf.
//
// Numeric comparison is by value across int64/float64 representations (an
// integer 42 and a floating-point 42.0 are compatible, per the monotonic
// knowledge testable properties in spec.md §8). String comparison is
// case-insensitive, for the same reason.
type Scalar struct {
	kind scalarKind
	b    bool
	n    float64
	s    string
}

type scalarKind int

const (
	scalarBool scalarKind = iota
	scalarNumber
	scalarString
)

func Bool(v bool) Scalar    { return Scalar{kind: scalarBool, b: v} }
func Number(v float64) Scalar { return Scalar{kind: scalarNumber, n: v} }
func String(v string) Scalar { return Scalar{kind: scalarString, s: v} }

func (s Scalar) StructuralEqual(other Value) bool {
	o, ok := other.(Scalar)
	if !ok {
		return false
	}
	switch {
	case s.kind == scalarNumber && o.kind == scalarNumber:
		return s.n == o.n
	case s.kind == scalarString && o.kind == scalarString:
		return strings.EqualFold(s.s, o.s)
	case s.kind == scalarBool && o.kind == scalarBool:
		return s.b == o.b
	default:
		return false
	}
}

func (s Scalar) AsJSON() ([]byte, error) {
	switch s.kind {
	case scalarBool:
		return json.Marshal(s.b)
	case scalarNumber:
		return json.Marshal(s.n)
	case scalarString:
		return json.Marshal(s.s)
	default:
		return nil, fmt.Errorf("intent: unknown scalar kind %d", s.kind)
	}
}

// List is an ordered sequence of Values. Equality is element-wise, in
// iteration order — reordering a List produces a structurally different
// value, unlike the sorted maps the canonicalizer produces.
type List struct {
	Items []Value
}

func (l List) StructuralEqual(other Value) bool {
	o, ok := other.(List)
	if !ok || len(l.Items) != len(o.Items) {
		return false
	}
	for i := range l.Items {
		if !valueEqual(l.Items[i], o.Items[i]) {
			return false
		}
	}
	return true
}

func (l List) AsJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(l.Items))
	for i, item := range l.Items {
		b, err := item.AsJSON()
		if err != nil {
			return nil, err
		}
		raw[i] = b
	}
	return json.Marshal(raw)
}

// Map is an ordered string-keyed map. Iteration (and JSON rendering) is
// always in sorted key order, so two Maps with the same entries in
// different insertion order render identical JSON and compare equal.
type Map struct {
	entries map[string]Value
}

// NewMap builds a Map from the given entries.
func NewMap(entries map[string]Value) Map {
	m := Map{entries: make(map[string]Value, len(entries))}
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

// Get returns the value at key and whether it was present.
func (m Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Keys returns the map's keys in sorted ordinal order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Map) StructuralEqual(other Value) bool {
	o, ok := other.(Map)
	if !ok || len(m.entries) != len(o.entries) {
		return false
	}
	for k, v := range m.entries {
		ov, present := o.entries[k]
		if !present || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

func (m Map) AsJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := m.entries[k].AsJSON()
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Raw wraps an opaque byte blob (e.g. a pre-rendered artifact body) that
// does not participate in recursive structural comparison beyond a direct
// byte match.
type Raw struct {
	Bytes []byte
}

func (r Raw) StructuralEqual(other Value) bool {
	o, ok := other.(Raw)
	if !ok || len(r.Bytes) != len(o.Bytes) {
		return false
	}
	for i := range r.Bytes {
		if r.Bytes[i] != o.Bytes[i] {
			return false
		}
	}
	return true
}

func (r Raw) AsJSON() ([]byte, error) {
	return json.Marshal(r.Bytes)
}

// valueEqual implements the reference-identical / both-null / one-null
// rules from spec.md §4.3 before delegating to the concrete kind's
// StructuralEqual.
func valueEqual(a, b Value) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	_, aNull := a.(Null)
	_, bNull := b.(Null)
	if aNull && bNull {
		return true
	}
	if aNull != bNull {
		return false
	}
	return a.StructuralEqual(b)
}

// Equal is the exported entry point other packages use to compare two
// payloads per spec.md §4.3's structural-equality rules.
func Equal(a, b Value) bool {
	return valueEqual(a, b)
}
