package models

import (
	"slices"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindTime
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindList:
		return "list"
	default:
		return "string"
	}
}

// Value is a metadata value: a string, a timestamp or an ordered list of
// strings. The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	t    time.Time
	list []string
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Time constructs a timestamp Value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// List constructs a list Value. The slice is copied.
func List(items []string) Value {
	return Value{kind: KindList, list: slices.Clone(items)}
}

func (v Value) Kind() Kind { return v.kind }

// Str returns the string form of v. Timestamps render as RFC 3339 and lists
// are joined with ", ".
func (v Value) Str() string {
	switch v.kind {
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return v.str
	}
}

// Time returns the timestamp and whether v holds one.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// List returns a copy of the list and whether v holds one.
func (v Value) List() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Interface returns the plain Go value used in template contexts.
func (v Value) Interface() any {
	switch v.kind {
	case KindTime:
		return v.t
	case KindList:
		return slices.Clone(v.list)
	default:
		return v.str
	}
}

// Metadata maps lowercased keys to values.
type Metadata map[string]Value

// Date returns the parsed date, if any.
func (m Metadata) Date() (time.Time, bool) {
	v, ok := m["date"]
	if !ok {
		return time.Time{}, false
	}
	return v.Time()
}

// Tags returns the tag list, or nil.
func (m Metadata) Tags() []string {
	v, ok := m["tags"]
	if !ok {
		return nil
	}
	tags, _ := v.List()
	return tags
}

// Get returns the string form of key, or "".
func (m Metadata) Get(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return v.Str()
}
