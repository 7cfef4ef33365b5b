package outline

import (
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Attrs is the ordered attribute map of an Outline. Keys are unique and keep
// their insertion order. The zero value is an empty map ready to use.
type Attrs struct {
	m *orderedmap.OrderedMap[string, string]
}

func (a *Attrs) init() {
	if a.m == nil {
		a.m = orderedmap.New[string, string]()
	}
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a.m == nil {
		return 0
	}
	return a.m.Len()
}

// Get returns the value stored under key.
func (a *Attrs) Get(key string) (string, bool) {
	if a.m == nil {
		return "", false
	}
	return a.m.Get(key)
}

// Has reports whether key is present.
func (a *Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (a *Attrs) Set(key, value string) {
	a.init()
	a.m.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (a *Attrs) Delete(key string) bool {
	if a.m == nil {
		return false
	}
	_, ok := a.m.Delete(key)
	return ok
}

// MoveToFront moves an existing key to the first position.
func (a *Attrs) MoveToFront(key string) {
	if a.m == nil {
		return
	}
	_ = a.m.MoveToFront(key)
}

// Keys returns the keys in order.
func (a *Attrs) Keys() []string {
	keys := make([]string, 0, a.Len())
	for k := range a.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates key/value pairs in insertion order.
func (a *Attrs) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if a.m == nil {
			return
		}
		for p := a.m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Fields returns the value of key split on whitespace, the list encoding
// used by attributes such as tags and sequence.
func (a *Attrs) Fields(key string) []string {
	v, ok := a.Get(key)
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// SetFields stores a list value as a space-separated line.
func (a *Attrs) SetFields(key string, values []string) {
	a.Set(key, strings.Join(values, " "))
}

// Equal compares two maps by content. Order is not significant.
func (a *Attrs) Equal(b *Attrs) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, v := range a.All() {
		if w, ok := b.Get(k); !ok || w != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (a *Attrs) Clone() Attrs {
	var c Attrs
	for k, v := range a.All() {
		c.Set(k, v)
	}
	return c
}
