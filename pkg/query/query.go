// Package query holds QueryOptions, the immutable set of contexts
// used as the key for every permission lookup of a session.
package query

import (
	"sort"
	"strings"
)

// Well known context keys.
const (
	WorldKey         = "world"
	GameModeKey      = "gamemode"
	DimensionTypeKey = "dimension-type"
)

// Context is a single key/value pair of a context set.
// Keys are always lower case.
type Context struct {
	Key   string
	Value string
}

func (c Context) String() string { return c.Key + "=" + c.Value }

// QueryOptions is an immutable snapshot of the contexts a session is in.
// A new value is built on every change, existing values are never modified.
type QueryOptions struct {
	contexts []Context // sorted by key, then value; no duplicates
}

// Empty is the QueryOptions without any contexts.
var Empty = &QueryOptions{}

// New returns QueryOptions for the given contexts.
// Keys are lower-cased, empty keys or values are dropped
// and duplicates are removed.
func New(contexts ...Context) *QueryOptions {
	cs := make([]Context, 0, len(contexts))
	for _, c := range contexts {
		c.Key = strings.ToLower(strings.TrimSpace(c.Key))
		c.Value = strings.TrimSpace(c.Value)
		if c.Key == "" || c.Value == "" {
			continue
		}
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Key != cs[j].Key {
			return cs[i].Key < cs[j].Key
		}
		return cs[i].Value < cs[j].Value
	})
	// dedupe in place
	out := cs[:0]
	for i, c := range cs {
		if i > 0 && c == cs[i-1] {
			continue
		}
		out = append(out, c)
	}
	return &QueryOptions{contexts: out}
}

// Contexts returns a copy of the contexts.
func (q *QueryOptions) Contexts() []Context {
	if q == nil {
		return nil
	}
	return append([]Context(nil), q.contexts...)
}

// Values returns all values for key.
func (q *QueryOptions) Values(key string) []string {
	if q == nil {
		return nil
	}
	key = strings.ToLower(key)
	var values []string
	for _, c := range q.contexts {
		if c.Key == key {
			values = append(values, c.Value)
		}
	}
	return values
}

// Value returns the first value for key.
func (q *QueryOptions) Value(key string) (string, bool) {
	v := q.Values(key)
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Has reports whether the options contain the key/value pair.
// Values are compared case-insensitively.
func (q *QueryOptions) Has(key, value string) bool {
	for _, v := range q.Values(key) {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Len returns the number of contexts.
func (q *QueryOptions) Len() int {
	if q == nil {
		return 0
	}
	return len(q.contexts)
}

// Satisfies reports whether every context in required is also in q.
// An empty requirement is always satisfied.
func (q *QueryOptions) Satisfies(required *QueryOptions) bool {
	if required == nil {
		return true
	}
	for _, c := range required.contexts {
		if !q.Has(c.Key, c.Value) {
			return false
		}
	}
	return true
}

// Equal reports whether both options hold the same contexts.
func (q *QueryOptions) Equal(o *QueryOptions) bool {
	if q.Len() != o.Len() {
		return false
	}
	for i := 0; i < q.Len(); i++ {
		if q.contexts[i] != o.contexts[i] {
			return false
		}
	}
	return true
}

// String returns the contexts as "k=v,k=v".
func (q *QueryOptions) String() string {
	if q.Len() == 0 {
		return "{}"
	}
	parts := make([]string, len(q.contexts))
	for i, c := range q.contexts {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
