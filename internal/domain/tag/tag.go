// Package tag holds the attribute tag set used to describe venues and queries.
package tag

import (
	"fmt"
	"sort"
	"strings"
)

// MaxTagLength is the maximum allowed length of a single tag.
const MaxTagLength = 64

// Set is an immutable, sorted, duplicate-free set of normalized tags.
// The zero value is an empty set.
type Set struct {
	values []string
}

// Normalize lower-cases and trims a tag. Spaces and underscores become dashes,
// so "Outdoor Seating" and "outdoor_seating" are the same tag.
func Normalize(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.NewReplacer(" ", "-", "_", "-").Replace(t)
	return t
}

// New builds a Set from raw tags. Duplicates collapse; empty tags and tags
// containing a comma (the list separator) are rejected.
func New(raw ...string) (Set, error) {
	if len(raw) == 0 {
		return Set{}, nil
	}
	seen := make(map[string]struct{}, len(raw))
	values := make([]string, 0, len(raw))
	for _, r := range raw {
		t := Normalize(r)
		if t == "" {
			return Set{}, fmt.Errorf("empty tag")
		}
		if len(t) > MaxTagLength {
			return Set{}, fmt.Errorf("tag %q too long (max %d chars)", t, MaxTagLength)
		}
		if strings.ContainsRune(t, ',') {
			return Set{}, fmt.Errorf("tag %q must not contain a comma", t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		values = append(values, t)
	}
	sort.Strings(values)
	return Set{values: values}, nil
}

// MustNew is New that panics on error. Intended for tests and constants.
func MustNew(raw ...string) Set {
	s, err := New(raw...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of tags.
func (s Set) Len() int { return len(s.values) }

// IsEmpty reports whether the set has no tags.
func (s Set) IsEmpty() bool { return len(s.values) == 0 }

// Values returns a copy of the tags in ascending order.
func (s Set) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Contains reports whether t (normalized) is in the set.
func (s Set) Contains(t string) bool {
	t = Normalize(t)
	i := sort.SearchStrings(s.values, t)
	return i < len(s.values) && s.values[i] == t
}

// ContainsAll reports whether every tag of other is in s.
func (s Set) ContainsAll(other Set) bool {
	if other.Len() > s.Len() {
		return false
	}
	// both sorted: single merge pass
	i := 0
	for _, t := range other.values {
		for i < len(s.values) && s.values[i] < t {
			i++
		}
		if i == len(s.values) || s.values[i] != t {
			return false
		}
		i++
	}
	return true
}

// Intersect returns the tags present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make([]string, 0, min(s.Len(), other.Len()))
	i, j := 0, 0
	for i < len(s.values) && j < len(other.values) {
		switch {
		case s.values[i] == other.values[j]:
			out = append(out, s.values[i])
			i++
			j++
		case s.values[i] < other.values[j]:
			i++
		default:
			j++
		}
	}
	return Set{values: out}
}

// Difference returns the tags of s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make([]string, 0, s.Len())
	j := 0
	for _, t := range s.values {
		for j < len(other.values) && other.values[j] < t {
			j++
		}
		if j < len(other.values) && other.values[j] == t {
			continue
		}
		out = append(out, t)
	}
	return Set{values: out}
}

// String joins the tags with commas.
func (s Set) String() string {
	return strings.Join(s.values, ",")
}

// Parse splits a comma-separated list into a Set.
func Parse(csv string) (Set, error) {
	if strings.TrimSpace(csv) == "" {
		return Set{}, nil
	}
	parts := strings.Split(csv, ",")
	raw := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		raw = append(raw, p)
	}
	return New(raw...)
}
