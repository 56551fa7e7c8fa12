// Package equality implements the structural equivalence checker used by the
// test suite: models are compared per container by type-bucketed multisets of
// canonical element signatures. The checker never fails on mismatch; it
// returns a diagnostic instead.
package equality

import (
	"fmt"
	"sort"
	"strings"
)

// typeMap buckets canonical signatures by concrete element type; each bucket
// is a multiset.
type typeMap map[string]map[string]int

func (m typeMap) add(bucket, sig string) {
	if m[bucket] == nil {
		m[bucket] = make(map[string]int)
	}
	m[bucket][sig]++
}

// compareTypeMaps renders the per-bucket symmetric differences of two
// containers, or "" when they are pointwise equal.
func compareTypeMaps(containerID string, a, b typeMap) string {
	var errors []string

	buckets := make(map[string]bool)
	for k := range a {
		buckets[k] = true
	}
	for k := range b {
		buckets[k] = true
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		onlyA := difference(a[k], b[k])
		onlyB := difference(b[k], a[k])
		if len(onlyA) == 0 && len(onlyB) == 0 {
			continue
		}
		errors = append(errors, fmt.Sprintf(
			"%s\n%s difference equality| 1 to 2: %v| 2 to 1: %v", containerID, k, onlyA, onlyB))
	}

	return strings.Join(errors, "\n")
}

// difference returns the signatures of a that b does not cover, sorted.
func difference(a, b map[string]int) []string {
	var out []string
	for sig, count := range a {
		if count > b[sig] {
			out = append(out, sig)
		}
	}
	sort.Strings(out)
	return out
}

// compString joins signature parts with a separator that cannot occur in
// ids.
func compString(parts ...any) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return strings.Join(strs, "|")
}

// derefName renders an optional name for signatures; nil and empty stay
// distinguishable from each other.
func derefName(name *string) string {
	if name == nil {
		return "<nil>"
	}
	return *name
}
