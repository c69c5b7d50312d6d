// Package view derives display subsequences from a cache snapshot.
package view

import "strings"

// Filter returns the order-preserving subsequence of records whose designated
// text field contains term, compared case-insensitively. An empty term yields
// the full sequence unchanged. The input is never mutated.
func Filter[T any](records []T, term string, field func(T) string) []T {
	if term == "" {
		return records
	}
	needle := strings.ToLower(term)
	var out []T
	for _, rec := range records {
		if strings.Contains(strings.ToLower(field(rec)), needle) {
			out = append(out, rec)
		}
	}
	return out
}
