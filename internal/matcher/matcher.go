// Package matcher evaluates wildcard-equality and inclusive-range predicates
// used to decide which reference rules apply to a candidate product.
package matcher

import "strings"

// Matches reports whether candidate satisfies pattern. An empty pattern is the
// wildcard and matches any value; otherwise comparison is case-insensitive on
// trimmed values.
func Matches(candidate, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(candidate), pattern)
}

// InRange reports whether lo <= value <= hi. A nil bound is unbounded on
// that side.
func InRange(value float64, lo, hi *float64) bool {
	if lo != nil && value < *lo {
		return false
	}
	if hi != nil && value > *hi {
		return false
	}
	return true
}

// Predicate is a boolean test over a candidate of type T.
type Predicate[T any] func(T) bool

// Field builds a wildcard-equality predicate on the string extracted by get.
func Field[T any](get func(T) string, pattern string) Predicate[T] {
	return func(c T) bool {
		return Matches(get(c), pattern)
	}
}

// Range builds an inclusive numeric range predicate on the value extracted by get.
func Range[T any](get func(T) float64, lo, hi *float64) Predicate[T] {
	return func(c T) bool {
		return InRange(get(c), lo, hi)
	}
}

// All passes only when every predicate passes. With no predicates it always passes.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(c T) bool {
		for _, p := range preds {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

// Filter returns, in order, every candidate accepted by pred.
func Filter[T any](candidates []T, pred Predicate[T]) []T {
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}
