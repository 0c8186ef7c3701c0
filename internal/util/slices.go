package util

// FindBy returns the index and value of the first element matching pred.
// The index is -1 when nothing matches.
func FindBy[T any](items []T, pred func(T) bool) (int, T, bool) {
	for i, item := range items {
		if pred(item) {
			return i, item, true
		}
	}
	var zero T
	return -1, zero, false
}

// UniqueBy drops elements whose key was already seen, keeping the first one
func UniqueBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
