package utils

// UniqueUint64 removes duplicate values from a slice, preserving order.
func UniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// DiffUint64 returns the elements of a that are not in b, preserving order.
func DiffUint64(a, b []uint64) []uint64 {
	inB := make(map[uint64]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}

	var diff []uint64
	for _, v := range a {
		if _, exists := inB[v]; !exists {
			diff = append(diff, v)
		}
	}
	return diff
}

// ContainsUint64 reports whether v is present in values.
func ContainsUint64(values []uint64, v uint64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
