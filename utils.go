package tsumiki

// extendSlice extends a slice by n zeroed elements, reallocating if necessary.
func extendSlice[T any](s []T, n int) []T {
	newLen := len(s) + n
	if cap(s) >= newLen {
		s = s[:newLen]
		clear(s[newLen-n:])
		return s
	}
	newCap := max(2*cap(s), newLen)
	ns := make([]T, newLen, newCap)
	copy(ns, s)
	return ns
}

// popLast removes and returns the last element, clearing its slot.
func popLast[T any](s []T) ([]T, T) {
	var zero T
	n := len(s)
	if n == 0 {
		return s, zero
	}
	v := s[n-1]
	s[n-1] = zero
	return s[:n-1], v
}
