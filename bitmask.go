package tsumiki

// typeSet is a growable bitset of type ids. Archetype nodes carry one so
// queries and pools can test set containment without walking the trie.
type typeSet []uint64

// has reports whether id is in the set.
func (s typeSet) has(id int) bool {
	i := id >> 6
	if id < 0 || i >= len(s) {
		return false
	}
	return s[i]&(uint64(1)<<uint(id&63)) != 0
}

// with returns a copy of s with id added. s is never modified, since nodes
// share their parent's set by value.
func (s typeSet) with(id int) typeSet {
	i := id >> 6
	n := len(s)
	if i >= n {
		n = i + 1
	}
	out := make(typeSet, n)
	copy(out, s)
	out[i] |= uint64(1) << uint(id&63)
	return out
}

// contains checks if every bit set in sub is also set in s.
func (s typeSet) contains(sub typeSet) bool {
	for i, w := range sub {
		if w == 0 {
			continue
		}
		if i >= len(s) || s[i]&w != w {
			return false
		}
	}
	return true
}

// equal compares two sets, ignoring trailing zero words.
func (s typeSet) equal(o typeSet) bool {
	return s.contains(o) && o.contains(s)
}

// count returns the number of ids in the set.
func (s typeSet) count() int {
	n := 0
	for _, w := range s {
		for w != 0 {
			w &= w - 1
			n++
		}
	}
	return n
}

// intersects reports whether s and o share any id.
func (s typeSet) intersects(o typeSet) bool {
	n := min(len(s), len(o))
	for i := range n {
		if s[i]&o[i] != 0 {
			return true
		}
	}
	return false
}
