package scrape

// DedupSet is an insertion-ordered set of addresses. Duplicates discovered
// across overlapping listing pages are silently dropped, and the snapshot
// preserves first-seen order for deterministic output.
type DedupSet struct {
	seen  map[string]struct{}
	order []string
}

// NewDedupSet returns an empty set.
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// Add inserts the address and reports whether it was newly seen.
func (s *DedupSet) Add(address string) bool {
	if address == "" {
		return false
	}
	if _, ok := s.seen[address]; ok {
		return false
	}
	s.seen[address] = struct{}{}
	s.order = append(s.order, address)
	return true
}

// Len returns the number of unique addresses.
func (s *DedupSet) Len() int {
	return len(s.order)
}

// Snapshot returns all addresses in first-seen order.
func (s *DedupSet) Snapshot() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
