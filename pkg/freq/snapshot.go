package freq

import "github.com/google/btree"

// Snapshot is an immutable, lexically ordered view of a table.
type Snapshot struct {
	tree  *btree.BTreeG[Entry]
	total int
}

// NewSnapshot builds a snapshot from a plain map.
func NewSnapshot(counts map[string]int) *Snapshot {
	tree := newTree()
	total := 0
	for token, count := range counts {
		if count <= 0 {
			continue
		}
		tree.ReplaceOrInsert(Entry{Token: token, Count: count})
		total += count
	}
	return &Snapshot{tree: tree, total: total}
}

// Len is the number of distinct tokens.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.tree.Len()
}

// Total is the sum of all counts.
func (s *Snapshot) Total() int {
	if s == nil {
		return 0
	}
	return s.total
}

func (s *Snapshot) Get(token string) (int, bool) {
	if s == nil {
		return 0, false
	}
	e, ok := s.tree.Get(Entry{Token: token})
	return e.Count, ok
}

// Ascend calls fn for each entry in ascending token order until fn returns
// false.
func (s *Snapshot) Ascend(fn func(Entry) bool) {
	if s == nil {
		return
	}
	s.tree.Ascend(btree.ItemIteratorG[Entry](fn))
}

// Entries returns all entries in ascending token order.
func (s *Snapshot) Entries() []Entry {
	entries := make([]Entry, 0, s.Len())
	s.Ascend(func(e Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries
}

func (s *Snapshot) Map() map[string]int {
	m := make(map[string]int, s.Len())
	s.Ascend(func(e Entry) bool {
		m[e.Token] = e.Count
		return true
	})
	return m
}
