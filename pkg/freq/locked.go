package freq

import (
	"sync"

	"github.com/google/btree"
)

// LockedTable guards an ordered tree with a single mutex. Every increment and
// every snapshot goes through the same lock.
type LockedTable struct {
	mu    sync.Mutex
	tree  *btree.BTreeG[Entry]
	total int
}

func NewLocked() *LockedTable {
	return &LockedTable{tree: newTree()}
}

func (t *LockedTable) Increment(token string) {
	t.Add(token, 1)
}

// Add adds n occurrences of token. Non-positive n is ignored.
func (t *LockedTable) Add(token string, n int) {
	if n <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, _ := t.tree.Get(Entry{Token: token})
	e.Token = token
	e.Count += n
	t.tree.ReplaceOrInsert(e)
	t.total += n
}

// Snapshot clones the tree under the lock. The clone is copy-on-write, so
// taking it is cheap and later increments never show through.
func (t *LockedTable) Snapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return &Snapshot{tree: t.tree.Clone(), total: t.total}
}
