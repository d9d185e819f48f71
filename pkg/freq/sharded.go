package freq

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

type shard struct {
	mu     sync.Mutex
	counts map[string]int
}

// ShardedTable spreads tokens over independently locked shards, picked by a
// murmur3 hash of the token. A token always lands in the same shard, so its
// count is still updated under exactly one lock.
type ShardedTable struct {
	shards []*shard
}

func NewSharded(n int) *ShardedTable {
	if n <= 0 {
		n = DefaultShards
	}
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{counts: make(map[string]int)}
	}
	return &ShardedTable{shards: shards}
}

func (t *ShardedTable) shardFor(token string) *shard {
	return t.shards[murmur3.Sum64([]byte(token))%uint64(len(t.shards))]
}

func (t *ShardedTable) Increment(token string) {
	t.Add(token, 1)
}

func (t *ShardedTable) Add(token string, n int) {
	if n <= 0 {
		return
	}

	s := t.shardFor(token)
	s.mu.Lock()
	s.counts[token] += n
	s.mu.Unlock()
}

// Snapshot holds every shard lock at once, always acquired in index order,
// so the copy reflects a single point in time.
func (t *ShardedTable) Snapshot() *Snapshot {
	for _, s := range t.shards {
		s.mu.Lock()
	}
	defer func() {
		for _, s := range t.shards {
			s.mu.Unlock()
		}
	}()

	tree := newTree()
	total := 0
	for _, s := range t.shards {
		for token, count := range s.counts {
			tree.ReplaceOrInsert(Entry{Token: token, Count: count})
			total += count
		}
	}
	return &Snapshot{tree: tree, total: total}
}
