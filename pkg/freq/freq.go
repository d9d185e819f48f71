// Package freq holds the shared word frequency table that concurrent
// tokenizing tasks fold their counts into.
package freq

import (
	"fmt"

	"github.com/google/btree"
)

const (
	KindLocked  = "locked"
	KindSharded = "sharded"

	// DefaultShards is used by New when a sharded table is asked for with a
	// non-positive shard count.
	DefaultShards = 16

	treeDegree = 32
)

// Entry is a token with its occurrence count.
type Entry struct {
	Token string `json:"token" yaml:"token"`
	Count int    `json:"count" yaml:"count"`
}

// Table is a frequency table safe for concurrent use.
//
// Increment and Add are atomic per call: concurrent callers never lose or
// double count an update. Snapshot returns a point-in-time view that later
// mutations do not affect.
type Table interface {
	Increment(token string)
	Add(token string, n int)
	Snapshot() *Snapshot
}

// New builds a table of the given kind. shards is ignored for locked tables.
func New(kind string, shards int) (Table, error) {
	switch kind {
	case "", KindLocked:
		return NewLocked(), nil
	case KindSharded:
		if shards <= 0 {
			shards = DefaultShards
		}
		return NewSharded(shards), nil
	default:
		return nil, fmt.Errorf("unknown table kind %q (want %q or %q)", kind, KindLocked, KindSharded)
	}
}

func lessEntry(a, b Entry) bool {
	return a.Token < b.Token
}

func newTree() *btree.BTreeG[Entry] {
	return btree.NewG[Entry](treeDegree, lessEntry)
}
