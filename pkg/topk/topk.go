// Package topk ranks the most frequent tokens of a frequency table.
package topk

import (
	"container/heap"
	"errors"
	"sort"

	"github.com/dtnitsch/wordfreq/pkg/freq"
)

// DefaultK is the ranking size used when none is configured.
const DefaultK = 10

var ErrInvalidK = errors.New("k must be positive")

// ranksBefore orders by count descending, then token ascending.
func ranksBefore(a, b freq.Entry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Token < b.Token
}

// minHeap keeps the k best entries seen so far, worst on top.
type minHeap []freq.Entry

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) {
	*h = append(*h, x.(freq.Entry))
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Top returns at most k entries of s ranked by count descending, ties broken
// by token in ascending byte order. A snapshot with fewer than k distinct
// tokens yields all of them.
func Top(s *freq.Snapshot, k int) ([]freq.Entry, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	limit := k
	if s.Len() < limit {
		limit = s.Len()
	}

	h := make(minHeap, 0, limit)
	s.Ascend(func(e freq.Entry) bool {
		switch {
		case len(h) < limit:
			heap.Push(&h, e)
		case ranksBefore(e, h[0]):
			h[0] = e
			heap.Fix(&h, 0)
		}
		return true
	})

	ranked := []freq.Entry(h)
	sort.Slice(ranked, func(i, j int) bool {
		return ranksBefore(ranked[i], ranked[j])
	})
	return ranked, nil
}

// FromMap ranks a plain token-count map.
func FromMap(counts map[string]int, k int) ([]freq.Entry, error) {
	return Top(freq.NewSnapshot(counts), k)
}
