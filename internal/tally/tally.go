// Package tally counts labelled events from many goroutines and reports the
// most frequent labels.
package tally

import (
	"container/heap"
	"sync"
)

// Entry is one label with its count.
type Entry struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Counter counts events per label. It is safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int64
	total  int64
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

// Add records one event under label.
func (c *Counter) Add(label string) {
	c.mu.Lock()
	c.counts[label]++
	c.total++
	c.mu.Unlock()
}

// Total returns the number of events recorded.
func (c *Counter) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Count returns the events recorded under label.
func (c *Counter) Count(label string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[label]
}

// Top returns up to n labels by count, largest first. Ties are ordered by
// label. n <= 0 returns every label.
func (c *Counter) Top(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.counts) {
		n = len(c.counts)
	}

	h := &entryHeap{}
	for label, cnt := range c.counts {
		e := Entry{Label: label, Count: cnt}
		if h.Len() < n {
			heap.Push(h, e)
		} else if h.Len() > 0 && less((*h)[0], e) {
			(*h)[0] = e
			heap.Fix(h, 0)
		}
	}

	result := make([]Entry, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Entry)
	}
	return result
}

// less orders a below b: lower count first, then later label.
func less(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.Label > b.Label
}

// min-heap on less, so the root is the weakest entry kept
type entryHeap []Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(Entry)) }

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
