// Package queue provides a bounded candidate heap for nearest-neighbor
// search.
package queue

// Candidate is one search candidate: a vector position and its distance to
// the query.
type Candidate struct {
	ID       uint32
	Distance float32
}

// Bounded keeps the k nearest candidates seen so far. It is a max-heap on
// distance: the root is the farthest kept candidate, so a nearer arrival
// replaces it in O(log k). Value-based storage keeps the search hot path
// allocation-free after construction.
type Bounded struct {
	limit int
	items []Candidate
}

// NewBounded creates a heap that retains at most k candidates.
func NewBounded(k int) *Bounded {
	return &Bounded{
		limit: k,
		items: make([]Candidate, 0, k),
	}
}

// Len returns the number of candidates currently held.
func (b *Bounded) Len() int {
	return len(b.items)
}

// Offer considers a candidate: it is kept if the heap is not full yet, or if
// it is nearer than the farthest kept candidate (which it then evicts).
func (b *Bounded) Offer(c Candidate) {
	if len(b.items) < b.limit {
		b.items = append(b.items, c)
		b.up(len(b.items) - 1)
		return
	}
	if b.limit > 0 && c.Distance < b.items[0].Distance {
		b.items[0] = c
		b.down(0)
	}
}

// Drain removes all candidates and returns them nearest-first. The heap is
// empty afterwards.
func (b *Bounded) Drain() []Candidate {
	out := make([]Candidate, len(b.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = b.items[0]
		last := len(b.items) - 1
		b.items[0] = b.items[last]
		b.items = b.items[:last]
		b.down(0)
	}
	return out
}

func (b *Bounded) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if b.items[i].Distance <= b.items[parent].Distance {
			return
		}
		b.items[i], b.items[parent] = b.items[parent], b.items[i]
		i = parent
	}
}

func (b *Bounded) down(i int) {
	n := len(b.items)
	for {
		child := 2*i + 1
		if child >= n {
			return
		}
		if right := child + 1; right < n && b.items[right].Distance > b.items[child].Distance {
			child = right
		}
		if b.items[child].Distance <= b.items[i].Distance {
			return
		}
		b.items[i], b.items[child] = b.items[child], b.items[i]
		i = child
	}
}
