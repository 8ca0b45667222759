package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedKeepsNearest(t *testing.T) {
	b := NewBounded(3)

	for id, dist := range []float32{9, 1, 7, 3, 8, 2, 5} {
		b.Offer(Candidate{ID: uint32(id), Distance: dist})
	}

	require.Equal(t, 3, b.Len())

	got := b.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, []Candidate{
		{ID: 1, Distance: 1},
		{ID: 5, Distance: 2},
		{ID: 3, Distance: 3},
	}, got)
	assert.Equal(t, 0, b.Len())
}

func TestBoundedUnderfilled(t *testing.T) {
	b := NewBounded(10)

	b.Offer(Candidate{ID: 0, Distance: 4})
	b.Offer(Candidate{ID: 1, Distance: 2})

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].ID)
	assert.Equal(t, uint32(0), got[1].ID)
}

func TestBoundedEmpty(t *testing.T) {
	b := NewBounded(0)
	b.Offer(Candidate{ID: 0, Distance: 1})

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Drain())
}

func TestBoundedFarArrivalIgnored(t *testing.T) {
	b := NewBounded(2)
	b.Offer(Candidate{ID: 0, Distance: 1})
	b.Offer(Candidate{ID: 1, Distance: 2})
	b.Offer(Candidate{ID: 2, Distance: 3})

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, uint32(0), got[0].ID)
	assert.Equal(t, uint32(1), got[1].ID)
}
