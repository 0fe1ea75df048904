package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinHeap(t *testing.T) {
	testCases := []struct {
		name  string
		d     int
		ranks []int
	}{
		{name: "binary", d: 2, ranks: []int{5, 3, 9, 1, 1, 7, 2, 8}},
		{name: "four ary", d: 4, ranks: []int{10, 4, 6, 0, 3, 3, 12, 11, 1, 5}},
		{name: "single", d: 4, ranks: []int{42}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewdAryHeap[int](tc.d)
			h.Preallocate(len(tc.ranks))
			for i, r := range tc.ranks {
				h.Insert(NewPriorityQueueNode(r, i))
			}
			assert.Equal(t, len(tc.ranks), h.Size())

			prev := -1
			for !h.IsEmpty() {
				n, err := h.ExtractMin()
				if err != nil {
					t.Fatalf("extract: %v", err)
				}
				assert.GreaterOrEqual(t, n.GetRank(), prev)
				assert.Equal(t, tc.ranks[n.GetItem()], n.GetRank())
				assert.False(t, n.InHeap())
				prev = n.GetRank()
			}
			_, err := h.ExtractMin()
			assert.ErrorIs(t, err, ErrHeapEmpty)
		})
	}
}

func TestMinHeapDecreaseKey(t *testing.T) {
	h := NewFourAryHeap[string]()
	a := NewPriorityQueueNode(10, "a")
	b := NewPriorityQueueNode(20, "b")
	c := NewPriorityQueueNode(30, "c")
	h.Insert(a)
	h.Insert(b)
	h.Insert(c)

	assert.NoError(t, h.DecreaseKey(c, 5))
	top, err := h.Peek()
	assert.NoError(t, err)
	assert.Equal(t, "c", top.GetItem())

	assert.ErrorIs(t, h.DecreaseKey(b, 25), ErrInvalidDecrease)

	first, _ := h.ExtractMin()
	assert.Equal(t, "c", first.GetItem())
	assert.ErrorIs(t, h.DecreaseKey(c, 1), ErrInvalidDecrease)

	h.RemoveAll()
	assert.True(t, h.IsEmpty())
	assert.False(t, a.InHeap())
	assert.ErrorIs(t, h.DecreaseKey(a, 1), ErrInvalidDecrease)
}
