package datastructure

import "errors"

var (
	ErrHeapEmpty       = errors.New("heap is empty")
	ErrInvalidDecrease = errors.New("item not in heap or new rank is larger")
)

// PriorityQueueNode. heap item handle, pos -1 once popped
type PriorityQueueNode[T any] struct {
	rank int
	item T
	pos  int
}

func NewPriorityQueueNode[T any](rank int, item T) *PriorityQueueNode[T] {
	return &PriorityQueueNode[T]{rank: rank, item: item, pos: -1}
}

func (p *PriorityQueueNode[T]) GetItem() T {
	return p.item
}

func (p *PriorityQueueNode[T]) GetRank() int {
	return p.rank
}

func (p *PriorityQueueNode[T]) InHeap() bool {
	return p.pos >= 0
}

// MinHeap. d-ary min heap on int rank (routing weight) with DecreaseKey through handles
type MinHeap[T any] struct {
	nodes []*PriorityQueueNode[T]
	d     int
}

func NewBinaryHeap[T any]() *MinHeap[T] {
	return NewdAryHeap[T](2)
}

func NewFourAryHeap[T any]() *MinHeap[T] {
	return NewdAryHeap[T](4)
}

func NewdAryHeap[T any](d int) *MinHeap[T] {
	if d < 2 {
		d = 2
	}
	return &MinHeap[T]{d: d}
}

func (h *MinHeap[T]) Preallocate(n int) {
	if cap(h.nodes) < n {
		nodes := make([]*PriorityQueueNode[T], len(h.nodes), n)
		copy(nodes, h.nodes)
		h.nodes = nodes
	}
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.nodes) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.nodes)
}

func (h *MinHeap[T]) swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
	h.nodes[i].pos = i
	h.nodes[j].pos = j
}

func (h *MinHeap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / h.d
		if h.nodes[p].rank <= h.nodes[i].rank {
			return
		}
		h.swap(i, p)
		i = p
	}
}

func (h *MinHeap[T]) siftDown(i int) {
	n := len(h.nodes)
	for {
		first := i*h.d + 1
		if first >= n {
			return
		}
		last := min(first+h.d, n)
		smallest := first
		for c := first + 1; c < last; c++ {
			if h.nodes[c].rank < h.nodes[smallest].rank {
				smallest = c
			}
		}
		if h.nodes[smallest].rank >= h.nodes[i].rank {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *MinHeap[T]) Insert(node *PriorityQueueNode[T]) {
	node.pos = len(h.nodes)
	h.nodes = append(h.nodes, node)
	h.siftUp(node.pos)
}

func (h *MinHeap[T]) Peek() (*PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return nil, ErrHeapEmpty
	}
	return h.nodes[0], nil
}

func (h *MinHeap[T]) ExtractMin() (*PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return nil, ErrHeapEmpty
	}
	root := h.nodes[0]
	last := len(h.nodes) - 1
	h.swap(0, last)
	h.nodes[last] = nil
	h.nodes = h.nodes[:last]
	root.pos = -1
	if last > 0 {
		h.siftDown(0)
	}
	return root, nil
}

func (h *MinHeap[T]) DecreaseKey(node *PriorityQueueNode[T], rank int) error {
	if !node.InHeap() || node.pos >= len(h.nodes) || h.nodes[node.pos] != node || rank > node.rank {
		return ErrInvalidDecrease
	}
	node.rank = rank
	h.siftUp(node.pos)
	return nil
}

// RemoveAll. empties the heap, keeping capacity
func (h *MinHeap[T]) RemoveAll() {
	for i, node := range h.nodes {
		node.pos = -1
		h.nodes[i] = nil
	}
	h.nodes = h.nodes[:0]
}
