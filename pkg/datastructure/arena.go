package datastructure

type NodeIndex int32
type SegIndex int32
type WayIndex int32

const (
	INVALID_NODE NodeIndex = -1
	INVALID_SEG  SegIndex  = -1
	INVALID_WAY  WayIndex  = -1
)

// Arena. growable storage with stable indexes. a pointer from Get is valid only until the next Alloc,
// so other structures keep indexes rather than pointers.
type Arena[T any] struct {
	items []T
}

func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacity)}
}

func (a *Arena[T]) Alloc(item T) int {
	a.items = append(a.items, item)
	return len(a.items) - 1
}

func (a *Arena[T]) Get(i int) *T {
	return &a.items[i]
}

func (a *Arena[T]) Len() int {
	return len(a.items)
}

func (a *Arena[T]) Reserve(n int) {
	if cap(a.items)-len(a.items) >= n {
		return
	}
	items := make([]T, len(a.items), len(a.items)+n)
	copy(items, a.items)
	a.items = items
}

func (a *Arena[T]) ForEach(fn func(i int, item *T)) {
	for i := range a.items {
		fn(i, &a.items[i])
	}
}

func (a *Arena[T]) Reset() {
	a.items = a.items[:0]
}
