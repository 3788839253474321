package collections

import (
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/OluwamayowaMusa/kratos/memutils/segment"
	"github.com/cockroachdb/errors"
)

// Box is a single value stored on a Heap
type Box[T Element] struct {
	heap Heap
	ptr  physmem.Addr
}

// NewBox allocates room for one value on heap and stores value there
func NewBox[T Element](heap Heap, value T) *Box[T] {
	size, alignment := elementLayout[T]()
	box := &Box[T]{
		heap: heap,
		ptr:  heap.Allocate(size, alignment),
	}
	box.Set(value)
	return box
}

func (b *Box[T]) slot() *T {
	if b.ptr == segment.None {
		panic(errors.AssertionFailedf("use of a freed box"))
	}

	return &view[T](b.heap, b.ptr, 1)[0]
}

// Addr is the heap address of the boxed value
func (b *Box[T]) Addr() physmem.Addr { return b.ptr }

func (b *Box[T]) Get() T { return *b.slot() }

func (b *Box[T]) Set(value T) { *b.slot() = value }

// Free gives the value's storage back to the heap. Freeing a box twice is a no-op.
func (b *Box[T]) Free() {
	if b.ptr == segment.None {
		return
	}

	b.heap.Deallocate(b.ptr)
	b.ptr = segment.None
}
