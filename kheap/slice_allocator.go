package kheap

import (
	"github.com/OluwamayowaMusa/kratos/memutils"
	"github.com/cockroachdb/errors"
)

// DefaultSliceAlignment is the alignment of slices handed out by a SliceAllocator created with
// alignment 0. It is enough for any scalar type.
const DefaultSliceAlignment uint = 16

// Allocator hands out byte slices that live outside the Go heap
type Allocator interface {
	// Allocate returns a slice of length size
	Allocate(size int) []byte
	// Reallocate returns a slice of length size holding the leading bytes of b. b must not be used
	// afterward.
	Reallocate(size int, b []byte) []byte
	// Free returns b to the allocator
	Free(b []byte)
}

// SliceAllocator is an Allocator over a Heap
type SliceAllocator struct {
	heap      *Heap
	alignment uint
}

var _ Allocator = &SliceAllocator{}

// NewSliceAllocator creates an Allocator whose slices are aligned to alignment, a power of two.
// 0 selects DefaultSliceAlignment.
func NewSliceAllocator(heap *Heap, alignment uint) (*SliceAllocator, error) {
	if heap == nil {
		return nil, errors.New("a slice allocator requires a heap")
	}
	if alignment == 0 {
		alignment = DefaultSliceAlignment
	}
	if err := memutils.CheckPow2(alignment, "alignment"); err != nil {
		return nil, err
	}

	return &SliceAllocator{heap: heap, alignment: alignment}, nil
}

func (a *SliceAllocator) Allocate(size int) []byte {
	if size == 0 {
		return []byte{}
	}

	ptr := a.heap.Allocate(size, a.alignment)
	return a.heap.Bytes(ptr, size)
}

func (a *SliceAllocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}

	newBytes := a.Allocate(size)
	copy(newBytes, b)
	a.Free(b)
	return newBytes
}

func (a *SliceAllocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}

	ptr, ok := a.heap.memory.AddrOf(b)
	if !ok {
		panic(errors.Mark(errors.AssertionFailedf("freed slice does not point into the heap"), memutils.ErrInvalidFree))
	}

	a.heap.Deallocate(ptr)
}
