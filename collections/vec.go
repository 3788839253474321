package collections

import (
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/OluwamayowaMusa/kratos/memutils/segment"
	"github.com/cockroachdb/errors"
)

const minVecCapacity = 4

// Vec is a growable array stored on a Heap. Growing allocates new storage, copies the elements
// over and frees the old storage. The zero Vec is not usable; create one with NewVec.
type Vec[T Element] struct {
	heap Heap
	ptr  physmem.Addr
	len  int
	cap  int
}

// NewVec creates an empty vector. No memory is allocated until the first Push or Reserve.
func NewVec[T Element](heap Heap) *Vec[T] {
	return &Vec[T]{heap: heap, ptr: segment.None}
}

// VecFrom creates a vector holding a copy of values
func VecFrom[T Element](heap Heap, values ...T) *Vec[T] {
	v := NewVec[T](heap)
	v.Reserve(len(values))
	copy(view[T](v.heap, v.ptr, v.cap), values)
	v.len = len(values)
	return v
}

func (v *Vec[T]) Len() int { return v.len }

func (v *Vec[T]) Cap() int { return v.cap }

// Reserve grows the vector's storage so that at least additional more elements fit without
// another allocation
func (v *Vec[T]) Reserve(additional int) {
	if additional < 0 {
		panic(errors.AssertionFailedf("cannot reserve %d elements", additional))
	}
	if v.len+additional <= v.cap {
		return
	}

	v.grow(v.len + additional)
}

func (v *Vec[T]) grow(required int) {
	capacity := v.cap * 2
	if capacity < minVecCapacity {
		capacity = minVecCapacity
	}
	if capacity < required {
		capacity = required
	}

	size, alignment := elementLayout[T]()
	ptr := v.heap.Allocate(capacity*size, alignment)
	copy(view[T](v.heap, ptr, capacity), v.Values())

	if v.cap > 0 {
		v.heap.Deallocate(v.ptr)
	}

	v.ptr = ptr
	v.cap = capacity
}

// Push appends value to the end of the vector
func (v *Vec[T]) Push(value T) {
	if v.len == v.cap {
		v.grow(v.len + 1)
	}

	view[T](v.heap, v.ptr, v.cap)[v.len] = value
	v.len++
}

// Pop removes and returns the last element. It returns false if the vector is empty.
func (v *Vec[T]) Pop() (T, bool) {
	if v.len == 0 {
		var zero T
		return zero, false
	}

	v.len--
	return view[T](v.heap, v.ptr, v.cap)[v.len], true
}

func (v *Vec[T]) checkIndex(index int) {
	if index < 0 || index >= v.len {
		panic(errors.AssertionFailedf("index %d out of range for a vector of length %d", index, v.len))
	}
}

func (v *Vec[T]) Get(index int) T {
	v.checkIndex(index)
	return view[T](v.heap, v.ptr, v.len)[index]
}

func (v *Vec[T]) Set(index int, value T) {
	v.checkIndex(index)
	view[T](v.heap, v.ptr, v.len)[index] = value
}

// Swap exchanges the elements at indices i and j
func (v *Vec[T]) Swap(i, j int) {
	v.checkIndex(i)
	v.checkIndex(j)

	values := view[T](v.heap, v.ptr, v.len)
	values[i], values[j] = values[j], values[i]
}

// Values returns the elements as a slice aliasing heap memory. The slice is invalidated by any call
// that grows or frees the vector.
func (v *Vec[T]) Values() []T {
	return view[T](v.heap, v.ptr, v.len)
}

// Free gives the vector's storage back to the heap and leaves it empty
func (v *Vec[T]) Free() {
	if v.cap > 0 {
		v.heap.Deallocate(v.ptr)
	}

	v.ptr = segment.None
	v.len = 0
	v.cap = 0
}
