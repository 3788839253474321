// Package collections provides containers whose storage lives on a kernel heap rather than the Go
// heap. Elements are plain numbers: the heap is memory the Go garbage collector does not scan, so
// it must never hold Go pointers.
package collections

import (
	"unsafe"

	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"golang.org/x/exp/constraints"
)

// Heap is the allocation service containers draw their storage from. *kheap.Heap implements it.
type Heap interface {
	Allocate(size int, alignment uint) physmem.Addr
	Deallocate(ptr physmem.Addr)
	Bytes(ptr physmem.Addr, n int) []byte
}

// Element is a type that can be stored in heap memory
type Element interface {
	constraints.Integer | constraints.Float
}

func elementLayout[T Element]() (size int, alignment uint) {
	var zero T
	return int(unsafe.Sizeof(zero)), uint(unsafe.Alignof(zero))
}

// view reinterprets count elements of heap memory at ptr as a slice
func view[T Element](heap Heap, ptr physmem.Addr, count int) []T {
	if count == 0 {
		return nil
	}

	size, _ := elementLayout[T]()
	data := heap.Bytes(ptr, count*size)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(data))), count)
}
