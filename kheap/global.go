package kheap

import (
	"sync/atomic"

	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/cockroachdb/errors"
)

var global atomic.Pointer[Heap]

// SetGlobal installs the process-wide heap used by the package-level Allocate and Deallocate. It
// can be called once; installing a second heap panics.
func SetGlobal(heap *Heap) {
	if heap == nil {
		panic(errors.AssertionFailedf("cannot install a nil global heap"))
	}
	if !global.CompareAndSwap(nil, heap) {
		panic(errors.AssertionFailedf("the global heap is already installed"))
	}
}

// Global returns the process-wide heap and panics if none was installed
func Global() *Heap {
	heap := global.Load()
	if heap == nil {
		panic(errors.AssertionFailedf("the global heap is used before SetGlobal"))
	}

	return heap
}

// Allocate allocates from the global heap
func Allocate(size int, alignment uint) physmem.Addr {
	return Global().Allocate(size, alignment)
}

// Deallocate frees an allocation of the global heap
func Deallocate(ptr physmem.Addr) {
	Global().Deallocate(ptr)
}
