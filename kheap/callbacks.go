package kheap

import "github.com/OluwamayowaMusa/kratos/memutils/physmem"

// AllocateCallback is called after the heap hands out a payload. size is the number of bytes the
// caller requested.
type AllocateCallback func(
	heap *Heap,
	ptr physmem.Addr,
	size int,
	userData interface{},
)

// FreeCallback is called before the heap takes a payload back. size is the usable size of the
// segment being freed, which may exceed what was requested.
type FreeCallback func(
	heap *Heap,
	ptr physmem.Addr,
	size int,
	userData interface{},
)

// MemoryCallbackOptions lets the consumer observe allocations. Callbacks run while the heap is
// mid-operation and must not call back into the heap.
type MemoryCallbackOptions struct {
	Allocate AllocateCallback
	Free     FreeCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Heap      *Heap
}

func (c *memoryCallbacks) Allocate(ptr physmem.Addr, size int) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Heap, ptr, size, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Free(ptr physmem.Addr, size int) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Heap, ptr, size, c.Callbacks.UserData)
	}
}
