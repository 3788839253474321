package kheap

import (
	"math/bits"
	"strings"

	"github.com/OluwamayowaMusa/kratos/kheap/internal/utils"
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific heap behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateInternallySynchronized guards every heap operation with a mutex. The kernel heap assumes a
	// single thread of control and leaves this off; Go programs that share a heap between goroutines
	// must set it.
	CreateInternallySynchronized CreateFlags = 1 << iota
	// CreateTrackAllocations records every live payload in a table so that Deallocate can reject
	// pointers that were never allocated or were already freed. Without it, those are undefined
	// behavior.
	CreateTrackAllocations

	createFlagsAll = CreateInternallySynchronized | CreateTrackAllocations
)

var createFlagsMapping = map[CreateFlags]string{
	CreateInternallySynchronized: "CreateInternallySynchronized",
	CreateTrackAllocations:       "CreateTrackAllocations",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for remaining := uint32(f); remaining != 0; {
		bit := CreateFlags(1 << bits.TrailingZeros32(remaining))
		remaining &^= uint32(bit)

		name, ok := createFlagsMapping[bit]
		if !ok {
			name = "UnknownFlag"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// DefaultKernelLoadOffset is the distance between the start of the memory region the firmware
	// loads the kernel into and the kernel's own load address: 1 MiB.
	DefaultKernelLoadOffset uint64 = 1024 * 1024
)

// CreateOptions contains optional settings when creating a heap
type CreateOptions struct {
	// Flags indicates specific heap behaviors to activate or deactivate
	Flags CreateFlags

	// KernelLoadOffset is the distance in bytes from the base of the memory region holding the
	// kernel image to the kernel load address. It is a platform convention; leave it 0 to use
	// DefaultKernelLoadOffset.
	KernelLoadOffset uint64

	// MemoryCallbackOptions is an optional set of callbacks that will be executed after every
	// allocation and before every deallocation
	MemoryCallbackOptions *MemoryCallbackOptions
}

// Region is one entry of the physical memory map handed over at boot
type Region struct {
	Base   physmem.Addr
	Length uint64
}

// End is the address one past the last byte of the region
func (r Region) End() physmem.Addr {
	return r.Base + physmem.Addr(r.Length)
}

// New creates a heap over the provided physical memory. The heap cannot allocate until Init has
// carved its root segment.
//
// logger - Receives initialization, allocation and leak reports. nil selects slog.Default()
//
// memory - The physical memory the heap lives in. It must back the whole heap range Init selects.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, memory physmem.Memory, options CreateOptions) (*Heap, error) {
	if memory == nil {
		return nil, errors.New("kheap.New requires physical memory to manage")
	}
	if options.Flags&^createFlagsAll != 0 {
		return nil, errors.Newf("unknown heap create flags: %s", options.Flags&^createFlagsAll)
	}
	if logger == nil {
		logger = slog.Default()
	}

	heap := &Heap{
		logger:           logger,
		memory:           memory,
		createFlags:      options.Flags,
		kernelLoadOffset: options.KernelLoadOffset,
		mutex: utils.OptionalRWMutex{
			UseMutex: options.Flags&CreateInternallySynchronized != 0,
		},
	}
	heap.callbacks = memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Heap:      heap,
	}

	if heap.kernelLoadOffset == 0 {
		heap.kernelLoadOffset = DefaultKernelLoadOffset
	}

	if options.Flags&CreateTrackAllocations != 0 {
		heap.tracker = newAllocationTracker()
	}

	return heap, nil
}
