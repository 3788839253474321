package kheap

import (
	"context"
	"sync/atomic"

	"github.com/OluwamayowaMusa/kratos/kheap/internal/utils"
	"github.com/OluwamayowaMusa/kratos/memutils"
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/OluwamayowaMusa/kratos/memutils/segment"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// Heap is a first-fit allocator over one contiguous range of physical memory. Free space is kept
// in a singly linked list of FreeSegment headers written into the memory itself, ordered by
// address, with adjacent segments always merged. Allocations are carved from the top of the first
// free segment that can hold them, so allocating never adds a node to the list.
//
// Failures are fatal: Init panics on a memory map it cannot use, and Allocate panics when no free
// segment can hold the request. A kernel has no caller able to recover from either.
type Heap struct {
	logger      *slog.Logger
	memory      physmem.Memory
	mutex       utils.OptionalRWMutex
	createFlags CreateFlags
	callbacks   memoryCallbacks
	tracker     *allocationTracker

	kernelLoadOffset uint64

	// head is the address of the lowest free segment header
	head        atomic.Uint64
	initialized atomic.Bool
	destroyed   atomic.Bool

	// start is the header address of the root segment, end is one past the last heap byte
	start physmem.Addr
	end   physmem.Addr
}

func bootConfigError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), memutils.ErrBootConfig)
}

// Init carves the root free segment out of the memory region the kernel image was loaded into.
// The region is the one starting KernelLoadOffset bytes below kernelStart; everything up to
// kernelEnd belongs to the firmware and the kernel image, and the rest becomes the heap.
//
// Init panics with an error marked memutils.ErrBootConfig if no such region exists or the region
// cannot hold the heap, and panics if the heap was already initialized.
func (h *Heap) Init(regions []Region, kernelStart, kernelEnd physmem.Addr) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initialized.CompareAndSwap(false, true) {
		panic(errors.AssertionFailedf("heap is already initialized"))
	}

	if uint64(kernelStart) < h.kernelLoadOffset {
		panic(bootConfigError("kernel load address %s is below the kernel load offset %d", kernelStart, h.kernelLoadOffset))
	}

	base := kernelStart - physmem.Addr(h.kernelLoadOffset)
	regionIndex := slices.IndexFunc(regions, func(region Region) bool {
		return region.Base == base
	})
	if regionIndex < 0 {
		panic(bootConfigError("failed to find the memory region holding the kernel: no region starts at %s", base))
	}
	region := regions[regionIndex]

	if kernelEnd < kernelStart || kernelEnd > region.End() {
		panic(bootConfigError("kernel image [%s, %s) does not lie within the memory region [%s, %s)",
			kernelStart, kernelEnd, region.Base, region.End()))
	}

	reserved := uint64(kernelEnd - region.Base)
	if region.Length-reserved < uint64(segment.HeaderSize) {
		panic(bootConfigError("memory region [%s, %s) has no room for a heap after the kernel image",
			region.Base, region.End()))
	}
	usable := region.Length - reserved - uint64(segment.HeaderSize)

	if !h.memory.Contains(kernelEnd, int(region.Length-reserved)) {
		panic(bootConfigError("heap range [%s, %s) is not backed by physical memory [%s, %s)",
			kernelEnd, region.End(), h.memory.Base(), h.memory.Base()+physmem.Addr(h.memory.Size())))
	}

	root := segment.WriteFree(h.memory, kernelEnd, int(usable), segment.None)
	h.start = root.Addr()
	h.end = region.End()
	h.head.Store(uint64(root.Addr()))

	h.logger.Info("heap initialized",
		slog.String("Start", root.Start().String()),
		slog.String("End", h.end.String()),
		slog.Uint64("Reserved", reserved),
		slog.Int("Size", root.Size()),
	)
}

func (h *Heap) requireReady() {
	if h.destroyed.Load() {
		panic(errors.AssertionFailedf("heap has been destroyed"))
	}
	if !h.initialized.Load() {
		panic(errors.AssertionFailedf("heap is used before Init"))
	}
}

// Allocate returns the address of at least size writable bytes aligned to alignment, which must
// be a power of two (0 is treated as 1). The bytes do not overlap any other live allocation or
// heap metadata.
//
// Allocate panics with an error wrapping memutils.ErrOutOfMemory when no free segment can hold
// the request; the free list is left untouched in that case.
func (h *Heap) Allocate(size int, alignment uint) physmem.Addr {
	if size < 0 {
		panic(errors.AssertionFailedf("invalid allocation size: %d", size))
	}
	if alignment == 0 {
		alignment = 1
	}
	if err := memutils.CheckPow2(alignment, "alignment"); err != nil {
		panic(err)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.requireReady()
	memutils.DebugValidate(validateFunc(h.validate))

	reserveSize := size + memutils.DebugMargin
	for addr := physmem.Addr(h.head.Load()); addr != segment.None; {
		free := segment.Free(h.memory, addr)

		header, fits := headerFor(free, reserveSize, alignment)
		if !fits {
			addr = free.Next()
			continue
		}

		// The free segment keeps everything below the new header
		end := free.End()
		free.ResizeTo(header)
		used := segment.WriteUsed(h.memory, header, end)

		if memutils.DebugMargin > 0 {
			memutils.WriteMagicValue(h.memory.Bytes(end-physmem.Addr(memutils.DebugMargin), memutils.DebugMargin))
		}

		payload := used.Start()
		h.fillAllocation(payload, size, createdFillPattern)
		h.tracker.add(payload, size)
		h.callbacks.Allocate(payload, size)

		h.logger.Debug("Heap::Allocate",
			slog.Int("Size", size),
			slog.Uint64("Alignment", uint64(alignment)),
			slog.String("Payload", payload.String()),
			slog.Int("SegmentSize", used.Size()),
		)
		return payload
	}

	panic(errors.Wrapf(memutils.ErrOutOfMemory, "no free segment can hold %d bytes aligned to %d", size, alignment))
}

// headerFor returns where the header of a size-byte allocation aligned to alignment would go if it
// were carved from the top of free. It returns false if free is too small once alignment is paid.
func headerFor(free segment.FreeSegment, size int, alignment uint) (physmem.Addr, bool) {
	memutils.DebugCheckPow2(alignment, "alignment")

	start, end := free.Start(), free.End()
	if uint64(size) > uint64(end-start) {
		return 0, false
	}

	payload := memutils.AlignDown(end-physmem.Addr(size), alignment)
	if payload < start+physmem.Addr(segment.HeaderSize) {
		return 0, false
	}

	return payload - physmem.Addr(segment.HeaderSize), true
}

// Deallocate returns an allocation to the heap. ptr must have been returned by Allocate on this
// heap and not freed since; anything else is undefined behavior unless the heap was created with
// CreateTrackAllocations, in which case it panics with an error wrapping memutils.ErrInvalidFree.
func (h *Heap) Deallocate(ptr physmem.Addr) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.requireReady()
	memutils.DebugValidate(validateFunc(h.validate))

	h.tracker.requireLive(ptr)

	used := segment.HeaderOf(h.memory, ptr)
	size := used.Size()

	if memutils.DebugMargin > 0 &&
		!memutils.ValidateMagicValue(h.memory.Bytes(used.End()-physmem.Addr(memutils.DebugMargin), memutils.DebugMargin)) {
		panic(errors.AssertionFailedf("memory corruption detected after allocation at %s", ptr))
	}

	h.tracker.remove(ptr)
	h.callbacks.Free(ptr, size)
	h.fillAllocation(ptr, size-memutils.DebugMargin, destroyedFillPattern)

	h.insert(used.ToFree())

	h.logger.Debug("Heap::Deallocate",
		slog.String("Payload", ptr.String()),
		slog.Int("SegmentSize", size),
	)
}

// insert links a free segment into the address-ordered list and merges it with its neighbours.
// The segment must lie above the head: the root segment never leaves the list and every
// allocation is carved above it.
func (h *Heap) insert(node segment.FreeSegment) {
	for addr := physmem.Addr(h.head.Load()); addr != segment.None; {
		iterator := segment.Free(h.memory, addr)
		if iterator.Addr() >= node.Addr() {
			panic(errors.AssertionFailedf("freed segment %s does not lie above free segment %s",
				node.Addr(), iterator.Addr()))
		}

		next := iterator.Next()
		if next == segment.None || next > node.Addr() {
			iterator.SetNext(node.Addr())
			node.SetNext(next)

			if next != segment.None {
				if successor := segment.Free(h.memory, next); node.Adjacent(successor) {
					node.Absorb(successor)
				}
			}
			if iterator.Adjacent(node) {
				iterator.Absorb(node)
			}

			return
		}

		addr = next
	}

	panic(errors.AssertionFailedf("failed to insert free segment %s into an empty free list", node.Addr()))
}

// Bytes returns a view of n bytes of heap memory starting at ptr
func (h *Heap) Bytes(ptr physmem.Addr, n int) []byte {
	return h.memory.Bytes(ptr, n)
}

// UsableSize returns the number of bytes available at ptr, which is at least the size requested
// when ptr was allocated
func (h *Heap) UsableSize(ptr physmem.Addr) int {
	return segment.HeaderOf(h.memory, ptr).Size() - memutils.DebugMargin
}

// Start returns the header address of the root segment. Offsets reported by FreeList and
// PrintDetailedMap are relative to it.
func (h *Heap) Start() physmem.Addr { return h.start }

// End returns the address one past the last byte of the heap
func (h *Heap) End() physmem.Addr { return h.end }

// FreeSegment is one node of the free list, reported relative to the heap start
type FreeSegment struct {
	Offset int
	Size   int
}

// FreeList returns the free list in address order
func (h *Heap) FreeList() []FreeSegment {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var list []FreeSegment
	for addr := physmem.Addr(h.head.Load()); addr != segment.None; {
		free := segment.Free(h.memory, addr)
		list = append(list, FreeSegment{
			Offset: int(addr - h.start),
			Size:   free.Size(),
		})
		addr = free.Next()
	}

	return list
}

// Destroy releases the heap's physical memory. If allocations are still live it logs each of
// them, returns an error and keeps the memory.
func (h *Heap) Destroy() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.destroyed.Load() {
		return errors.New("heap has already been destroyed")
	}

	if h.initialized.Load() {
		var leaks int
		err := h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
			if !free {
				leaks++
				h.logUnreleasedMemory(header, size)
			}
			return nil
		})
		if err != nil {
			h.logger.LogAttrs(context.Background(),
				slog.LevelError,
				"[UNRELEASED MEMORY] error while iterating unreleased memory",
				slog.Any("error", err))
			return err
		}

		if leaks > 0 {
			return errors.Newf("%d allocations were not freed before the destruction of the heap", leaks)
		}
	}

	h.destroyed.Store(true)
	h.head.Store(uint64(segment.None))
	return h.memory.Release()
}

func (h *Heap) logUnreleasedMemory(header physmem.Addr, size int) {
	payload := header + physmem.Addr(segment.HeaderSize)
	attrs := []slog.Attr{
		slog.String("payload", payload.String()),
		slog.Int("offset", int(header-h.start)),
		slog.Int("size", size),
	}
	if requested, ok := h.tracker.requestedSize(payload); ok {
		attrs = append(attrs, slog.Int("requestedSize", requested))
	}

	h.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation", attrs...)
}

const (
	createdFillPattern   uint8 = 0xDC
	destroyedFillPattern uint8 = 0xEF
)

func (h *Heap) fillAllocation(payload physmem.Addr, size int, pattern uint8) {
	if !InitializeAllocs || size == 0 {
		return
	}

	data := h.memory.Bytes(payload, size)
	for i := range data {
		data[i] = pattern
	}
}
