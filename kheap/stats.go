package kheap

import (
	"github.com/OluwamayowaMusa/kratos/memutils"
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/OluwamayowaMusa/kratos/memutils/segment"
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

type validateFunc func() error

func (f validateFunc) Validate() error { return f() }

// visitAllRegions walks the heap from its first header to its end. The heap is tiled by segments,
// so each header is followed by its payload and then by the next header. A header is free exactly
// when it is the next node of the free list.
func (h *Heap) visitAllRegions(handleSegment func(header physmem.Addr, size int, free bool) error) error {
	nextFree := physmem.Addr(h.head.Load())
	cursor := h.start

	for cursor < h.end {
		if !h.memory.Contains(cursor, segment.HeaderSize) {
			return errors.Newf("segment header at %s lies outside physical memory", cursor)
		}

		if cursor == nextFree {
			free := segment.Free(h.memory, cursor)
			if err := handleSegment(cursor, free.Size(), true); err != nil {
				return err
			}

			nextFree = free.Next()
			cursor = free.End()
			continue
		}

		used := segment.Used(h.memory, cursor)
		if err := handleSegment(cursor, used.Size(), false); err != nil {
			return err
		}
		cursor = used.End()
	}

	if cursor != h.end {
		return errors.Newf("the last segment ends at %s, past the end of the heap at %s", cursor, h.end)
	}

	return nil
}

// VisitAllRegions calls the provided callback once for each used and free segment of the heap, in
// address order. payload is the first byte after the segment header and size is the number of
// bytes that follow it. This walks the whole heap and should be reserved for diagnostics.
func (h *Heap) VisitAllRegions(handleSegment func(payload physmem.Addr, size int, free bool) error) error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.initialized.Load() || h.destroyed.Load() {
		return nil
	}

	return h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		return handleSegment(header+physmem.Addr(segment.HeaderSize), size, free)
	})
}

// Validate performs internal consistency checks on the heap: the free list is strictly ascending,
// no two free segments touch, and the segments tile the heap exactly. When the heap is
// functioning correctly, it should not be possible for this method to return an error.
func (h *Heap) Validate() error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.validate()
}

func (h *Heap) validate() error {
	if !h.initialized.Load() || h.destroyed.Load() {
		return nil
	}

	head := physmem.Addr(h.head.Load())
	if head != h.start {
		return errors.Newf("the free list head %s is not the root segment %s", head, h.start)
	}

	maxSegments := int(h.end-h.start) / segment.HeaderSize
	var listCount int
	var prev segment.FreeSegment

	for addr := head; addr != segment.None; {
		if addr < h.start || addr >= h.end || !h.memory.Contains(addr, segment.HeaderSize) {
			return errors.Newf("free segment %s lies outside the heap [%s, %s)", addr, h.start, h.end)
		}

		free := segment.Free(h.memory, addr)
		if free.End() > h.end {
			return errors.Newf("free segment %s of size %d runs past the end of the heap at %s", addr, free.Size(), h.end)
		}

		if listCount > 0 {
			if addr <= prev.Addr() {
				return errors.Newf("free segment %s follows free segment %s but is not above it", addr, prev.Addr())
			}
			if prev.Adjacent(free) {
				return errors.Newf("free segments %s and %s are adjacent but were not merged", prev.Addr(), addr)
			}
		}

		listCount++
		if listCount > maxSegments {
			return errors.New("the free list has more segments than the heap can hold; it probably loops")
		}

		prev = free
		addr = free.Next()
	}

	var walkFree, walkUsed int
	err := h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		if free {
			walkFree++
		} else {
			walkUsed++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if walkFree != listCount {
		return errors.Newf("the free list has %d segments, but walking the heap reached %d of them", listCount, walkFree)
	}

	if h.tracker != nil && h.tracker.count() != walkUsed {
		return errors.Newf("%d allocations are tracked, but walking the heap found %d used segments", h.tracker.count(), walkUsed)
	}

	return nil
}

// AddStatistics sums this heap's statistics into the statistics currently present in the
// provided memutils.Statistics object.
func (h *Heap) AddStatistics(stats *memutils.Statistics) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.initialized.Load() || h.destroyed.Load() {
		return
	}

	stats.HeapBytes += int(h.end - h.start)
	_ = h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		stats.HeaderBytes += segment.HeaderSize
		if free {
			stats.FreeBytes += size
		} else {
			stats.AllocationCount++
			stats.AllocationBytes += size
		}
		return nil
	})
}

// AddDetailedStatistics sums this heap's statistics into the statistics currently present in the
// provided memutils.DetailedStatistics object.
func (h *Heap) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.initialized.Load() || h.destroyed.Load() {
		return
	}

	stats.HeapBytes += int(h.end - h.start)
	_ = h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		stats.HeaderBytes += segment.HeaderSize
		if free {
			stats.AddFreeSegment(size)
		} else {
			stats.AddAllocation(size)
		}
		return nil
	})
}

// PrintDetailedMap writes a json object describing every segment of the heap
func (h *Heap) PrintDetailedMap(writer *jwriter.Writer) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	objState := writer.Object()
	defer objState.End()

	objState.Name("Start").String(h.start.String())
	objState.Name("End").String(h.end.String())
	objState.Name("TotalBytes").Int(int(h.end - h.start))
	objState.Name("Flags").String(h.createFlags.String())

	if !h.initialized.Load() || h.destroyed.Load() {
		return
	}

	var unusedBytes, allocationCount, freeSegmentCount int
	_ = h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		if free {
			unusedBytes += size
			freeSegmentCount++
		} else {
			allocationCount++
		}
		return nil
	})

	objState.Name("UnusedBytes").Int(unusedBytes)
	objState.Name("Allocations").Int(allocationCount)
	objState.Name("FreeSegments").Int(freeSegmentCount)

	arrayState := objState.Name("Segments").Array()
	defer arrayState.End()

	_ = h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Offset").Int(int(header - h.start))
		if free {
			obj.Name("Type").String("Free")
		} else {
			obj.Name("Type").String("Used")
		}
		obj.Name("Size").Int(size)

		if requested, ok := h.tracker.requestedSize(header + physmem.Addr(segment.HeaderSize)); ok && !free {
			obj.Name("RequestedSize").Int(requested)
		}
		return nil
	})
}

// CheckCorruption verifies the debug markers written after every live allocation. The markers are
// only written when the heap is built with the debug_kratos_heap build tag; without it this method
// always returns nil.
func (h *Heap) CheckCorruption() error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if memutils.DebugMargin == 0 || !h.initialized.Load() || h.destroyed.Load() {
		return nil
	}

	return h.visitAllRegions(func(header physmem.Addr, size int, free bool) error {
		if free {
			return nil
		}

		end := header + physmem.Addr(segment.HeaderSize+size)
		if !memutils.ValidateMagicValue(h.memory.Bytes(end-physmem.Addr(memutils.DebugMargin), memutils.DebugMargin)) {
			return errors.Newf("memory corruption detected after the allocation at %s", header+physmem.Addr(segment.HeaderSize))
		}
		return nil
	})
}
