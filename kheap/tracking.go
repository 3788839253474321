package kheap

import (
	"github.com/OluwamayowaMusa/kratos/memutils"
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
)

// allocationTracker maps live payload addresses to the size the caller requested. A nil tracker
// tracks nothing.
type allocationTracker struct {
	live *swiss.Map[physmem.Addr, int]
}

func newAllocationTracker() *allocationTracker {
	return &allocationTracker{
		live: swiss.NewMap[physmem.Addr, int](42),
	}
}

func (t *allocationTracker) add(ptr physmem.Addr, size int) {
	if t == nil {
		return
	}

	t.live.Put(ptr, size)
}

// requireLive panics if ptr is not a live allocation
func (t *allocationTracker) requireLive(ptr physmem.Addr) {
	if t == nil {
		return
	}

	if _, ok := t.live.Get(ptr); !ok {
		panic(errors.Wrapf(memutils.ErrInvalidFree, "deallocating %s", ptr))
	}
}

func (t *allocationTracker) remove(ptr physmem.Addr) {
	if t == nil {
		return
	}

	t.requireLive(ptr)
	t.live.Delete(ptr)
}

// requestedSize returns the size originally requested for ptr, if it is known
func (t *allocationTracker) requestedSize(ptr physmem.Addr) (int, bool) {
	if t == nil {
		return 0, false
	}

	return t.live.Get(ptr)
}

func (t *allocationTracker) count() int {
	if t == nil {
		return 0
	}

	return t.live.Count()
}
