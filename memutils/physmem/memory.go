package physmem

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Addr is a physical address
type Addr uint64

// PageSize is the granularity that Go-side views of physical memory are kept congruent to. An
// address aligned to any power of two up to PageSize is equally aligned in the Go view of it.
const PageSize = 4096

func (a Addr) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

//go:generate mockgen -destination=mocks/memory.go -package=mock_physmem . Memory

// Memory is a contiguous range of physical memory, [Base(), Base()+Size()), that can be read and
// written through byte views.
type Memory interface {
	// Base is the physical address of the first byte of the range
	Base() Addr
	// Size is the length of the range in bytes
	Size() int
	// Contains returns true if all n bytes starting at addr lie within the range
	Contains(addr Addr, n int) bool
	// Bytes returns a view of n bytes starting at addr. Writes to the view write physical memory.
	// Accessing bytes outside the range panics, in the way a bus fault would halt the machine.
	Bytes(addr Addr, n int) []byte
	// AddrOf returns the physical address of the first byte of a view previously returned by Bytes.
	// The second return value is false if the slice does not point into this range.
	AddrOf(b []byte) (Addr, bool)
	// Release gives the backing storage back. The range must not be used afterward.
	Release() error
}

// region is a Memory backed by a byte slice whose first byte is congruent to base modulo PageSize
type region struct {
	base    Addr
	data    []byte
	release func() error
}

var _ Memory = &region{}

func newRegion(base Addr, size int, backing []byte, release func() error) *region {
	// Shift the view inside the (page-padded) backing so Go addresses and physical addresses agree
	// modulo the page size
	start := uintptr(unsafe.Pointer(unsafe.SliceData(backing)))
	offset := (int(base%PageSize) - int(start%PageSize) + PageSize) % PageSize

	return &region{
		base:    base,
		data:    backing[offset : offset+size : offset+size],
		release: release,
	}
}

// NewRegion creates a Memory covering [base, base+size) backed by a buffer owned by the Go runtime
func NewRegion(base Addr, size int) (Memory, error) {
	if size <= 0 {
		return nil, errors.Newf("physical memory size must be positive, got %d", size)
	}
	if uint64(base)+uint64(size) < uint64(base) {
		return nil, errors.Newf("physical memory at %s with size %d wraps the address space", base, size)
	}

	backing := make([]byte, size+PageSize)
	return newRegion(base, size, backing, nil), nil
}

func (r *region) Base() Addr { return r.base }

func (r *region) Size() int { return len(r.data) }

func (r *region) Contains(addr Addr, n int) bool {
	if n < 0 || addr < r.base {
		return false
	}

	offset := uint64(addr - r.base)
	return offset <= uint64(len(r.data)) && uint64(n) <= uint64(len(r.data))-offset
}

func (r *region) Bytes(addr Addr, n int) []byte {
	if r.data == nil {
		panic(errors.AssertionFailedf("access to released physical memory at %s", addr))
	}
	if !r.Contains(addr, n) {
		panic(errors.AssertionFailedf("physical access of %d bytes at %s is outside [%s, %s)",
			n, addr, r.base, r.base+Addr(len(r.data))))
	}

	offset := int(addr - r.base)
	return r.data[offset : offset+n : offset+n]
}

func (r *region) AddrOf(b []byte) (Addr, bool) {
	if cap(b) == 0 || len(r.data) == 0 {
		return 0, false
	}

	start := uintptr(unsafe.Pointer(unsafe.SliceData(r.data)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if ptr < start || ptr >= start+uintptr(len(r.data)) {
		return 0, false
	}

	return r.base + Addr(ptr-start), true
}

func (r *region) Release() error {
	if r.data == nil {
		return nil
	}

	r.data = nil
	if r.release == nil {
		return nil
	}

	return r.release()
}
