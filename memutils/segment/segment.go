// Package segment describes the headers written in place ahead of every block of the kernel heap.
//
// A header is two little-endian 64-bit words. Free segments use the second word as the address of
// the next free segment; used segments leave it as padding. Both views therefore occupy exactly
// HeaderSize bytes, and a block changes identity by rewriting its header words, never by moving its
// payload.
package segment

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
)

type freeLayout struct {
	Size uint64
	Next uint64
}

type usedLayout struct {
	Size    uint64
	Padding [8]byte
}

// HeaderSize is the size in bytes of both FreeSegment and UsedSegment headers
const HeaderSize = int(unsafe.Sizeof(freeLayout{}))

// None is the link value stored in the last free segment of the list
const None physmem.Addr = 0

const (
	sizeWord = 0
	nextWord = 8
)

func init() {
	if unsafe.Sizeof(freeLayout{}) != unsafe.Sizeof(usedLayout{}) {
		panic(fmt.Sprintf("free segment header (%d bytes) and used segment header (%d bytes) must be the same size",
			unsafe.Sizeof(freeLayout{}), unsafe.Sizeof(usedLayout{})))
	}
}

func readWord(mem physmem.Memory, addr physmem.Addr) uint64 {
	return binary.LittleEndian.Uint64(mem.Bytes(addr, 8))
}

func writeWord(mem physmem.Memory, addr physmem.Addr, value uint64) {
	binary.LittleEndian.PutUint64(mem.Bytes(addr, 8), value)
}

// FreeSegment is a view of a free block header at a fixed address. The view holds no state of its
// own: every accessor reads or writes the header bytes.
type FreeSegment struct {
	mem  physmem.Memory
	addr physmem.Addr
}

// Free returns the free segment view of the header at addr
func Free(mem physmem.Memory, addr physmem.Addr) FreeSegment {
	return FreeSegment{mem: mem, addr: addr}
}

// WriteFree writes a new free segment header at addr
func WriteFree(mem physmem.Memory, addr physmem.Addr, size int, next physmem.Addr) FreeSegment {
	s := Free(mem, addr)
	s.SetSize(size)
	s.SetNext(next)
	return s
}

func (s FreeSegment) Addr() physmem.Addr { return s.addr }

func (s FreeSegment) Size() int {
	return int(readWord(s.mem, s.addr+sizeWord))
}

func (s FreeSegment) SetSize(size int) {
	writeWord(s.mem, s.addr+sizeWord, uint64(size))
}

// Next returns the address of the following free segment, or None
func (s FreeSegment) Next() physmem.Addr {
	return physmem.Addr(readWord(s.mem, s.addr+nextWord))
}

func (s FreeSegment) SetNext(next physmem.Addr) {
	writeWord(s.mem, s.addr+nextWord, uint64(next))
}

// Start is the address of the first usable byte after the header
func (s FreeSegment) Start() physmem.Addr {
	return s.addr + physmem.Addr(HeaderSize)
}

// End is the address one past the last usable byte
func (s FreeSegment) End() physmem.Addr {
	return s.Start() + physmem.Addr(s.Size())
}

// ResizeTo sets the size so the segment ends at end. end must not precede Start.
func (s FreeSegment) ResizeTo(end physmem.Addr) {
	s.SetSize(int(end - s.Start()))
}

// Adjacent returns true if next's header immediately follows this segment's last byte
func (s FreeSegment) Adjacent(next FreeSegment) bool {
	return s.End() == next.addr
}

// Absorb merges next, which must be adjacent, into this segment, taking over its link
func (s FreeSegment) Absorb(next FreeSegment) {
	s.SetSize(s.Size() + HeaderSize + next.Size())
	s.SetNext(next.Next())
}

func (s FreeSegment) String() string {
	return fmt.Sprintf("free[%s size=%d next=%s]", s.addr, s.Size(), s.Next())
}

// UsedSegment is a view of an allocated block header at a fixed address
type UsedSegment struct {
	mem  physmem.Memory
	addr physmem.Addr
}

// Used returns the used segment view of the header at addr
func Used(mem physmem.Memory, addr physmem.Addr) UsedSegment {
	return UsedSegment{mem: mem, addr: addr}
}

// WriteUsed writes a new used segment header at addr whose payload runs up to end
func WriteUsed(mem physmem.Memory, addr physmem.Addr, end physmem.Addr) UsedSegment {
	s := Used(mem, addr)
	s.ResizeTo(end)
	return s
}

// HeaderOf returns the used segment header owning a payload address returned by allocation
func HeaderOf(mem physmem.Memory, payload physmem.Addr) UsedSegment {
	return Used(mem, payload-physmem.Addr(HeaderSize))
}

func (s UsedSegment) Addr() physmem.Addr { return s.addr }

func (s UsedSegment) Size() int {
	return int(readWord(s.mem, s.addr+sizeWord))
}

// Start is the payload address handed out to the caller
func (s UsedSegment) Start() physmem.Addr {
	return s.addr + physmem.Addr(HeaderSize)
}

func (s UsedSegment) End() physmem.Addr {
	return s.Start() + physmem.Addr(s.Size())
}

func (s UsedSegment) ResizeTo(end physmem.Addr) {
	writeWord(s.mem, s.addr+sizeWord, uint64(end-s.Start()))
}

// ToFree reinterprets the header in place as an unlinked free segment of the same size
func (s UsedSegment) ToFree() FreeSegment {
	free := Free(s.mem, s.addr)
	free.SetNext(None)
	return free
}

func (s UsedSegment) String() string {
	return fmt.Sprintf("used[%s size=%d]", s.addr, s.Size())
}
