// Package multiboot decodes the boot information a multiboot loader leaves in physical memory,
// chiefly the memory map the kernel heap is carved from.
package multiboot

import (
	"bytes"
	"encoding/binary"

	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/cockroachdb/errors"
)

// Info flags indicating which fields of the information record are valid
const (
	FlagMemory         uint32 = 1 << 0
	FlagBootDevice     uint32 = 1 << 1
	FlagCmdline        uint32 = 1 << 2
	FlagModules        uint32 = 1 << 3
	FlagMemoryMap      uint32 = 1 << 6
	FlagDrives         uint32 = 1 << 7
	FlagConfigTable    uint32 = 1 << 8
	FlagBootLoaderName uint32 = 1 << 9
)

const (
	// InfoSize is the size in bytes of the packed information record
	InfoSize = 68
	// MemoryMapEntrySize is the size in bytes of one packed memory map entry
	MemoryMapEntrySize = 24

	maxBootLoaderNameLength = 256
)

// Info is the fixed-layout information record. Addresses are 32-bit physical addresses.
type Info struct {
	Flags uint32

	// Available memory from the BIOS, in KiB
	MemLower uint32
	MemUpper uint32

	BootDevice uint32
	Cmdline    uint32

	ModsCount uint32
	ModsAddr  uint32

	// Symbol table information, which the kernel does not use
	Syms [16]byte

	MmapLength uint32
	MmapAddr   uint32

	DrivesLength uint32
	DrivesAddr   uint32

	ConfigTable    uint32
	BootLoaderName uint32
}

// MemoryType describes what a memory map region may be used for
type MemoryType uint32

const (
	MemAvailable MemoryType = iota + 1
	MemReserved
	MemAcpiReclaimable
	MemNvs
	MemBadRAM
)

var memoryTypeMapping = map[MemoryType]string{
	MemAvailable:       "available",
	MemReserved:        "reserved",
	MemAcpiReclaimable: "ACPI (reclaimable)",
	MemNvs:             "NVS",
	MemBadRAM:          "bad RAM",
}

func (t MemoryType) String() string {
	str, ok := memoryTypeMapping[t]
	if !ok {
		return "unknown"
	}

	return str
}

// MemoryMapEntry is one region of the firmware memory map
type MemoryMapEntry struct {
	// Size of the entry as reported by the loader, not counting this field
	Size        uint32
	PhysAddress uint64
	Length      uint64
	Type        MemoryType
}

// DecodeInfo decodes the packed information record at the start of b
func DecodeInfo(b []byte) (Info, error) {
	var info Info
	if len(b) < InfoSize {
		return info, errors.Newf("multiboot information record needs %d bytes, got %d", InfoSize, len(b))
	}

	if err := binary.Read(bytes.NewReader(b[:InfoSize]), binary.LittleEndian, &info); err != nil {
		return info, errors.Wrap(err, "decoding multiboot information record")
	}

	return info, nil
}

// DecodeMemoryMap decodes consecutive packed memory map entries. Trailing bytes that do not make up
// a whole entry are ignored.
func DecodeMemoryMap(b []byte) ([]MemoryMapEntry, error) {
	entries := make([]MemoryMapEntry, len(b)/MemoryMapEntrySize)
	if len(entries) == 0 {
		return entries, nil
	}

	err := binary.Read(bytes.NewReader(b[:len(entries)*MemoryMapEntrySize]), binary.LittleEndian, entries)
	if err != nil {
		return nil, errors.Wrap(err, "decoding multiboot memory map")
	}

	return entries, nil
}

// BootInfo is the information record together with the data it points at
type BootInfo struct {
	Info
	MemoryMap      []MemoryMapEntry
	BootLoaderName string
}

// Load decodes the information record at infoAddr and the memory map and boot loader name it
// refers to. Everything must lie inside mem.
func Load(mem physmem.Memory, infoAddr physmem.Addr) (*BootInfo, error) {
	if !mem.Contains(infoAddr, InfoSize) {
		return nil, errors.Newf("multiboot information record at %s is outside physical memory", infoAddr)
	}

	info, err := DecodeInfo(mem.Bytes(infoAddr, InfoSize))
	if err != nil {
		return nil, err
	}

	bootInfo := &BootInfo{Info: info}

	if info.Flags&FlagMemoryMap == 0 {
		return nil, errors.New("the boot loader did not provide a memory map")
	}

	mmapAddr := physmem.Addr(info.MmapAddr)
	mmapLength := int(info.MmapLength)
	if !mem.Contains(mmapAddr, mmapLength) {
		return nil, errors.Newf("multiboot memory map [%s, %s) is outside physical memory",
			mmapAddr, mmapAddr+physmem.Addr(mmapLength))
	}

	bootInfo.MemoryMap, err = DecodeMemoryMap(mem.Bytes(mmapAddr, mmapLength))
	if err != nil {
		return nil, err
	}

	if info.Flags&FlagBootLoaderName != 0 && info.BootLoaderName != 0 {
		bootInfo.BootLoaderName = readCString(mem, physmem.Addr(info.BootLoaderName))
	}

	return bootInfo, nil
}

func readCString(mem physmem.Memory, addr physmem.Addr) string {
	var name []byte
	for i := 0; i < maxBootLoaderNameLength && mem.Contains(addr+physmem.Addr(i), 1); i++ {
		c := mem.Bytes(addr+physmem.Addr(i), 1)[0]
		if c == 0 {
			break
		}
		name = append(name, c)
	}

	return string(name)
}

// VisitMemRegions invokes visitor for each memory map entry in order until visitor returns false
func (b *BootInfo) VisitMemRegions(visitor func(entry *MemoryMapEntry) bool) {
	for i := range b.MemoryMap {
		if !visitor(&b.MemoryMap[i]) {
			return
		}
	}
}

// TotalMemory is the sum of the lengths of every memory map entry
func (b *BootInfo) TotalMemory() uint64 {
	var total uint64
	b.VisitMemRegions(func(entry *MemoryMapEntry) bool {
		total += entry.Length
		return true
	})
	return total
}
