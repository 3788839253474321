package kheap

import (
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/OluwamayowaMusa/kratos/multiboot"
)

// RegionsFromMultiboot returns the regions of the boot memory map that the kernel may use, in the
// order the boot loader listed them
func RegionsFromMultiboot(info *multiboot.BootInfo) []Region {
	var regions []Region
	info.VisitMemRegions(func(entry *multiboot.MemoryMapEntry) bool {
		if entry.Type == multiboot.MemAvailable {
			regions = append(regions, Region{
				Base:   physmem.Addr(entry.PhysAddress),
				Length: entry.Length,
			})
		}
		return true
	})

	return regions
}

// InitFromMultiboot initializes the heap from the memory map a multiboot loader handed over. It
// panics in the same situations as Init.
func (h *Heap) InitFromMultiboot(info *multiboot.BootInfo, kernelStart, kernelEnd physmem.Addr) {
	h.Init(RegionsFromMultiboot(info), kernelStart, kernelEnd)
}
