package multiboot

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteSummary writes a human-readable description of the memory map to w
func (b *BootInfo) WriteSummary(w io.Writer) error {
	p := message.NewPrinter(language.English)

	if b.BootLoaderName != "" {
		if _, err := p.Fprintf(w, "Boot loader: %s\n", b.BootLoaderName); err != nil {
			return err
		}
	}

	if _, err := p.Fprintf(w, "Memory map (%d regions):\n", len(b.MemoryMap)); err != nil {
		return err
	}

	var err error
	b.VisitMemRegions(func(entry *MemoryMapEntry) bool {
		_, err = p.Fprintf(w, "\t[%s - %s] %d bytes, %s\n",
			hexAddress(entry.PhysAddress), hexAddress(entry.PhysAddress+entry.Length), entry.Length, entry.Type)
		return err == nil
	})
	if err != nil {
		return err
	}

	_, err = p.Fprintf(w, "Total memory: %.2f MiB\n", float64(b.TotalMemory())/1024/1024)
	return err
}

// hexAddress pads an address to 8 hex digits after the 0x prefix
func hexAddress(addr uint64) string {
	return fmt.Sprintf("%#010x", addr)
}
