//go:build !debug_init_allocs

package kheap

const (
	// InitializeAllocs causes all new allocations to be filled with deterministic data, and freed
	// allocations to be overwritten with a different pattern. Build with the debug_init_allocs tag
	// to activate it.
	InitializeAllocs bool = false
)
