//go:build debug_init_allocs

package kheap

const (
	// InitializeAllocs causes all new allocations to be filled with deterministic data, and freed
	// allocations to be overwritten with a different pattern. If you suspect a bug is caused by reading
	// uninitialized or freed heap memory, activate this to help diagnose the issue. It impacts
	// performance and should generally be left deactivated.
	InitializeAllocs bool = true
)
