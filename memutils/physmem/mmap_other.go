//go:build !unix

package physmem

// MapAnonymous creates a Memory covering [base, base+size). Without mmap the range is backed by the
// Go heap, exactly as NewRegion does.
func MapAnonymous(base Addr, size int) (Memory, error) {
	return NewRegion(base, size)
}
