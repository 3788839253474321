//go:build unix

package physmem

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MapAnonymous creates a Memory covering [base, base+size) backed by an anonymous private mapping
// that lives outside the Go heap
func MapAnonymous(base Addr, size int) (Memory, error) {
	if size <= 0 {
		return nil, errors.Newf("physical memory size must be positive, got %d", size)
	}

	mapping, err := unix.Mmap(-1, 0, size+PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping %d bytes of physical memory at %s", size, base)
	}

	release := func() error {
		err := unix.Munmap(mapping)
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return err
	}

	return newRegion(base, size, mapping, release), nil
}
