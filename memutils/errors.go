package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrOutOfMemory marks the failure raised when no free segment can satisfy an allocation request.
// The heap panics with an error wrapping this value; there is nothing to fall back on.
var ErrOutOfMemory error = errors.New("heap exhausted")

// ErrBootConfig marks failures to carve the heap out of the memory map handed over at boot
var ErrBootConfig error = errors.New("invalid boot memory configuration")

// ErrInvalidFree marks a deallocation of a pointer that is not a live allocation. It is only
// detected when allocation tracking is enabled.
var ErrInvalidFree error = errors.New("pointer is not a live allocation")
