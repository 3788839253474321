package kheap_test

import (
	"io"
	"testing"

	"github.com/OluwamayowaMusa/kratos/kheap"
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const (
	regionBase  physmem.Addr = 0x100000
	kernelStart physmem.Addr = 0x200000
	kernelEnd   physmem.Addr = 0x210000
)

type HeapSetup struct {
	// HeapLength is the number of bytes from the end of the kernel to the end of the region
	HeapLength int
	Options    kheap.CreateOptions
	Logger     *slog.Logger
}

func kernelRegion(heapLength int) kheap.Region {
	return kheap.Region{
		Base:   regionBase,
		Length: uint64(kernelEnd-regionBase) + uint64(heapLength),
	}
}

func readyHeap(t *testing.T, setup HeapSetup) *kheap.Heap {
	memory, err := physmem.NewRegion(kernelEnd, setup.HeapLength)
	require.NoError(t, err)

	logger := setup.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	heap, err := kheap.New(logger, memory, setup.Options)
	require.NoError(t, err)

	heap.Init([]kheap.Region{
		{Base: 0, Length: 0x9fc00},
		kernelRegion(setup.HeapLength),
	}, kernelStart, kernelEnd)

	return heap
}

func requirePanicIs(t *testing.T, target error, f func()) {
	t.Helper()

	err := capturePanic(f)
	require.Error(t, err, "expected a panic")
	require.Truef(t, errors.Is(err, target), "panic %+v is not %v", err, target)
}

func requireAssertionPanic(t *testing.T, f func()) {
	t.Helper()

	err := capturePanic(f)
	require.Error(t, err, "expected a panic")
	require.Truef(t, errors.IsAssertionFailure(err), "panic %+v is not an assertion failure", err)
}

func capturePanic(f func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		var ok bool
		err, ok = r.(error)
		if !ok {
			err = errors.Newf("non-error panic: %v", r)
		}
	}()

	f()
	return nil
}
