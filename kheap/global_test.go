package kheap

import (
	"io"
	"testing"

	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func requireAssertionPanic(t *testing.T, f func()) {
	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		require.True(t, errors.IsAssertionFailure(err))
	}()

	f()
}

func TestGlobalHeap(t *testing.T) {
	t.Cleanup(func() { global.Store(nil) })

	requireAssertionPanic(t, func() { Allocate(8, 8) })
	requireAssertionPanic(t, func() { SetGlobal(nil) })

	memory, err := physmem.NewRegion(0x210000, 4096)
	require.NoError(t, err)

	heap, err := New(slog.New(slog.NewTextHandler(io.Discard)), memory, CreateOptions{})
	require.NoError(t, err)
	heap.Init([]Region{{Base: 0x100000, Length: 0x110000 + 4096}}, 0x200000, 0x210000)

	SetGlobal(heap)
	require.Same(t, heap, Global())
	requireAssertionPanic(t, func() { SetGlobal(heap) })

	ptr := Allocate(32, 16)
	require.Zero(t, ptr%16)
	require.Len(t, heap.FreeList(), 1)

	Deallocate(ptr)
	require.Equal(t, []FreeSegment{{Offset: 0, Size: 4096 - 16}}, heap.FreeList())
}
