package kheap_test

import (
	"io"
	"testing"

	"github.com/OluwamayowaMusa/kratos/kheap"
	"github.com/OluwamayowaMusa/kratos/memutils"
	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	mock_physmem "github.com/OluwamayowaMusa/kratos/memutils/physmem/mocks"
	"github.com/OluwamayowaMusa/kratos/memutils/segment"
	"github.com/OluwamayowaMusa/kratos/multiboot"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func newUninitializedHeap(t *testing.T, memorySize int, options kheap.CreateOptions) *kheap.Heap {
	memory, err := physmem.NewRegion(kernelEnd, memorySize)
	require.NoError(t, err)

	heap, err := kheap.New(slog.New(slog.NewTextHandler(io.Discard)), memory, options)
	require.NoError(t, err)

	return heap
}

func TestInitBootConfigErrors(t *testing.T) {
	testCases := map[string]struct {
		Regions     []kheap.Region
		KernelStart physmem.Addr
		KernelEnd   physmem.Addr
	}{
		"NoMatchingRegion": {
			Regions:     []kheap.Region{{Base: 0, Length: 0x9fc00}, {Base: 0x200000, Length: 0x100000}},
			KernelStart: kernelStart,
			KernelEnd:   kernelEnd,
		},
		"NoRegions": {
			KernelStart: kernelStart,
			KernelEnd:   kernelEnd,
		},
		"KernelBelowLoadOffset": {
			Regions:     []kheap.Region{kernelRegion(4096)},
			KernelStart: 0x1000,
			KernelEnd:   kernelEnd,
		},
		"KernelEndsPastRegion": {
			Regions:     []kheap.Region{kernelRegion(4096)},
			KernelStart: kernelStart,
			KernelEnd:   kernelEnd + 8192,
		},
		"KernelEndsBeforeStart": {
			Regions:     []kheap.Region{kernelRegion(4096)},
			KernelStart: kernelStart,
			KernelEnd:   kernelStart - 1,
		},
		"NoRoomForHeader": {
			Regions:     []kheap.Region{kernelRegion(segment.HeaderSize - 1)},
			KernelStart: kernelStart,
			KernelEnd:   kernelEnd,
		},
		"UnbackedMemory": {
			Regions:     []kheap.Region{kernelRegion(8192)},
			KernelStart: kernelStart,
			KernelEnd:   kernelEnd,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			heap := newUninitializedHeap(t, 4096, kheap.CreateOptions{})

			requirePanicIs(t, memutils.ErrBootConfig, func() {
				heap.Init(testCase.Regions, testCase.KernelStart, testCase.KernelEnd)
			})
		})
	}
}

func TestInitCustomLoadOffset(t *testing.T) {
	heap := newUninitializedHeap(t, 4096, kheap.CreateOptions{KernelLoadOffset: 0x10000})

	heap.Init([]kheap.Region{
		{Base: kernelStart - 0x10000, Length: uint64(kernelEnd-kernelStart) + 0x10000 + 4096},
	}, kernelStart, kernelEnd)

	require.Equal(t, []kheap.FreeSegment{{Offset: 0, Size: 4096 - segment.HeaderSize}}, heap.FreeList())
}

func TestInitTwice(t *testing.T) {
	heap := readyHeap(t, HeapSetup{HeapLength: 4096})
	ptr := heap.Allocate(64, 8)

	requireAssertionPanic(t, func() {
		heap.Init([]kheap.Region{kernelRegion(4096)}, kernelStart, kernelEnd)
	})

	// The failed second Init must not have touched the heap
	require.Len(t, heap.FreeList(), 1)
	heap.Deallocate(ptr)
	require.NoError(t, heap.Validate())
}

func TestInitFromMultiboot(t *testing.T) {
	heap := newUninitializedHeap(t, 8192, kheap.CreateOptions{})

	info := &multiboot.BootInfo{
		MemoryMap: []multiboot.MemoryMapEntry{
			{Size: 20, PhysAddress: 0, Length: 0x9fc00, Type: multiboot.MemAvailable},
			{Size: 20, PhysAddress: 0x9fc00, Length: 0x400, Type: multiboot.MemReserved},
			{Size: 20, PhysAddress: uint64(regionBase), Length: uint64(kernelEnd-regionBase) + 8192, Type: multiboot.MemAvailable},
			{Size: 20, PhysAddress: 0xfffc0000, Length: 0x40000, Type: multiboot.MemReserved},
		},
	}

	require.Equal(t, []kheap.Region{
		{Base: 0, Length: 0x9fc00},
		{Base: regionBase, Length: uint64(kernelEnd-regionBase) + 8192},
	}, kheap.RegionsFromMultiboot(info))

	heap.InitFromMultiboot(info, kernelStart, kernelEnd)
	require.Equal(t, []kheap.FreeSegment{{Offset: 0, Size: 8192 - segment.HeaderSize}}, heap.FreeList())
}

func TestInitDoesNotTouchMemoryOnBadMap(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	memory := mock_physmem.NewMockMemory(ctrl)

	heap, err := kheap.New(slog.New(slog.NewTextHandler(io.Discard)), memory, kheap.CreateOptions{})
	require.NoError(t, err)

	requirePanicIs(t, memutils.ErrBootConfig, func() {
		heap.Init([]kheap.Region{{Base: 0, Length: 0x9fc00}}, kernelStart, kernelEnd)
	})
}

func TestInitChecksBacking(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	memory := mock_physmem.NewMockMemory(ctrl)
	memory.EXPECT().Contains(kernelEnd, 4096).Return(false)
	memory.EXPECT().Base().Return(kernelEnd).AnyTimes()
	memory.EXPECT().Size().Return(1024).AnyTimes()

	heap, err := kheap.New(nil, memory, kheap.CreateOptions{})
	require.NoError(t, err)

	requirePanicIs(t, memutils.ErrBootConfig, func() {
		heap.Init([]kheap.Region{kernelRegion(4096)}, kernelStart, kernelEnd)
	})
}

func TestDestroyUninitializedReleasesMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	memory := mock_physmem.NewMockMemory(ctrl)
	memory.EXPECT().Release().Return(nil).Times(1)

	heap, err := kheap.New(nil, memory, kheap.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, heap.Destroy())
	require.Error(t, heap.Destroy())
}
