package physmem_test

import (
	"testing"
	"unsafe"

	"github.com/OluwamayowaMusa/kratos/memutils/physmem"
	"github.com/stretchr/testify/require"
)

func TestRegionReadWrite(t *testing.T) {
	mem, err := physmem.NewRegion(0x200000, 256)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, mem.Release())
	}()

	require.Equal(t, physmem.Addr(0x200000), mem.Base())
	require.Equal(t, 256, mem.Size())

	view := mem.Bytes(0x200010, 4)
	copy(view, []byte{1, 2, 3, 4})

	require.Equal(t, []byte{1, 2, 3, 4}, mem.Bytes(0x200010, 4))
	require.Equal(t, []byte{0, 1, 2, 3}, mem.Bytes(0x20000F, 4))
}

func TestRegionContains(t *testing.T) {
	mem, err := physmem.NewRegion(0x1000, 0x100)
	require.NoError(t, err)

	require.True(t, mem.Contains(0x1000, 0x100))
	require.True(t, mem.Contains(0x10FF, 1))
	require.True(t, mem.Contains(0x1100, 0))
	require.False(t, mem.Contains(0x10FF, 2))
	require.False(t, mem.Contains(0xFFF, 1))
	require.False(t, mem.Contains(0x1000, -1))
}

func TestRegionOutOfRangePanics(t *testing.T) {
	mem, err := physmem.NewRegion(0x1000, 0x100)
	require.NoError(t, err)

	require.Panics(t, func() {
		mem.Bytes(0x10F8, 16)
	})
	require.Panics(t, func() {
		mem.Bytes(0x0FF8, 8)
	})

	require.NoError(t, mem.Release())
	require.Panics(t, func() {
		mem.Bytes(0x1000, 1)
	})
}

func TestRegionAddrOf(t *testing.T) {
	mem, err := physmem.NewRegion(0x1000, 0x100)
	require.NoError(t, err)

	addr, ok := mem.AddrOf(mem.Bytes(0x1040, 8))
	require.True(t, ok)
	require.Equal(t, physmem.Addr(0x1040), addr)

	_, ok = mem.AddrOf(make([]byte, 8))
	require.False(t, ok)

	_, ok = mem.AddrOf(nil)
	require.False(t, ok)
}

func TestRegionCongruentToPhysicalAddress(t *testing.T) {
	for _, base := range []physmem.Addr{0x100000, 0x100008, 0x2000F0} {
		mem, err := physmem.NewRegion(base, 64)
		require.NoError(t, err)

		view := mem.Bytes(base, 1)
		goAddr := uintptr(unsafe.Pointer(unsafe.SliceData(view)))
		require.Equal(t, uint64(base%physmem.PageSize), uint64(goAddr%physmem.PageSize))
	}
}

func TestMapAnonymous(t *testing.T) {
	mem, err := physmem.MapAnonymous(0x300000, 3*physmem.PageSize)
	require.NoError(t, err)

	view := mem.Bytes(0x300000+physmem.PageSize, 8)
	for i := range view {
		view[i] = byte(i + 1)
	}
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, mem.Bytes(0x300000+physmem.PageSize, 8))

	goAddr := uintptr(unsafe.Pointer(unsafe.SliceData(mem.Bytes(0x300000, 1))))
	require.Zero(t, goAddr%physmem.PageSize)

	require.NoError(t, mem.Release())
	require.NoError(t, mem.Release())
}

func TestNewRegionInvalid(t *testing.T) {
	_, err := physmem.NewRegion(0x1000, 0)
	require.Error(t, err)

	_, err = physmem.NewRegion(physmem.Addr(^uint64(0)-4), 16)
	require.Error(t, err)
}
