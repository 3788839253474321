package memutils_test

import (
	"testing"

	"github.com/OluwamayowaMusa/kratos/memutils"
	"github.com/stretchr/testify/require"
)

func TestCheckPow2(t *testing.T) {
	for _, value := range []uint{1, 2, 4, 64, 4096, 1 << 40} {
		require.NoError(t, memutils.CheckPow2(value, "value"))
	}

	for _, value := range []int{3, 6, 12, 4097} {
		err := memutils.CheckPow2(value, "alignment")
		require.ErrorIs(t, err, memutils.PowerOfTwoError)
		require.Contains(t, err.Error(), "alignment is")
	}
}

func TestAlign(t *testing.T) {
	testCases := []struct {
		Value     uint64
		Alignment uint
		Up        uint64
		Down      uint64
	}{
		{Value: 0, Alignment: 8, Up: 0, Down: 0},
		{Value: 1, Alignment: 1, Up: 1, Down: 1},
		{Value: 13, Alignment: 4, Up: 16, Down: 12},
		{Value: 16, Alignment: 16, Up: 16, Down: 16},
		{Value: 0x210409, Alignment: 4096, Up: 0x211000, Down: 0x210000},
	}

	for _, testCase := range testCases {
		require.Equal(t, testCase.Up, memutils.AlignUp(testCase.Value, testCase.Alignment))
		require.Equal(t, testCase.Down, memutils.AlignDown(testCase.Value, testCase.Alignment))
	}
}
