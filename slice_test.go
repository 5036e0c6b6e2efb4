package jax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceIndices(t *testing.T) {
	ip := func(v int) *int { return &v }

	testCases := []struct {
		name      string
		slice     Slice
		length    int
		wantStart int
		wantStep  int
		wantLen   int
	}{
		{"default", Slice{}, 5, 0, 1, 5},
		{"defaultEmpty", Slice{}, 0, 0, 1, 0},
		{"bounded", SliceRange(1, 4), 5, 1, 1, 3},
		{"stopBeforeStart", SliceRange(4, 1), 5, 4, 1, 0},
		{"negativeStart", Slice{Start: ip(-2)}, 5, 3, 1, 2},
		{"negativeStop", Slice{Stop: ip(-2)}, 5, 0, 1, 3},
		{"clampedStart", Slice{Start: ip(-100)}, 5, 0, 1, 5},
		{"clampedStop", Slice{Stop: ip(100)}, 5, 0, 1, 5},
		{"stride", Slice{Step: ip(2)}, 5, 0, 2, 3},
		{"strideUneven", Slice{Step: ip(3)}, 5, 0, 3, 2},
		{"reversed", Slice{Step: ip(-1)}, 5, 4, -1, 5},
		{"reversedBounded", SliceStrided(3, 0, -1), 5, 3, -1, 3},
		{"reversedStride", Slice{Step: ip(-2)}, 5, 4, -2, 3},
		{"reversedClamped", SliceStrided(100, -100, -1), 5, 4, -1, 5},
		{"reversedEmpty", SliceStrided(0, 3, -1), 5, 0, -1, 0},
	}
	for _, testCase := range testCases {
		start, step, sliceLen, err := testCase.slice.indices(testCase.length)
		require.NoErrorf(t, err, "case %q", testCase.name)
		assert.Equalf(t, testCase.wantStart, start, "case %q: start", testCase.name)
		assert.Equalf(t, testCase.wantStep, step, "case %q: step", testCase.name)
		assert.Equalf(t, testCase.wantLen, sliceLen, "case %q: len", testCase.name)
	}

	_, _, _, err := Slice{Step: ip(0)}.indices(5)
	require.ErrorIs(t, err, ErrZeroSliceStep)
}
