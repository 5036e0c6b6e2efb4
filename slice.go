package jax

import "github.com/pkg/errors"

// Slice selects a sub-sequence of a DeviceList with the conventional
// start/stop/step slice semantics, including negative bounds (counting from
// the end) and negative step. A nil field means the bound was not given and
// takes its default for the step's direction.
type Slice struct {
	Start, Stop, Step *int
}

// SliceRange returns a Slice equivalent to [start:stop].
func SliceRange(start, stop int) Slice {
	return Slice{Start: &start, Stop: &stop}
}

// SliceStrided returns a Slice equivalent to [start:stop:step].
func SliceStrided(start, stop, step int) Slice {
	return Slice{Start: &start, Stop: &stop, Step: &step}
}

// indices normalizes the slice bounds for a sequence of the given length,
// clamping out-of-range bounds, and returns the resolved start, step and the
// number of selected elements. The rules match conventional slice
// normalization for sequences (CPython's PySlice_AdjustIndices).
func (s Slice) indices(length int) (start, step, sliceLen int, err error) {
	step = 1
	if s.Step != nil {
		step = *s.Step
		if step == 0 {
			return 0, 0, 0, errors.WithStack(ErrZeroSliceStep)
		}
	}
	lower, upper := 0, length
	if step < 0 {
		lower, upper = -1, length-1
	}

	if s.Start == nil {
		start = lower
		if step < 0 {
			start = upper
		}
	} else {
		start = *s.Start
		if start < 0 {
			start += length
			if start < lower {
				start = lower
			}
		} else if start > upper {
			start = upper
		}
	}

	var stop int
	if s.Stop == nil {
		stop = upper
		if step < 0 {
			stop = lower
		}
	} else {
		stop = *s.Stop
		if stop < 0 {
			stop += length
			if stop < lower {
				stop = lower
			}
		} else if stop > upper {
			stop = upper
		}
	}

	if step < 0 {
		if stop < start {
			sliceLen = (start-stop-1)/(-step) + 1
		}
	} else {
		if start < stop {
			sliceLen = (stop-start-1)/step + 1
		}
	}
	return start, step, sliceLen, nil
}
