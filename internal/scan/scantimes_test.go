package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlbisched/scheduler/internal/astro"
)

func TestScanTimes_AddTimesChainsSegments(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{100})
	st.AddTimes(0, 2, 30, 5)

	assert.EqualValues(t, 102, st.times[0].endFieldSystem)
	assert.EqualValues(t, 132, st.times[0].endSlew)
	assert.EqualValues(t, 132, st.times[0].endIdle)
	assert.EqualValues(t, 137, st.times[0].endPreob)
	assert.EqualValues(t, 137, st.times[0].endObserving)
}

func TestScanTimes_SetObservingDurations_AlignStart(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{0, 0})
	st.AddTimes(0, 2, 10, 5) // end_preob = 17
	st.AddTimes(1, 2, 20, 5) // end_preob = 27 (later slew)

	st.SetObservingDurations([]astro.Time{60, 60})

	// Both stations must share the same observing start (the later of the two preob ends).
	assert.Equal(t, st.ObservingStart(0), st.ObservingStart(1))
	assert.EqualValues(t, 27, st.ObservingStart(0))
	assert.EqualValues(t, 87, st.ObservingEnd(0))
}

func TestScanTimes_SetObservingDurations_AlignEnd(t *testing.T) {
	st := NewScanTimes(AlignEnd, []astro.Time{0, 0})
	st.AddTimes(0, 2, 10, 5)
	st.AddTimes(1, 2, 20, 5)

	st.SetObservingDurations([]astro.Time{60, 30})

	assert.Equal(t, st.ObservingEnd(0), st.ObservingEnd(1))
}

func TestScanTimes_ObservingDurationBetween(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{0, 0})
	st.AddTimes(0, 0, 0, 0)
	st.AddTimes(1, 0, 0, 0)
	st.SetObservingDurations([]astro.Time{100, 50})

	d := st.ObservingDurationBetween(0, 1)
	assert.EqualValues(t, 50, d)
}

func TestScanTimes_SetPreobTime_ShrinksWhenIdleInsufficient(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{0})
	st.AddTimes(0, 0, 10, 5) // endSlew=10, endIdle=10, endPreob=15

	valid := st.SetPreobTime(0, 20) // endPreob(15)-20 clamps to 0, still < endSlew(10)
	assert.False(t, valid)
	assert.Less(t, st.times[0].endSlew, astro.Time(10))
}

func TestScanTimes_SetPreobTime_ValidWhenIdleSufficient(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{0})
	st.AddTimes(0, 0, 10, 5)
	valid := st.SetPreobTime(0, 5)
	require.True(t, valid)
}

func TestScanTimes_AppendTagalong_DoesNotDisturbExistingStations(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{0, 0})
	st.AddTimes(0, 0, 10, 5)
	st.AddTimes(1, 0, 20, 5)
	st.SetObservingDurations([]astro.Time{60, 60})

	beforeStart := st.ObservingStart(0)
	beforeEnd := st.ObservingEnd(0)

	idx := st.AppendTagalong(100, 0, 5, 2, 60)
	assert.Equal(t, 2, idx)
	assert.Equal(t, beforeStart, st.ObservingStart(0))
	assert.Equal(t, beforeEnd, st.ObservingEnd(0))
	assert.EqualValues(t, 107, st.ObservingStart(idx))
	assert.EqualValues(t, 167, st.ObservingEnd(idx))
}

func TestScanTimes_UpdateAfterFillin_ReseedsAndRealigns(t *testing.T) {
	st := NewScanTimes(AlignStart, []astro.Time{0, 0})
	st.AddTimes(0, 2, 10, 5)
	st.AddTimes(1, 2, 20, 5)
	st.SetObservingDurations([]astro.Time{60, 60})

	// A fillin scan keeps station 0 busy until t=40; its chain must be
	// re-seeded from there while station durations are preserved.
	st.UpdateAfterFillin(0, 40)

	assert.EqualValues(t, 40, st.times[0].endLastScan)
	assert.EqualValues(t, 42, st.times[0].endFieldSystem)
	assert.EqualValues(t, 52, st.times[0].endSlew)
	// AlignStart: both stations still share one observing start.
	assert.Equal(t, st.ObservingStart(0), st.ObservingStart(1))
	assert.EqualValues(t, 60, st.ObservingEnd(0).Sub(st.ObservingStart(0)))
}

func TestScanTimes_SetObservingDurations_AlignIndividualKeepsOrderingValid(t *testing.T) {
	st := NewScanTimes(AlignIndividual, []astro.Time{0, 0, 0})
	st.AddTimes(0, 0, 5, 2)
	st.AddTimes(1, 0, 20, 2)
	st.AddTimes(2, 0, 8, 2)

	st.SetObservingDurations([]astro.Time{30, 10, 50})

	for i := 0; i < 3; i++ {
		require.LessOrEqual(t, st.ObservingStart(i), st.ObservingEnd(i), "station %d", i)
	}
	// The station with the longest requested observation still ends at
	// (or before) the overall latest observing end.
	maxEnd := st.ObservingEnd(0)
	for i := 1; i < 3; i++ {
		if st.ObservingEnd(i) > maxEnd {
			maxEnd = st.ObservingEnd(i)
		}
	}
	assert.Equal(t, st.ObservingEnd(2), maxEnd)
}
