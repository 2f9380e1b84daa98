package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoHorizonMask_FlatMinimum(t *testing.T) {
	m := NoHorizonMask{MinElevation: 10 * deg}
	assert.True(t, m.IsVisible(0, 20*deg))
	assert.False(t, m.IsVisible(0, 5*deg))
}

func TestStepHorizonMask_StepsAtBoundaries(t *testing.T) {
	m, err := NewStepHorizonMask([]float64{0, 90 * deg, 180 * deg}, []float64{5 * deg, 20 * deg, 5 * deg})
	require.NoError(t, err)
	assert.True(t, m.IsVisible(45*deg, 10*deg))
	assert.False(t, m.IsVisible(100*deg, 10*deg))
}

func TestStepHorizonMask_RejectsNonAscending(t *testing.T) {
	_, err := NewStepHorizonMask([]float64{0, 0}, []float64{5 * deg, 5 * deg})
	assert.Error(t, err)
}

func TestLineHorizonMask_InterpolatesBetweenSamples(t *testing.T) {
	m, err := NewLineHorizonMask([]float64{0, 180 * deg}, []float64{0, 20 * deg})
	require.NoError(t, err)
	// midpoint should interpolate to roughly 10deg threshold.
	assert.True(t, m.IsVisible(90*deg, 15*deg))
	assert.False(t, m.IsVisible(90*deg, 5*deg))
}

func TestLineHorizonMask_WrapsAcrossZero(t *testing.T) {
	m, err := NewLineHorizonMask([]float64{10 * deg, 350 * deg}, []float64{0, 20 * deg})
	require.NoError(t, err)
	// az=0 lies between the last sample (350deg) and the first (10deg+360deg).
	el := m.IsVisible(0, 25*deg)
	assert.True(t, el)
}
