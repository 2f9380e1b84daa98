package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAzElCache_EmptyReturnsError(t *testing.T) {
	var c AzElCache
	_, err := c.Simple(10)
	require.ErrorIs(t, err, ErrCacheEmpty)
}

// TestAzElCache_SimpleAtCachedSample pins the round-trip property:
// Simple at a time equal to a cached sample returns exactly the
// cached value.
func TestAzElCache_SimpleAtCachedSample(t *testing.T) {
	var c AzElCache
	a := PointingVector{Az: 1.0, El: 0.5, HA: 0.2, Dec: 0.3, Time: 100}
	b := PointingVector{Az: 1.2, El: 0.6, HA: 0.25, Dec: 0.31, Time: 200}
	c.Record(a)
	c.Record(b)

	got, err := c.Simple(100)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got2, err := c.Simple(200)
	require.NoError(t, err)
	assert.Equal(t, b, got2)
}

func TestAzElCache_InterpolatesBetweenSamples(t *testing.T) {
	var c AzElCache
	c.Record(PointingVector{Az: 1.0, El: 0.4, HA: 0.1, Dec: 0.2, Time: 0})
	c.Record(PointingVector{Az: 2.0, El: 0.8, HA: 0.3, Dec: 0.4, Time: 100})

	mid, err := c.Simple(50)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, mid.Az, 1e-9)
	assert.InDelta(t, 0.6, mid.El, 1e-9)
	assert.InDelta(t, 0.2, mid.HA, 1e-9)
	assert.Equal(t, 0.4, mid.Dec) // declination taken from the later sample
}

func TestAzElCache_ClampsOutsideRange(t *testing.T) {
	var c AzElCache
	a := PointingVector{Az: 1.0, Time: 10}
	b := PointingVector{Az: 2.0, Time: 20}
	c.Record(a)
	c.Record(b)

	got, _ := c.Simple(0)
	assert.Equal(t, a, got)
	got2, _ := c.Simple(1000)
	assert.Equal(t, b, got2)
}

func TestAzElCache_HalfTurnUnwrap(t *testing.T) {
	var c AzElCache
	// Azimuth crossing 0/2pi: from 350deg to 10deg should interpolate
	// through 360deg, not backwards through 180deg.
	deg := func(d float64) float64 { return d * 3.14159265358979 / 180 }
	c.Record(PointingVector{Az: deg(350), Time: 0})
	c.Record(PointingVector{Az: deg(370), Time: 100}) // equivalent to 10deg, already unwrapped

	mid, err := c.Simple(50)
	require.NoError(t, err)
	assert.InDelta(t, deg(360), mid.Az, 1e-6)
}
