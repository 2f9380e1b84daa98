package source

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantFluxModel(t *testing.T) {
	m := ConstantFluxModel{Jy: 3.5}
	assert.False(t, m.NeedsUV())
	assert.False(t, m.NeedsElDist())
	assert.Equal(t, 3.5, m.ObservedFlux(0, 0, 0, 0))
	assert.Equal(t, 3.5, m.MaximumFlux())
}

func TestKnotFluxModel_StepsDownWithBaselineLength(t *testing.T) {
	m := KnotFluxModel{
		Wavelength: 0.03, // 10 GHz-ish, ~3cm
		Knots:      []float64{0, 100, 1000, 1e9},
		Values:     []float64{5, 3, 1},
	}
	assert.True(t, m.NeedsUV())
	assert.Equal(t, 5.0, m.MaximumFlux())

	short := m.ObservedFlux(1000, 0, 0, 0) // small baseline -> high flux
	long := m.ObservedFlux(1e7, 0, 0, 0)    // large baseline -> lower flux
	assert.GreaterOrEqual(t, short, long)
}

func TestGaussianFluxModel_SingleComponentMatchesPeakAtZeroBaseline(t *testing.T) {
	m := GaussianFluxModel{
		Wavelength: 0.03,
		Components: []GaussianComponent{
			{FluxJy: 2.0, MajorAxisMas: 1.0, AxialRatio: 1.0, PositionAngle: 0},
		},
	}
	assert.InDelta(t, 2.0, m.ObservedFlux(0, 0, 0, 0), 1e-9)
	assert.InDelta(t, 2.0, m.MaximumFlux(), 1e-9)

	decayed := m.ObservedFlux(1e6, 1e6, 0, 0)
	assert.Less(t, decayed, 2.0)
}

func TestSatelliteFluxModel_FallsOffWithDistance(t *testing.T) {
	m := SatelliteFluxModel{ReferenceJy: 100, ReferenceDistanceM: 1000, MinElevation: 5 * math.Pi / 180}
	assert.False(t, m.NeedsUV())
	assert.True(t, m.NeedsElDist())

	near := m.ObservedFlux(0, 0, 10*math.Pi/180, 1000)
	far := m.ObservedFlux(0, 0, 10*math.Pi/180, 4000)
	assert.InDelta(t, 100, near, 1e-9)
	assert.InDelta(t, 100.0/16, far, 1e-9)
}

func TestSatelliteFluxModel_ZeroBelowMinElevation(t *testing.T) {
	m := SatelliteFluxModel{ReferenceJy: 100, ReferenceDistanceM: 1000, MinElevation: 5 * math.Pi / 180}
	assert.Equal(t, 0.0, m.ObservedFlux(0, 0, 1*math.Pi/180, 1000))
}
