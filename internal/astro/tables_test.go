package astro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupTable_SinCosMatchMath(t *testing.T) {
	lt := NewLookupTable()
	for _, x := range []float64{0, 0.5, 1.0, math.Pi / 2, math.Pi, -1.2} {
		assert.InDelta(t, math.Sin(x), lt.Sin(x), 1e-3)
		assert.InDelta(t, math.Cos(x), lt.Cos(x), 1e-3)
	}
}

func TestLookupTable_AcosDomain(t *testing.T) {
	lt := NewLookupTable()
	assert.InDelta(t, 0.0, lt.Acos(1), 1e-3)
	assert.InDelta(t, math.Pi, lt.Acos(-1), 1e-3)
}

// TestAngularDistance_Symmetric pins the round-trip property: the
// table is symmetric in (p1,p2) to table resolution.
func TestAngularDistance_Symmetric(t *testing.T) {
	lt := NewLookupTable()
	el1, az1 := 30*math.Pi/180, 10*math.Pi/180
	el2, az2 := 45*math.Pi/180, 50*math.Pi/180

	// AngularDistance quantises el1, Δaz and Δel to whole degrees, so the
	// two argument orders are compared within table resolution.
	d12 := lt.AngularDistance(el1, az1, el2, az2)
	d21 := lt.AngularDistance(el2, az2, el1, az1)
	assert.InDelta(t, d12, d21, 1e-2)
}

func TestAngularDistance_ZeroAtSamePoint(t *testing.T) {
	lt := NewLookupTable()
	d := lt.AngularDistance(0.5, 1.0, 0.5, 1.0)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestGMST_WrapsToFullCircle(t *testing.T) {
	g := GMST(60000.0)
	assert.GreaterOrEqual(t, g, 0.0)
	assert.Less(t, g, 2*math.Pi)
}

func TestEarthRotationAngle_Range(t *testing.T) {
	era := EarthRotationAngle(60000.5)
	assert.GreaterOrEqual(t, era, 0.0)
	assert.Less(t, era, 2*math.Pi)
}
