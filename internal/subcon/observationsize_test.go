package subcon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/network"
	"github.com/vlbisched/scheduler/internal/source"
	"github.com/vlbisched/scheduler/internal/station"
)

func TestIsCalibratorKind(t *testing.T) {
	assert.True(t, isCalibratorKind(KindAstroCalibrator))
	assert.True(t, isCalibratorKind(KindFringeFinder))
	assert.True(t, isCalibratorKind(KindParallacticAngle))
	assert.True(t, isCalibratorKind(KindDiffParallacticAngle))
	assert.False(t, isCalibratorKind(KindSingle))
	assert.False(t, isCalibratorKind(KindSubnet))
	assert.False(t, isCalibratorKind(KindFillin))
}

func TestMinRates_IntersectsBandsAndKeepsSmaller(t *testing.T) {
	a := map[string]float64{"X": 512e6, "S": 256e6}
	b := map[string]float64{"X": 256e6, "Ka": 1e9}
	out := minRates(a, b)
	assert.Equal(t, map[string]float64{"X": 256e6}, out)
}

func TestMaxSNR_UnionsBandsAndKeepsLarger(t *testing.T) {
	a := map[string]float64{"X": 7}
	b := map[string]float64{"X": 9, "S": 5}
	out := maxSNR(a, b)
	assert.Equal(t, map[string]float64{"X": 9, "S": 5}, out)
}

func TestMinPositive(t *testing.T) {
	assert.Equal(t, 5.0, minPositive(5, 10))
	assert.Equal(t, 10.0, minPositive(0, 10))
	assert.Equal(t, 5.0, minPositive(5, 0))
	assert.Equal(t, 0.0, minPositive(0, 0))
}

func TestMaxFloat(t *testing.T) {
	assert.Equal(t, 10.0, maxFloat(5, 10))
	assert.Equal(t, 10.0, maxFloat(10, 5))
}

func TestObservationScanBounds_BaselineOverrideWins(t *testing.T) {
	reg := &idregistry.Registry{}
	net := network.New(reg)
	blID := reg.New(idregistry.Baseline)
	net.SetBaselineParameters(blID, network.BaselineParameters{MinScan: 20, MaxScan: 100})

	b := &Builder{Network: net}
	p1 := station.Parameters{ScanMin: 5, ScanMax: 40}
	p2 := station.Parameters{ScanMin: 8, ScanMax: 50}
	sp := source.Parameters{MinScan: 1, MaxScan: 1000}

	min, max := b.observationScanBounds(blID, p1, p2, sp)
	assert.Equal(t, 20.0, min)
	assert.Equal(t, 100.0, max)
}

func TestObservationScanBounds_FallsBackToStationThenSource(t *testing.T) {
	reg := &idregistry.Registry{}
	net := network.New(reg)
	blID := reg.New(idregistry.Baseline)

	b := &Builder{Network: net}
	p1 := station.Parameters{ScanMin: 5, ScanMax: 40}
	p2 := station.Parameters{ScanMin: 8}
	sp := source.Parameters{MinScan: 1, MaxScan: 1000}

	min, max := b.observationScanBounds(blID, p1, p2, sp)
	assert.Equal(t, 8.0, min) // stricter (larger) of the two station minimums
	assert.Equal(t, 40.0, max) // stricter (smaller) of the two station maximums
}

func TestObservationScanBounds_DefaultCeilingWhenUnset(t *testing.T) {
	reg := &idregistry.Registry{}
	net := network.New(reg)
	blID := reg.New(idregistry.Baseline)

	b := &Builder{Network: net}
	min, max := b.observationScanBounds(blID, station.Parameters{}, station.Parameters{}, source.Parameters{})
	assert.Equal(t, 0.0, min)
	assert.Equal(t, defaultMaxScan, max)
}
