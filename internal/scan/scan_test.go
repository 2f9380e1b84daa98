package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

func TestNewScan_RejectsMismatchedLengths(t *testing.T) {
	_, err := NewScan(0, 0, AlignStart,
		[]idregistry.ID{0, 1},
		[]geom.PointingVector{{}},
		[]astro.Time{0, 0},
	)
	assert.Error(t, err)
}

func TestNewScan_RejectsEmpty(t *testing.T) {
	_, err := NewScan(0, 0, AlignStart, nil, nil, nil)
	assert.Error(t, err)
}

func buildTestScan(t *testing.T) *Scan {
	t.Helper()
	s, err := NewScan(0, 0, AlignStart,
		[]idregistry.ID{10, 20},
		[]geom.PointingVector{{Az: 0}, {Az: 1}},
		[]astro.Time{0, 0},
	)
	require.NoError(t, err)
	require.NoError(t, s.AddTimes(10, 0, 5, 2))
	require.NoError(t, s.AddTimes(20, 0, 8, 2))
	return s
}

func TestScan_AddTimes_RejectsUnknownStation(t *testing.T) {
	s := buildTestScan(t)
	err := s.AddTimes(999, 0, 0, 0)
	assert.Error(t, err)
}

func TestScan_SetObservationDurations_UsesMinimumPerStation(t *testing.T) {
	s := buildTestScan(t)
	s.Observations = []Observation{
		{Station1: 10, Station2: 20, DurationSeconds: 40},
	}
	require.NoError(t, s.SetObservationDurations())
	assert.Greater(t, s.ScanEnd(), s.ScanStart())
}

func TestScan_SetObservationDurations_RejectsUnparticipatingStation(t *testing.T) {
	s := buildTestScan(t)
	s.Observations = []Observation{
		{Station1: 10, Station2: 999, DurationSeconds: 40},
	}
	err := s.SetObservationDurations()
	assert.Error(t, err)
}

func TestScan_AddTagalongStation_AppendsWithoutReindexingExisting(t *testing.T) {
	s := buildTestScan(t)
	s.Observations = []Observation{{Station1: 10, Station2: 20, DurationSeconds: 40}}
	require.NoError(t, s.SetObservationDurations())

	pv := geom.PointingVector{Az: 2}
	s.AddTagalongStation(30, pv, 0, 0, 3, 2, 40)

	require.Len(t, s.StationIDs, 3)
	assert.Equal(t, idregistry.ID(30), s.StationIDs[2])
	assert.Equal(t, pv.Az, s.Pointings[2].Az)
	assert.EqualValues(t, 5, s.Times.ObservingStart(2))
	assert.EqualValues(t, 45, s.Times.ObservingEnd(2))
}

func TestScan_EndPointingsCarryObservingEndTime(t *testing.T) {
	s := buildTestScan(t)
	s.Observations = []Observation{{Station1: 10, Station2: 20, DurationSeconds: 40}}
	require.NoError(t, s.SetObservationDurations())

	ends := s.EndPointings()
	require.Len(t, ends, 2)
	for i, pv := range ends {
		assert.Equal(t, s.Times.ObservingEnd(i), pv.Time)
	}
}
