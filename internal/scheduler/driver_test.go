package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/events"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/source"
	"github.com/vlbisched/scheduler/internal/station"
	"github.com/vlbisched/scheduler/internal/subcon"
	"github.com/vlbisched/scheduler/internal/timeutil"
)

const deg = 3.14159265358979 / 180

func testScheduler(t *testing.T, evs ...events.Event[station.Parameters]) *Scheduler {
	t.Helper()
	mount := station.AzElMount{
		Axis1: station.AxisKinematics{Rate: 0.5},
		Axis2: station.AxisKinematics{Rate: 0.5},
	}
	cw, err := station.NewCableWrap(-270*deg, 270*deg, 0, 90*deg)
	require.NoError(t, err)
	sefd := station.ConstantSEFD{Values: map[string]float64{"X": 500}}
	pos := geom.NewPosition(4e6, 6e5, 4.9e6)

	st0 := station.NewStation(0, "A", mount, cw, pos, sefd, nil, station.Parameters{Available: true, MinElevation: 5 * deg}, evs...)
	st1 := station.NewStation(1, "B", mount, cw, pos, sefd, nil, station.Parameters{Available: true, MinElevation: 5 * deg})

	b := &subcon.Builder{
		Stations:     map[idregistry.ID]*station.Station{0: st0, 1: st1},
		StationOrder: []idregistry.ID{0, 1},
		Sources:      map[idregistry.ID]*source.Source{},
		Config:       config.DefaultConfig(),
	}
	return NewScheduler(b, b.Config, astro.Time(10000))
}

func TestNewScheduler_AssignsSessionID(t *testing.T) {
	s := testScheduler(t)
	assert.NotEmpty(t, s.SessionID)
	assert.NotNil(t, s.Clock)
}

func TestRun_StallsWithoutSourcesAndReportsError(t *testing.T) {
	s := testScheduler(t)
	s.Clock = timeutil.NewMockClock(time.Unix(0, 0))
	s.Config.MaxSubconRetries = 3
	s.Config.StepFallbackSeconds = 60

	scans, err := s.Run()
	assert.Error(t, err)
	assert.Empty(t, scans)
}

func TestPollEvents_AppliesPendingStationEvent(t *testing.T) {
	s := testScheduler(t, events.Event[station.Parameters]{
		Time: 50, SmoothTransition: false,
		Parameters: station.Parameters{Available: false, MinElevation: 5 * deg},
	})
	hard := s.pollEvents(astro.Time(50))
	assert.True(t, hard)
	assert.False(t, s.Builder.Stations[0].Parameters().Available)
}

func TestNextRetryTime_PrefersEarliestPendingEvent(t *testing.T) {
	s := testScheduler(t, events.Event[station.Parameters]{
		Time: 500, SmoothTransition: true,
		Parameters: station.Parameters{Available: true, MinElevation: 5 * deg},
	})
	s.Config.StepFallbackSeconds = 1000
	next := s.nextRetryTime(astro.Time(0))
	assert.EqualValues(t, 500, next)
}

func TestNextRetryTime_FallsBackToStepFallback(t *testing.T) {
	s := testScheduler(t)
	s.Config.StepFallbackSeconds = 30
	next := s.nextRetryTime(astro.Time(100))
	assert.EqualValues(t, 130, next)
}

func TestCalibratorDue_ScansCadence(t *testing.T) {
	s := testScheduler(t)
	s.Config.Calibrator = config.CalibratorBlock{Enabled: true, Cadence: config.CadenceScans, Every: 3}
	assert.False(t, s.calibratorDue(2, 0, 0, true))
	assert.True(t, s.calibratorDue(3, 0, 0, true))
}

func TestCalibratorDue_SecondsCadenceFiresImmediatelyOnFirstCall(t *testing.T) {
	s := testScheduler(t)
	s.Config.Calibrator = config.CalibratorBlock{Enabled: true, Cadence: config.CadenceSeconds, Every: 3600}
	assert.True(t, s.calibratorDue(0, 0, 0, false))
	assert.False(t, s.calibratorDue(0, 1000, 0, true))
	assert.True(t, s.calibratorDue(0, 3601, 0, true))
}

func TestCalibratorDue_DisabledAlwaysFalse(t *testing.T) {
	s := testScheduler(t)
	assert.False(t, s.calibratorDue(100, 1e9, 0, true))
}

func TestGlobalCurrentTime_IsMinimumOverAvailableStations(t *testing.T) {
	s := testScheduler(t)
	require.NoError(t, s.Builder.Stations[0].Update(geom.PointingVector{Time: 500}, 60, true))
	got := s.globalCurrentTime()
	// Station 1 never updated (FirstScan still true), so its ready time is 0.
	assert.EqualValues(t, 0, got)
}

func TestGlobalCurrentTime_NoAvailableStationsFallsBackToEndTime(t *testing.T) {
	s := testScheduler(t)
	s.Builder.Stations[0] = station.NewStation(0, "OFF", station.AzElMount{}, nil, geom.NewPosition(0, 0, 0), station.ConstantSEFD{}, nil, station.Parameters{Available: false})
	s.Builder.Stations[1] = station.NewStation(1, "OFF2", station.AzElMount{}, nil, geom.NewPosition(0, 0, 0), station.ConstantSEFD{}, nil, station.Parameters{Available: false})
	assert.Equal(t, s.EndTime, s.globalCurrentTime())
}

func TestHasFillinEligibleStation(t *testing.T) {
	s := testScheduler(t)
	assert.False(t, s.hasFillinEligibleStation())
	p := s.Builder.Stations[0].Parameters()
	p.AvailableForFillin = true
	// Parameters is a value snapshot; simulate a catalog that configured
	// fillin eligibility from the start.
	st := station.NewStation(0, "A", station.AzElMount{}, nil, geom.NewPosition(0, 0, 0), station.ConstantSEFD{}, nil, p)
	s.Builder.Stations[0] = st
	assert.True(t, s.hasFillinEligibleStation())
}
