package subcon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/network"
	"github.com/vlbisched/scheduler/internal/scan"
	"github.com/vlbisched/scheduler/internal/source"
)

func TestCommit_AdvancesStationAndSourceCounters(t *testing.T) {
	b := buildTwoStationBuilder(t, config.DefaultConfig())
	b.Network = network.New(&idregistry.Registry{})
	b.Network.AddStation(0, b.Stations[0].Position)
	b.Network.AddStation(1, b.Stations[1].Position)

	src := source.NewQuasar(0, "Q", 0, 0, nil, source.Parameters{Available: true})
	b.Sources = map[idregistry.ID]*source.Source{0: src}

	stationIDs := []idregistry.ID{0, 1}
	pvs := []geom.PointingVector{{Az: 0, El: 0.7}, {Az: 0, El: 0.7}}
	eol := []astro.Time{0, 0}
	sc, err := scan.NewScan(0, 0, scan.AlignStart, stationIDs, pvs, eol)
	require.NoError(t, err)
	require.NoError(t, sc.AddTimes(0, 0, 0, 0))
	require.NoError(t, sc.AddTimes(1, 0, 0, 0))

	blID, ok := b.Network.BaselineID(0, 1)
	require.True(t, ok)
	sc.Observations = []scan.Observation{{BaselineID: blID, Station1: 0, Station2: 1, DurationSeconds: 60}}
	require.NoError(t, sc.SetObservationDurations())

	cand := &Candidate{SourceID: 0, Scan: sc, EndOfLastScan: eol}
	b.Commit(cand)

	assert.Equal(t, 1, b.Stations[0].NumScans())
	assert.Equal(t, 1, b.Stations[1].NumScans())
	assert.Equal(t, 1, b.Network.BaselineState(blID).NumObservations())
	_, has := src.LastScanTime()
	assert.True(t, has)
	assert.Equal(t, 1, src.ScanCount())
}
