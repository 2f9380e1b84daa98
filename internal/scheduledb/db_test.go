package scheduledb

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/scan"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeScan(t *testing.T, id, sourceID idregistry.ID, stationIDs []idregistry.ID, durationSeconds float64) *scan.Scan {
	t.Helper()
	pointings := make([]geom.PointingVector, len(stationIDs))
	for i := range pointings {
		pointings[i] = geom.PointingVector{Az: 0.1 * float64(i), El: 0.5}
	}
	endOfLastScan := make([]astro.Time, len(stationIDs))
	sc, err := scan.NewScan(id, sourceID, scan.AlignStart, stationIDs, pointings, endOfLastScan)
	require.NoError(t, err)
	for _, stID := range stationIDs {
		require.NoError(t, sc.AddTimes(stID, 1, 1, 1))
	}
	sc.Observations = append(sc.Observations, scan.Observation{
		BaselineID: 0, Station1: stationIDs[0], Station2: stationIDs[1], DurationSeconds: durationSeconds,
	})
	require.NoError(t, sc.SetObservationDurations())
	return sc
}

func TestOpen_RunsMigrations(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, version)
}

func TestSaveSession_And_ListScans(t *testing.T) {
	db := openTestDB(t)

	sc := makeScan(t, 0, 7, []idregistry.ID{0, 1}, 60)
	result := SessionResult{
		SessionID:  "session-a",
		StartedAt:  1000,
		FinishedAt: 2000,
		Scans:      []*scan.Scan{sc},
	}
	require.NoError(t, db.SaveSession(result))

	records, err := db.ListScans("session-a")
	require.NoError(t, err)
	require.Len(t, records, 1)

	want := ScanRecord{
		ScanID:       0,
		SourceID:     7,
		StartSeconds: int64(sc.ScanStart()),
		EndSeconds:   int64(sc.ScanEnd()),
	}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("ListScans mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveSession_MultipleScans(t *testing.T) {
	db := openTestDB(t)

	sc1 := makeScan(t, 0, 1, []idregistry.ID{0, 1}, 30)
	sc2 := makeScan(t, 1, 2, []idregistry.ID{1, 2}, 45)
	result := SessionResult{
		SessionID: "session-b",
		Scans:     []*scan.Scan{sc1, sc2},
	}
	require.NoError(t, db.SaveSession(result))

	records, err := db.ListScans("session-b")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.EqualValues(t, 0, records[0].ScanID)
	require.EqualValues(t, 1, records[1].ScanID)
}

func TestListScans_UnknownSession(t *testing.T) {
	db := openTestDB(t)
	records, err := db.ListScans("does-not-exist")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestSaveSession_FlagsFillinAndCalibrator(t *testing.T) {
	db := openTestDB(t)

	sc := makeScan(t, 0, 3, []idregistry.ID{0, 1}, 30)
	sc.IsFillin = true
	sc.IsCalibratorBlock = true

	require.NoError(t, db.SaveSession(SessionResult{SessionID: "session-c", Scans: []*scan.Scan{sc}}))

	records, err := db.ListScans("session-c")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].IsFillin)
	require.True(t, records[0].IsCalibrator)
}
