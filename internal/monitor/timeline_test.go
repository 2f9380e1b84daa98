package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/scan"
)

func makeTestScan(t *testing.T, id, sourceID idregistry.ID, stationIDs []idregistry.ID, durationSeconds float64) *scan.Scan {
	t.Helper()
	pointings := make([]geom.PointingVector, len(stationIDs))
	endOfLastScan := make([]astro.Time, len(stationIDs))
	sc, err := scan.NewScan(id, sourceID, scan.AlignStart, stationIDs, pointings, endOfLastScan)
	if err != nil {
		t.Fatalf("NewScan: %v", err)
	}
	for _, stID := range stationIDs {
		if err := sc.AddTimes(stID, 1, 1, 1); err != nil {
			t.Fatalf("AddTimes: %v", err)
		}
	}
	sc.Observations = append(sc.Observations, scan.Observation{
		BaselineID: 0, Station1: stationIDs[0], Station2: stationIDs[1], DurationSeconds: durationSeconds,
	})
	if err := sc.SetObservationDurations(); err != nil {
		t.Fatalf("SetObservationDurations: %v", err)
	}
	return sc
}

func TestTimeline_AddScan(t *testing.T) {
	names := map[idregistry.ID]string{0: "WESTFORD", 1: "GGAO12M"}
	tl := NewTimeline(names)

	sc := makeTestScan(t, 0, 10, []idregistry.ID{0, 1}, 60)
	tl.AddScan(sc)

	if got := len(tl.blocks[0]); got != 1 {
		t.Errorf("expected 1 block for station 0, got %d", got)
	}
	if got := len(tl.blocks[1]); got != 1 {
		t.Errorf("expected 1 block for station 1, got %d", got)
	}
}

func TestTimeline_RenderHTML(t *testing.T) {
	names := map[idregistry.ID]string{0: "WESTFORD", 1: "GGAO12M"}
	tl := NewTimeline(names)
	tl.AddScan(makeTestScan(t, 0, 10, []idregistry.ID{0, 1}, 60))
	tl.AddScan(makeTestScan(t, 1, 11, []idregistry.ID{0, 1}, 90))

	var buf bytes.Buffer
	if err := tl.RenderHTML(&buf); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "WESTFORD") {
		t.Error("expected rendered HTML to contain station label WESTFORD")
	}
	if !strings.Contains(out, "Per-Station Scan Timeline") {
		t.Error("expected rendered HTML to contain the chart title")
	}
}

func TestBlockLabel(t *testing.T) {
	tests := []struct {
		name string
		b    ScanBlock
		want string
	}{
		{"plain", ScanBlock{SourceID: 5}, "src=5"},
		{"fillin", ScanBlock{SourceID: 5, IsFillin: true}, "fillin src=5"},
		{"calibrator", ScanBlock{SourceID: 5, IsCalibrator: true}, "calibrator src=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blockLabel(tt.b); got != tt.want {
				t.Errorf("blockLabel(%+v) = %q, want %q", tt.b, got, tt.want)
			}
		})
	}
}

func TestMaxBlockCount(t *testing.T) {
	blocks := map[idregistry.ID][]ScanBlock{
		0: {{}, {}},
		1: {{}},
	}
	if got := maxBlockCount(blocks, []idregistry.ID{0, 1}); got != 2 {
		t.Errorf("expected max block count 2, got %d", got)
	}
}
