package monitor

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/scan"
)

// ScanBlock is one station's participation in a committed scan, the unit
// the Gantt timeline renders as a bar.
type ScanBlock struct {
	StationID idregistry.ID
	SourceID  idregistry.ID
	Start     astro.Time
	End       astro.Time
	IsFillin  bool
	IsCalibrator bool
}

// Timeline builds the per-station Gantt data from a run's committed scans.
type Timeline struct {
	stations map[idregistry.ID]string
	blocks   map[idregistry.ID][]ScanBlock
}

// NewTimeline creates an empty timeline. stationNames maps station ids to
// display labels.
func NewTimeline(stationNames map[idregistry.ID]string) *Timeline {
	return &Timeline{
		stations: stationNames,
		blocks:   make(map[idregistry.ID][]ScanBlock),
	}
}

// AddScan records one committed scan's per-station blocks.
func (tl *Timeline) AddScan(sc *scan.Scan) {
	for i, stationID := range sc.StationIDs {
		tl.blocks[stationID] = append(tl.blocks[stationID], ScanBlock{
			StationID:    stationID,
			SourceID:     sc.SourceID,
			Start:        sc.Times.ObservingStart(i),
			End:          sc.Times.ObservingEnd(i),
			IsFillin:     sc.IsFillin,
			IsCalibrator: sc.IsCalibratorBlock,
		})
	}
}

// RenderHTML writes a Gantt-style bar chart (one row per station, one
// bar per scan block) to w: a stacked bar where the
// first (invisible) segment is the offset to the block's start time and
// the second (visible) segment is the block's duration.
func (tl *Timeline) RenderHTML(w io.Writer) error {
	var ids []idregistry.ID
	for id := range tl.blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = tl.stations[id]
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan Timeline", Theme: "dark", Width: "1100px", Height: fmt.Sprintf("%dpx", 80+60*len(ids))}),
		charts.WithTitleOpts(opts.Title{Title: "Per-Station Scan Timeline"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "seconds since session start", NameLocation: "middle", NameGap: 25}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis(labels)

	maxEnd := astro.Time(0)
	for _, id := range ids {
		for _, b := range tl.blocks[id] {
			if b.End > maxEnd {
				maxEnd = b.End
			}
		}
	}

	rowCount := maxBlockCount(tl.blocks, ids)
	for row := 0; row < rowCount; row++ {
		offsets := make([]opts.BarData, len(ids))
		durations := make([]opts.BarData, len(ids))
		for i, id := range ids {
			blocks := tl.blocks[id]
			if row >= len(blocks) {
				offsets[i] = opts.BarData{Value: 0}
				durations[i] = opts.BarData{Value: 0}
				continue
			}
			b := blocks[row]
			offsets[i] = opts.BarData{Value: int64(b.Start)}
			durations[i] = opts.BarData{Value: int64(b.End - b.Start), Name: blockLabel(b)}
		}
		bar.AddSeries(fmt.Sprintf("gap-%d", row), offsets,
			charts.WithBarChartOpts(opts.BarChart{Stack: "scans"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "rgba(0,0,0,0)"}),
		)
		bar.AddSeries(fmt.Sprintf("scan-%d", row), durations,
			charts.WithBarChartOpts(opts.BarChart{Stack: "scans"}),
		)
	}

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("monitor: render timeline: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func maxBlockCount(blocks map[idregistry.ID][]ScanBlock, ids []idregistry.ID) int {
	max := 0
	for _, id := range ids {
		if n := len(blocks[id]); n > max {
			max = n
		}
	}
	return max
}

func blockLabel(b ScanBlock) string {
	switch {
	case b.IsCalibrator:
		return fmt.Sprintf("calibrator src=%v", b.SourceID)
	case b.IsFillin:
		return fmt.Sprintf("fillin src=%v", b.SourceID)
	default:
		return fmt.Sprintf("src=%v", b.SourceID)
	}
}
