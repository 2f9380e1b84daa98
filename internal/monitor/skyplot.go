// Package monitor renders operator diagnostics for a completed scheduling
// run: a polar sky-coverage-density plot per station and an HTML per-station
// scan timeline. Neither is part of the scheduling engine itself;
// both are operator-facing status output for a finished run.
package monitor

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/vlbisched/scheduler/internal/idregistry"
)

// SkyCoverageSample is one station pointing recorded at scan time, azimuth
// and elevation both in radians.
type SkyCoverageSample struct {
	Az, El float64
}

// SkyPlotter accumulates per-station pointing samples over a run and
// renders a polar az/el density plot per station.
type SkyPlotter struct {
	mu        sync.Mutex
	outputDir string
	samples   map[idregistry.ID][]SkyCoverageSample
	names     map[idregistry.ID]string
}

// NewSkyPlotter creates a plotter that writes PNGs under outputDir.
func NewSkyPlotter(outputDir string) *SkyPlotter {
	return &SkyPlotter{
		outputDir: outputDir,
		samples:   make(map[idregistry.ID][]SkyCoverageSample),
		names:     make(map[idregistry.ID]string),
	}
}

// Sample records one station pointing. Call this once per committed scan,
// per participating station.
func (sp *SkyPlotter) Sample(stationID idregistry.ID, name string, az, el float64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.names[stationID] = name
	sp.samples[stationID] = append(sp.samples[stationID], SkyCoverageSample{Az: az, El: el})
}

// SampleCount returns the total number of pointings recorded across all
// stations.
func (sp *SkyPlotter) SampleCount() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	n := 0
	for _, s := range sp.samples {
		n += len(s)
	}
	return n
}

// GeneratePlots writes one PNG per station with recorded samples. Returns
// the number of plots generated.
func (sp *SkyPlotter) GeneratePlots() (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if len(sp.samples) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(sp.outputDir, 0755); err != nil {
		return 0, fmt.Errorf("monitor: create output dir: %w", err)
	}

	var ids []idregistry.ID
	for id := range sp.samples {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	count := 0
	for _, id := range ids {
		if err := sp.generateStationPlot(id); err != nil {
			return count, fmt.Errorf("monitor: station %v: %w", id, err)
		}
		count++
	}
	return count, nil
}

// generateStationPlot renders one station's scanned pointings as points on
// a polar az/el projection (elevation 90 degrees at the plot's center).
func (sp *SkyPlotter) generateStationPlot(id idregistry.ID) error {
	samples := sp.samples[id]
	name := sp.names[id]

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s sky coverage (%d scans)", name, len(samples))
	p.X.Label.Text = "x = (90°-el)·sin(az)"
	p.Y.Label.Text = "y = (90°-el)·cos(az)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		zenithDist := math.Pi/2 - s.El
		pts[i].X = zenithDist * math.Sin(s.Az)
		pts[i].Y = zenithDist * math.Cos(s.Az)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.Color = color.RGBA{R: 0x35, G: 0xb7, B: 0x79, A: 0xff}
	scatter.Radius = vg.Points(1.5)
	p.Add(scatter)

	horizonPts := make(plotter.XYs, 0, 361)
	for deg := 0; deg <= 360; deg++ {
		rad := float64(deg) * math.Pi / 180
		horizonPts = append(horizonPts, plotter.XY{
			X: (math.Pi / 2) * math.Sin(rad),
			Y: (math.Pi / 2) * math.Cos(rad),
		})
	}
	horizon, err := plotter.NewLine(horizonPts)
	if err != nil {
		return fmt.Errorf("horizon circle: %w", err)
	}
	horizon.Color = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	horizon.Width = vg.Points(0.5)
	p.Add(horizon)

	file := filepath.Join(sp.outputDir, fmt.Sprintf("station_%02d_skycoverage.png", id))
	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
