// Command vlbisched runs a single end-to-end scheduling session against a
// small embedded station/source catalog and writes the result to a
// sqlite database plus a directory of operator diagnostics (sky-coverage
// plots and an HTML scan timeline). Flag-configured, one-shot,
// log.Fatalf on startup failure.
package main

import (
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/monitor"
	"github.com/vlbisched/scheduler/internal/network"
	"github.com/vlbisched/scheduler/internal/scan"
	"github.com/vlbisched/scheduler/internal/scheduledb"
	"github.com/vlbisched/scheduler/internal/scheduler"
	"github.com/vlbisched/scheduler/internal/source"
	"github.com/vlbisched/scheduler/internal/station"
	"github.com/vlbisched/scheduler/internal/subcon"
)

var (
	dbFile        = flag.String("db", "vlbisched.db", "Path to the SQLite database file the finished session is saved to")
	outDir        = flag.String("out", "vlbisched_out", "Directory operator diagnostics (sky plots, HTML timeline) are written to")
	sessionHours  = flag.Float64("hours", 6, "Session length in hours")
	mjdStart      = flag.Float64("mjd-start", 60000.0, "Modified Julian Date of session start")
	calibratorEvery = flag.Float64("calibrator-every-scans", 0, "If > 0, force a calibrator block every N scans")
)

const deg = math.Pi / 180

// zeroEOP is a trivial astro.EOPProvider that reports no nutation offset
// and no Earth barycentric velocity, mirroring the zero-value fixtures
// used in internal/geom and internal/astro tests. A real deployment would
// wrap a SOFA/IERS data source here instead.
type zeroEOP struct{}

func (zeroEOP) XYS(float64) (x, y, s float64)       { return 0, 0, 0 }
func (zeroEOP) EarthVelocity(float64) astro.EarthVector { return astro.EarthVector{} }

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *calibratorEvery > 0 {
		cfg.Calibrator = config.CalibratorBlock{
			Enabled: true,
			Cadence: config.CadenceScans,
			Every:   *calibratorEvery,
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("vlbisched: invalid config: %v", err)
	}

	start := time.Now().UTC()
	end := start.Add(time.Duration(*sessionHours * float64(time.Hour)))
	ts, err := astro.NewTimeSystem(*mjdStart, start, end)
	if err != nil {
		log.Fatalf("vlbisched: %v", err)
	}
	mjdEnd := ts.MJD(ts.Duration())
	ap := astro.NewAstronomicalParameters(zeroEOP{}, *mjdStart, mjdEnd, 5.0/1440.0)
	lt := astro.NewLookupTable()

	registry := &idregistry.Registry{}
	net := network.New(registry)
	stations, stationOrder := buildCatalogStations(registry, net)
	net.BuildSkyCoverageGroups(cfg.SkyCoverage.MaxDistBetweenCorrespondingTelescopes)
	sky := network.NewSkyCoverages(net)

	sources, sourceOrder := buildCatalogSources(registry)

	builder := subcon.NewBuilder(registry, net, sky, stations, stationOrder, sources, sourceOrder, ts, ap, lt, cfg)

	sched := scheduler.NewScheduler(builder, cfg, ts.Duration())
	scans, err := sched.Run()
	if err != nil {
		log.Printf("vlbisched: scheduling run %s ended early: %v", sched.SessionID, err)
	}
	log.Printf("vlbisched: %d scans committed", len(scans))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("vlbisched: create output dir: %v", err)
	}
	if err := writeDiagnostics(*outDir, stations, stationOrder, scans); err != nil {
		log.Fatalf("vlbisched: write diagnostics: %v", err)
	}

	db, err := scheduledb.Open(*dbFile)
	if err != nil {
		log.Fatalf("vlbisched: open database: %v", err)
	}
	defer db.Close()

	result := scheduledb.SessionResult{
		SessionID:  sched.SessionID,
		StartedAt:  start.Unix(),
		FinishedAt: time.Now().UTC().Unix(),
		Scans:      scans,
	}
	if err := db.SaveSession(result); err != nil {
		log.Fatalf("vlbisched: save session: %v", err)
	}
	log.Printf("vlbisched: session %s saved to %s", sched.SessionID, *dbFile)
}

// writeDiagnostics renders the operator-facing sky-coverage plots and
// HTML scan timeline for a finished run (internal/monitor).
func writeDiagnostics(outDir string, stations map[idregistry.ID]*station.Station, stationOrder []idregistry.ID, scans []*scan.Scan) error {
	names := make(map[idregistry.ID]string, len(stationOrder))
	for _, id := range stationOrder {
		names[id] = stations[id].Name
	}

	sp := monitor.NewSkyPlotter(filepath.Join(outDir, "skyplots"))
	tl := monitor.NewTimeline(names)
	for _, sc := range scans {
		for i, stID := range sc.StationIDs {
			pv := sc.Pointings[i]
			sp.Sample(stID, names[stID], pv.Az, pv.El)
		}
		tl.AddScan(sc)
	}

	if sp.SampleCount() > 0 {
		if _, err := sp.GeneratePlots(); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(outDir, "timeline.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	return tl.RenderHTML(f)
}

func buildCatalogStations(registry *idregistry.Registry, net *network.Network) (map[idregistry.ID]*station.Station, []idregistry.ID) {
	type seed struct {
		name        string
		x, y, z     float64
		minElDeg    float64
	}
	seeds := []seed{
		{"WESTFORD", 1492206.5, -4458130.5, 4296015.5, 5},
		{"GGAO12M", 1130730.2, -4831245.1, 3994228.9, 5},
		{"ISHIOKA", -3959017.6, 3310225.6, 3737534.8, 8},
		{"HOBART12", -3949990.9, 2522421.4, -4311708.2, 8},
	}

	stations := make(map[idregistry.ID]*station.Station, len(seeds))
	var order []idregistry.ID
	for _, sd := range seeds {
		id := registry.New(idregistry.Station)
		pos := geom.NewPosition(sd.x, sd.y, sd.z)
		azel := station.AzElMount{
			Axis1: station.AxisKinematics{Rate: 1 * deg, Settle: 1},
			Axis2: station.AxisKinematics{Rate: 1 * deg, Settle: 1},
		}
		var mount station.Mount = azel
		if sd.name == "GGAO12M" {
			mount = station.NewGGAO12MMount(azel)
		}
		cw, err := station.NewCableWrap(-90*deg, 450*deg, 2*deg, 90*deg)
		if err != nil {
			log.Fatalf("vlbisched: cable wrap for %s: %v", sd.name, err)
		}
		sefd := station.ConstantSEFD{Values: map[string]float64{"X": 500}}

		params := station.Parameters{
			Available:    true,
			MinElevation: sd.minElDeg * deg,
			MinSNR:       map[string]float64{"X": 15},

			SlewTimeMin: 0, SlewTimeMax: 600,
			ScanMin: 30, ScanMax: 600,
			MaxNumberOfScans: 0,

			RecordingRate: map[string]float64{"X": 256e6},

			FieldSystemDuration: 1,
			Preob:               5,
			Midob:               2,
			SystemDelay:         1,
		}

		st := station.NewStation(id, sd.name, mount, cw, pos, sefd, nil, params)
		stations[id] = st
		order = append(order, id)
		net.AddStation(id, pos)
	}
	return stations, order
}

func buildCatalogSources(registry *idregistry.Registry) (map[idregistry.ID]*source.Source, []idregistry.ID) {
	type seed struct {
		name       string
		raDeg      float64
		decDeg     float64
		jy         float64
		calibrator bool
	}
	seeds := []seed{
		{"3C273", 187.278, 2.052, 40, true},
		{"3C279", 194.047, -5.789, 20, false},
		{"OJ287", 133.703, 20.109, 6, false},
		{"3C84", 49.951, 41.512, 18, true},
	}

	sources := make(map[idregistry.ID]*source.Source, len(seeds))
	var order []idregistry.ID
	for _, sd := range seeds {
		id := registry.New(idregistry.Source)
		flux := map[string]source.FluxModel{"X": source.ConstantFluxModel{Jy: sd.jy}}
		params := source.Parameters{
			Available:       true,
			GlobalAvailable: true,
			Weight:          1,
			MinElevation:    5 * deg,
			MinFlux:         map[string]float64{"X": 0.1},

			MinNumberOfStations: 2,
			MinRepeat:           600,
			MinScan:             30,
			MaxScan:             600,

			IsCalibrator:     sd.calibrator,
			CalibratorWeight: 2,
		}
		src := source.NewQuasar(id, sd.name, sd.raDeg*deg, sd.decDeg*deg, flux, params)
		sources[id] = src
		order = append(order, id)
	}
	return sources, order
}
