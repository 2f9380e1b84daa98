package subcon

import (
	"math"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/network"
	"github.com/vlbisched/scheduler/internal/scan"
	"github.com/vlbisched/scheduler/internal/source"
	"github.com/vlbisched/scheduler/internal/station"
)

// cacheKey identifies one station/source pair's lazy az/el cache.
type cacheKey struct {
	station idregistry.ID
	source  idregistry.ID
}

// Builder holds every dependency the subcon algorithm needs: the network
// and catalog entities, the process-wide time and astronomy tables, the
// scoring configuration, and the per-(station, source) az/el caches
// accumulated over the scheduling run.
type Builder struct {
	Registry *idregistry.Registry
	Network  *network.Network
	Sky      *network.SkyCoverages

	Stations     map[idregistry.ID]*station.Station
	StationOrder []idregistry.ID
	Sources      map[idregistry.ID]*source.Source
	SourceOrder  []idregistry.ID

	TimeSystem *astro.TimeSystem
	Astro      *astro.AstronomicalParameters
	Lookup     *astro.LookupTable

	Config config.Config

	// Satellites lists the IDs (within Sources) of satellite sources
	// tracked for the AvoidSatellites filter. Empty disables the filter
	// regardless of Config.AvoidSatellites.Enabled.
	Satellites []idregistry.ID

	caches map[cacheKey]*geom.AzElCache
}

// NewBuilder constructs a Builder. StationOrder and SourceOrder fix
// the deterministic iteration order subcon.Build uses when walking the
// catalog.
func NewBuilder(registry *idregistry.Registry, net *network.Network, sky *network.SkyCoverages,
	stations map[idregistry.ID]*station.Station, stationOrder []idregistry.ID,
	sources map[idregistry.ID]*source.Source, sourceOrder []idregistry.ID,
	ts *astro.TimeSystem, ap *astro.AstronomicalParameters, lt *astro.LookupTable, cfg config.Config) *Builder {
	return &Builder{
		Registry: registry, Network: net, Sky: sky,
		Stations: stations, StationOrder: stationOrder,
		Sources: sources, SourceOrder: sourceOrder,
		TimeSystem: ts, Astro: ap, Lookup: lt, Config: cfg,
		caches: make(map[cacheKey]*geom.AzElCache),
	}
}

// rigorousPV computes a station's rigorous az/el pointing at a source
// and records it into that pair's
// cache.
func (b *Builder) rigorousPV(stationID, sourceID idregistry.ID, st *station.Station, src *source.Source, t astro.Time) geom.PointingVector {
	srcCRS := src.SourceInCRS(t)
	pv := geom.RigorousAzEl(b.TimeSystem, b.Astro, st.Position, srcCRS, t)
	pv.StationID, pv.SourceID = stationID, sourceID

	if b.caches == nil {
		b.caches = make(map[cacheKey]*geom.AzElCache)
	}
	key := cacheKey{stationID, sourceID}
	c, ok := b.caches[key]
	if !ok {
		c = &geom.AzElCache{}
		b.caches[key] = c
	}
	c.Record(pv)
	return pv
}

// azEl returns a station's pointing at a source at time t, via the
// simple cached interpolant when a rigorous sample already anchors the
// cache, falling back to a rigorous computation otherwise. The
// rigorous path must run before the simple interpolant can be trusted
// for new times.
func (b *Builder) azEl(stationID, sourceID idregistry.ID, st *station.Station, src *source.Source, t astro.Time) geom.PointingVector {
	key := cacheKey{stationID, sourceID}
	c, ok := b.caches[key]
	if ok {
		if pv, err := c.Simple(t); err == nil {
			pv.StationID, pv.SourceID = stationID, sourceID
			return pv
		}
	}
	return b.rigorousPV(stationID, sourceID, st, src, t)
}

// PointingAt returns a station's pointing at a source at time t via
// the cache-aware azEl helper, for external callers (the scheduler
// driver's tagalong overlay) that need a pointing
// vector outside the normal Build/RefineFeasibility flow.
func (b *Builder) PointingAt(stationID, sourceID idregistry.ID, t astro.Time) geom.PointingVector {
	st := b.Stations[stationID]
	src := b.Sources[sourceID]
	return b.azEl(stationID, sourceID, st, src, t)
}

// angularDistance returns the angular separation between two pointings
// via the process-wide lookup table when available.
func (b *Builder) angularDistance(a, c geom.PointingVector) float64 {
	if b.Lookup != nil {
		return b.Lookup.AngularDistance(a.El, a.Az, c.El, c.Az)
	}
	return astro.AngularDistanceRigorous(a.El, a.Az, c.El, c.Az)
}

// Build constructs every single-source candidate scan at currentTime
// for the given Mode.
func (b *Builder) Build(currentTime astro.Time, mode Mode) []*Candidate {
	var out []*Candidate
	for _, srcID := range b.SourceOrder {
		src := b.Sources[srcID]
		if cand := b.buildOneSource(srcID, src, currentTime, mode); cand != nil {
			out = append(out, cand)
		}
	}
	return out
}

func (b *Builder) buildOneSource(srcID idregistry.ID, src *source.Source, currentTime astro.Time, mode Mode) *Candidate {
	sp := src.Parameters()
	if !sp.Available {
		return nil
	}
	if mode == ModeFillin && !sp.AvailableForFillin {
		return nil
	}
	if mode == ModeCalibrator && !sp.IsCalibrator {
		return nil
	}
	// Skip a source already scheduled within half its repeat interval.
	if last, scanned := src.LastScanTime(); scanned && sp.MinRepeat > 0 {
		if float64(currentTime.Sub(last)) < sp.MinRepeat/2 {
			return nil
		}
	}
	if sp.MaxNumberOfScans > 0 && src.ScanCount() >= sp.MaxNumberOfScans {
		return nil
	}
	// A source whose flux model cannot reach its own MinFlux on any
	// baseline will never produce a usable observation in that band.
	for band, minFlux := range sp.MinFlux {
		if minFlux <= 0 {
			continue
		}
		if model, ok := src.Flux[band]; ok && model.MaximumFlux() < minFlux {
			return nil
		}
	}

	var stationIDs []idregistry.ID
	var pointings []geom.PointingVector
	var endOfLastScan []astro.Time
	availableNonTagalong := 0

	allowTagalong := mode == ModeCalibrator

	for _, stID := range b.StationOrder {
		st := b.Stations[stID]
		stp := st.Parameters()
		if !stp.Available {
			continue
		}
		if !stp.Tagalong {
			availableNonTagalong++
		} else if !allowTagalong {
			continue
		}
		if stp.MaxNumberOfScans > 0 && st.NumScans() >= stp.MaxNumberOfScans {
			continue
		}
		if stp.MaxTotalObsTime > 0 && float64(st.TotalScanTime()) >= stp.MaxTotalObsTime {
			continue
		}
		if stp.IgnoresSource(srcID) {
			continue
		}
		if sp.IgnoresStation(stID) {
			continue
		}

		tentative := st.Current().Time
		if !stp.FirstScan {
			tentative = tentative.Add(int64(stp.SystemDelay + stp.Preob))
		}

		pv := b.azEl(stID, srcID, st, src, tentative)
		if pv.El < sp.MinElevation || !st.IsVisible(pv) {
			continue
		}
		if b.tooCloseToSatellite(src, pv, tentative) {
			continue
		}

		stationIDs = append(stationIDs, stID)
		pointings = append(pointings, pv)
		endOfLastScan = append(endOfLastScan, st.Current().Time)
	}

	if len(stationIDs) == 0 {
		return nil
	}
	for reqID := range sp.RequiredStations {
		found := false
		for _, id := range stationIDs {
			if id == reqID {
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	minNeeded := sp.MinNumberOfStations
	if minNeeded < 2 {
		minNeeded = 2
	}
	ok := len(stationIDs) >= minNeeded
	if !ok && len(stationIDs) == availableNonTagalong && len(stationIDs) >= 2 {
		ok = true
	}
	if !ok {
		return nil
	}

	id := b.Registry.New(idregistry.Scan)
	sc, err := scan.NewScan(id, srcID, b.Config.Alignment, stationIDs, pointings, endOfLastScan)
	if err != nil {
		return nil
	}

	kind := KindSingle
	switch mode {
	case ModeFillin:
		kind = KindFillin
	case ModeCalibrator:
		switch b.Config.Calibrator.Strategy {
		case config.CalibratorScoreParallacticAngle:
			kind = KindParallacticAngle
		case config.CalibratorScoreDiffParallacticAngle:
			kind = KindDiffParallacticAngle
		default:
			kind = KindAstroCalibrator
		}
	}
	return &Candidate{Kind: kind, SourceID: srcID, Scan: sc, EndOfLastScan: endOfLastScan}
}

// tooCloseToSatellite implements the AvoidSatellites filter: a quasar
// candidate is
// rejected if its CRS line of sight passes within
// Config.AvoidSatellites.MinAngularDistance of any tracked satellite's
// CRS position at the candidate time. The separation is evaluated
// directly on the CRS unit vectors (rather than per-station az/el)
// since it models a shared line-of-sight hazard, not a station-local
// geometric one.
func (b *Builder) tooCloseToSatellite(src *source.Source, pv geom.PointingVector, t astro.Time) bool {
	if !b.Config.AvoidSatellites.Enabled || src.Kind == source.Satellite || len(b.Satellites) == 0 {
		return false
	}
	srcCRS := src.SourceInCRS(t)
	for _, satID := range b.Satellites {
		sat, ok := b.Sources[satID]
		if !ok {
			continue
		}
		satCRS := sat.SourceInCRS(t)
		sep := angularSeparationCRS(srcCRS, satCRS)
		if sep < b.Config.AvoidSatellites.MinAngularDistance {
			return true
		}
	}
	return false
}

func angularSeparationCRS(a, c [3]float64) float64 {
	dot := a[0]*c[0] + a[1]*c[1] + a[2]*c[2]
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}
