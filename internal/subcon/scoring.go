package subcon

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// ScoreComponents breaks a candidate's total score into its weighted
// terms, each normalised to [0,1] before weighting.
// Kept alongside Candidate.Score for diagnostics (the demo CLI and
// internal/monitor render these per scan).
type ScoreComponents struct {
	NumStations      float64
	AverageStations  float64
	AverageBaselines float64
	AverageSources   float64
	Duration         float64
	SkyCoverage      float64
	IdleTime         float64
	Weight           float64
	LowElevation     float64
	HighElevation    float64
}

// Total applies w's weights to c's normalised terms.
func (c ScoreComponents) Total(w config.WeightFactors) float64 {
	return w.NumStations*c.NumStations +
		w.AverageStations*c.AverageStations +
		w.AverageBaselines*c.AverageBaselines +
		w.AverageSources*c.AverageSources +
		w.Duration*c.Duration +
		w.SkyCoverage*c.SkyCoverage +
		w.IdleTime*c.IdleTime
}

// averageDeviationScore implements the `averageStations`/
// `averageBaselines`/`averageSources` score family: for a
// set of per-entity observation counts, the sum over the candidate's
// participating entities of max(0, mean-obs_i)/maxDev, where maxDev is
// the largest such deviation across all entities currently tracked
// (so a candidate that serves the most under-observed entities scores
// highest). Uses gonum/stat.Mean for the population mean.
func averageDeviationScore(allCounts []float64, participating []float64) float64 {
	if len(allCounts) == 0 || len(participating) == 0 {
		return 0
	}
	mean := stat.Mean(allCounts, nil)

	var maxDev float64
	for _, c := range allCounts {
		if d := mean - c; d > maxDev {
			maxDev = d
		}
	}
	if maxDev <= 0 {
		return 0
	}

	var sum float64
	for _, c := range participating {
		if d := mean - c; d > 0 {
			sum += d
		}
	}
	return clip(sum/maxDev, 0, 1)
}

// durationScore implements the `duration` term: shorter scans
// score higher, normalised against the span of scan lengths observed
// across the subcon this candidate belongs to.
func durationScore(thisDuration, minDuration, maxDuration float64) float64 {
	if maxDuration <= minDuration {
		return 1
	}
	return clip((maxDuration-thisDuration)/(maxDuration-minDuration), 0, 1)
}

// elevationRampScore implements the `lowEl`/`highEl` calibrator-mode
// terms: a linear ramp outside [start,full], zero
// inside the "normal" elevation band, one once past the ramp's full
// saturation point.
func elevationRampScore(el, rampStart, rampFull, direction float64) float64 {
	// direction > 0: low-elevation ramp (score rises as el falls below
	// rampStart toward rampFull). direction < 0: high-elevation ramp
	// (score rises as el rises above rampStart toward rampFull).
	if direction > 0 {
		if el >= rampStart {
			return 0
		}
		if el <= rampFull {
			return 1
		}
		return clip((rampStart-el)/(rampStart-rampFull), 0, 1)
	}
	if el <= rampStart {
		return 0
	}
	if el >= rampFull {
		return 1
	}
	return clip((el-rampStart)/(rampFull-rampStart), 0, 1)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scoreContext carries the subcon-wide aggregates scoreCandidate needs
// so each candidate's terms are normalised against the same baselines:
// the numStations denominator is n_avail-n_min, the duration
// denominator is the subcon's own min/max scan length, and so on.
type scoreContext struct {
	numAvailableStations int
	minNumStations       int

	stationObsCounts  []float64 // all stations, by StationOrder index
	baselineObsCounts []float64
	sourceObsCounts   []float64

	stationIndex  map[idregistry.ID]int
	baselineIndex map[idregistry.ID]int
	sourceIndex   map[idregistry.ID]int

	minScanSeconds, maxScanSeconds float64

	recentlyObservedPenalty float64 // fixed 0.01 demotion factor
}

// newScoreContext snapshots the counters of every station, baseline,
// and source the builder knows about, plus the min/max duration across
// the candidate set just built, so scoreCandidate can normalise
// consistently within one subcon.
func (b *Builder) newScoreContext(candidates []*Candidate) *scoreContext {
	ctx := &scoreContext{
		stationIndex:  make(map[idregistry.ID]int),
		baselineIndex: make(map[idregistry.ID]int),
		sourceIndex:   make(map[idregistry.ID]int),
		minScanSeconds:  1e18,
		recentlyObservedPenalty: 0.01,
	}

	for i, id := range b.StationOrder {
		st := b.Stations[id]
		ctx.stationIndex[id] = i
		ctx.stationObsCounts = append(ctx.stationObsCounts, float64(st.NumObservations()))
		if st.Parameters().Available {
			ctx.numAvailableStations++
		}
	}
	for i, id := range b.SourceOrder {
		src := b.Sources[id]
		ctx.sourceIndex[id] = i
		ctx.sourceObsCounts = append(ctx.sourceObsCounts, float64(src.ScanCount()))
	}
	if b.Network != nil {
		for i, bl := range b.Network.Baselines() {
			ctx.baselineIndex[bl.ID] = i
			ctx.baselineObsCounts = append(ctx.baselineObsCounts, float64(b.Network.BaselineState(bl.ID).NumObservations()))
		}
	}

	ctx.minNumStations = 2
	for _, c := range candidates {
		n := len(c.Scan.StationIDs)
		if n < ctx.minNumStations {
			ctx.minNumStations = n
		}
		d := c.Scan.ScanEnd().Sub(c.Scan.Times.ObservingStart(0))
		if float64(d) < ctx.minScanSeconds {
			ctx.minScanSeconds = float64(d)
		}
		if float64(d) > ctx.maxScanSeconds {
			ctx.maxScanSeconds = float64(d)
		}
	}
	return ctx
}

// ScoreCandidate computes cand's weighted score, recording the per-term
// breakdown on the candidate. For a subnetted pair, the two sub-scans'
// scores are summed (Partner is scored recursively and its Score added).
func (b *Builder) ScoreCandidate(cand *Candidate, ctx *scoreContext) float64 {
	comp := b.scoreComponentsOf(cand, ctx)

	weight := b.candidateWeight(cand)
	comp.Weight = weight
	cand.Components = comp

	var total float64
	switch cand.Kind {
	case KindParallacticAngle:
		total = b.parallacticAngleSpreadScore(cand)*weight + comp.LowElevation + comp.HighElevation
	case KindDiffParallacticAngle:
		total = b.diffParallacticAngleScore(cand)*weight + comp.LowElevation + comp.HighElevation
	default:
		total = comp.Total(b.Config.Weights)*weight + comp.LowElevation + comp.HighElevation
	}

	if src, ok := b.Sources[cand.SourceID]; ok {
		if last, scanned := src.LastScanTime(); scanned {
			sp := src.Parameters()
			if sp.MinRepeat > 0 {
				start := cand.Scan.Times.ObservingStart(0)
				if float64(start.Sub(last)) < sp.MinRepeat {
					total *= ctx.recentlyObservedPenalty
				}
			}
		}
	}

	cand.Score = total
	if cand.Partner != nil {
		cand.Score += b.ScoreCandidate(cand.Partner, ctx)
	}
	return cand.Score
}

func (b *Builder) scoreComponentsOf(cand *Candidate, ctx *scoreContext) ScoreComponents {
	var comp ScoreComponents

	denom := ctx.numAvailableStations - ctx.minNumStations
	if denom > 0 {
		comp.NumStations = clip(float64(len(cand.Scan.StationIDs)-ctx.minNumStations)/float64(denom), 0, 1)
	}

	var stationCounts []float64
	for _, stID := range cand.Scan.StationIDs {
		if i, ok := ctx.stationIndex[stID]; ok {
			stationCounts = append(stationCounts, ctx.stationObsCounts[i])
		}
	}
	comp.AverageStations = averageDeviationScore(ctx.stationObsCounts, stationCounts)

	var baselineCounts []float64
	if b.Network != nil {
		for i := range cand.Scan.StationIDs {
			for j := i + 1; j < len(cand.Scan.StationIDs); j++ {
				if blID, ok := b.Network.BaselineID(cand.Scan.StationIDs[i], cand.Scan.StationIDs[j]); ok {
					if bi, ok := ctx.baselineIndex[blID]; ok {
						baselineCounts = append(baselineCounts, ctx.baselineObsCounts[bi])
					}
				}
			}
		}
	}
	comp.AverageBaselines = averageDeviationScore(ctx.baselineObsCounts, baselineCounts)

	if si, ok := ctx.sourceIndex[cand.SourceID]; ok {
		comp.AverageSources = averageDeviationScore(ctx.sourceObsCounts, []float64{ctx.sourceObsCounts[si]})
	}

	scanLen := float64(cand.Scan.ScanEnd().Sub(cand.Scan.Times.ObservingStart(0)))
	comp.Duration = durationScore(scanLen, ctx.minScanSeconds, ctx.maxScanSeconds)

	comp.SkyCoverage = b.skyCoverageScore(cand)
	comp.IdleTime = b.idleTimeScore(cand)

	if b.Config.Calibrator.Enabled {
		comp.LowElevation, comp.HighElevation = b.elevationRampScores(cand)
	}

	return comp
}

func (b *Builder) skyCoverageScore(cand *Candidate) float64 {
	if b.Sky == nil {
		return 1
	}
	var sum float64
	for i, stID := range cand.Scan.StationIDs {
		sum += b.Sky.ScoreForStation(b.Network, b.Lookup, stID, cand.Scan.Pointings[i],
			b.Config.SkyCoverage.MaxInfluenceDistance, b.Config.SkyCoverage.MaxInfluenceTime, b.Config.SkyCoverage.Kernel)
	}
	return sum / float64(len(cand.Scan.StationIDs))
}

func (b *Builder) idleTimeScore(cand *Candidate) float64 {
	interval := b.Config.Weights.IdleInterval
	if interval <= 0 {
		return 0
	}
	ends := cand.Scan.Times.EndOfSlewTimes()
	var sum float64
	for i := range cand.Scan.StationIDs {
		idle := float64(ends[i].Sub(cand.EndOfLastScan[i]))
		if idle < 0 {
			idle = 0
		}
		sum += clip(idle/interval, 0, 1)
	}
	return sum / float64(len(cand.Scan.StationIDs))
}

// elevationRampScores implements the `lowEl`/`highEl` terms: a ramp
// outside [low_full, low_start] and [high_start, high_full], averaged
// across participating stations.
func (b *Builder) elevationRampScores(cand *Candidate) (low, high float64) {
	w := b.Config.Weights
	n := float64(len(cand.Scan.Pointings))
	if n == 0 {
		return 0, 0
	}
	for _, pv := range cand.Scan.Pointings {
		low += elevationRampScore(pv.El, w.LowElevationStartWeight, w.LowElevationFullWeight, 1)
		high += elevationRampScore(pv.El, w.HighElevationStartWeight, w.HighElevationFullWeight, -1)
	}
	return low / n, high / n
}

// parallacticAngle returns the parallactic angle of a pointing seen
// from geodetic latitude lat, via the standard spherical-triangle
// relation on hour angle and declination.
func parallacticAngle(pv geom.PointingVector, lat float64) float64 {
	return math.Atan2(math.Sin(pv.HA),
		math.Tan(lat)*math.Cos(pv.Dec)-math.Sin(pv.Dec)*math.Cos(pv.HA))
}

// parallacticAngleSpreadScore scores a calibrator candidate by the
// diversity of parallactic angles across its stations: the full spread
// (max minus min), normalised so half a turn of coverage saturates at
// 1. Instrumental polarisation calibration wants the feed orientation
// sampled as widely as possible within one scan.
func (b *Builder) parallacticAngleSpreadScore(cand *Candidate) float64 {
	angles := b.parallacticAngles(cand)
	if len(angles) < 2 {
		return 0
	}
	min, max := angles[0], angles[0]
	for _, q := range angles[1:] {
		if q < min {
			min = q
		}
		if q > max {
			max = q
		}
	}
	return clip((max-min)/math.Pi, 0, 1)
}

// diffParallacticAngleScore scores a calibrator candidate by the mean
// pairwise parallactic-angle difference across its stations, normalised
// the same way as parallacticAngleSpreadScore.
func (b *Builder) diffParallacticAngleScore(cand *Candidate) float64 {
	angles := b.parallacticAngles(cand)
	n := len(angles)
	if n < 2 {
		return 0
	}
	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += math.Abs(angles[i] - angles[j])
			pairs++
		}
	}
	return clip(sum/float64(pairs)/math.Pi, 0, 1)
}

func (b *Builder) parallacticAngles(cand *Candidate) []float64 {
	var angles []float64
	for i, stID := range cand.Scan.StationIDs {
		st, ok := b.Stations[stID]
		if !ok || st.Position == nil {
			continue
		}
		angles = append(angles, parallacticAngle(cand.Scan.Pointings[i], st.Position.Lat))
	}
	return angles
}

// candidateWeight is the product of the station, source, and baseline
// weights participating in the scan.
func (b *Builder) candidateWeight(cand *Candidate) float64 {
	w := 1.0
	if src, ok := b.Sources[cand.SourceID]; ok {
		if sw := src.Parameters().Weight; sw > 0 {
			w *= sw
		}
	}
	for _, stID := range cand.Scan.StationIDs {
		if st, ok := b.Stations[stID]; ok {
			if sw := st.Parameters().Weight; sw > 0 {
				w *= sw
			}
		}
	}
	if b.Network != nil {
		ids := cand.Scan.StationIDs
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				blID, ok := b.Network.BaselineID(ids[i], ids[j])
				if !ok {
					continue
				}
				if bw := b.Network.BaselineState(blID).Parameters().Weight; bw > 0 {
					w *= bw
				}
			}
		}
	}
	return w
}
