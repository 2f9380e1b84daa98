package subcon

import (
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/network"
	"github.com/vlbisched/scheduler/internal/scan"
	"github.com/vlbisched/scheduler/internal/source"
	"github.com/vlbisched/scheduler/internal/station"
)

// isCalibratorKind reports whether a scan kind belongs to a calibrator
// block, where the configured target-length semantics may override the
// usual min/max scan bounds.
func isCalibratorKind(k Kind) bool {
	switch k {
	case KindFringeFinder, KindAstroCalibrator, KindParallacticAngle, KindDiffParallacticAngle:
		return true
	default:
		return false
	}
}

// sizeObservationsImpl sizes every baseline within cand.Scan: builds a
// scan.Observation per pair of participating stations via
// scan.BuildObservation, using each station's SEFD at the candidate
// elevation, the baseline's ECEF vector, the source's CRS direction, the
// smaller of the two stations' band recording rates, and the larger of the
// two stations' per-band minimum SNR. The resulting per-station observing
// durations are then applied via Scan.SetObservationDurations.
func (b *Builder) sizeObservationsImpl(cand *Candidate) bool {
	if b.Network == nil {
		return false
	}
	n := len(cand.Scan.StationIDs)
	if n < 2 {
		return false
	}

	src := b.Sources[cand.SourceID]
	sp := src.Parameters()

	var observations []scan.Observation
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			stID1, stID2 := cand.Scan.StationIDs[i], cand.Scan.StationIDs[j]
			blID, ok := b.Network.BaselineID(stID1, stID2)
			if !ok {
				continue
			}
			st1, st2 := b.Stations[stID1], b.Stations[stID2]
			pv1, pv2 := cand.Scan.Pointings[i], cand.Scan.Pointings[j]

			geo1 := b.stationGeometry(stID1, st1, src, pv1)
			geo2 := b.stationGeometry(stID2, st2, src, pv2)

			dxyz, err := b.Network.Dxyz(stID1, stID2)
			if err != nil {
				continue
			}

			p1, p2 := st1.Parameters(), st2.Parameters()
			recordingRate := minRates(p1.RecordingRate, p2.RecordingRate)
			minSNR := maxSNR(p1.MinSNR, p2.MinSNR)

			minScan, maxScan := b.observationScanBounds(blID, p1, p2, sp)
			if isCalibratorKind(cand.Kind) &&
				b.Config.Calibrator.TargetMode == config.CalibratorTargetSeconds &&
				b.Config.Calibrator.TargetSeconds > 0 {
				minScan = b.Config.Calibrator.TargetSeconds
				maxScan = b.Config.Calibrator.TargetSeconds
			}

			srcCRS := src.SourceInCRS(pv1.Time)
			obs := scan.BuildObservation(blID, geo1, geo2, dxyz, srcCRS, src.Flux, recordingRate, minSNR, minScan, maxScan)
			observations = append(observations, obs)
		}
	}
	if len(observations) == 0 {
		return false
	}

	cand.Scan.Observations = observations
	return cand.Scan.SetObservationDurations() == nil
}

// stationGeometry builds a scan.StationGeometry for one station at its
// candidate pointing: SEFD per band at the
// candidate elevation, plus (for needsElDist flux models) the slant
// distance from the station to the source.
func (b *Builder) stationGeometry(stID idregistry.ID, st *station.Station, src *source.Source, pv geom.PointingVector) scan.StationGeometry {
	sefd := make(map[string]float64, len(src.Flux))
	for band := range src.Flux {
		if v, err := st.SEFD.SEFD(band, pv.El); err == nil {
			sefd[band] = v
		}
	}
	geo := scan.StationGeometry{ID: stID, SEFD: sefd, Elevation: pv.El}
	if st.Position != nil {
		ecef := [3]float64{st.Position.X, st.Position.Y, st.Position.Z}
		if dist, ok := src.SlantRange(ecef, pv.Time); ok {
			geo.Distance = dist
		}
	}
	return geo
}

func minRates(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for band, va := range a {
		if vb, ok := b[band]; ok {
			out[band] = minFloat(va, vb)
		}
	}
	return out
}

func maxSNR(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a)+len(b))
	for band, va := range a {
		out[band] = va
	}
	for band, vb := range b {
		if cur, ok := out[band]; !ok || vb > cur {
			out[band] = vb
		}
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// observationScanBounds resolves min/max scan, baseline-specific with
// station fall-backs: a baseline override
// wins if set, otherwise the stricter of the two stations' bounds,
// otherwise the source's bounds, otherwise defaultMaxScan for the
// ceiling (no floor defaults to 0).
func (b *Builder) observationScanBounds(blID idregistry.ID, p1, p2 station.Parameters, sp source.Parameters) (float64, float64) {
	var bl network.BaselineParameters
	if b.Network != nil {
		bl = b.Network.BaselineState(blID).Parameters()
	}
	minScan, maxScan := bl.MinScan, bl.MaxScan

	if minScan <= 0 {
		minScan = maxFloat(p1.ScanMin, p2.ScanMin)
	}
	if minScan <= 0 {
		minScan = sp.MinScan
	}
	if maxScan <= 0 {
		maxScan = minPositive(p1.ScanMax, p2.ScanMax)
	}
	if maxScan <= 0 {
		maxScan = sp.MaxScan
	}
	if maxScan <= 0 {
		maxScan = defaultMaxScan
	}
	return minScan, maxScan
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minPositive(a, b float64) float64 {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
