package scan

import (
	"math"

	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/source"
)

// BandSNR is the per-band signal-to-noise accumulation rate and
// required duration for one observation.
type BandSNR struct {
	Band          string
	SNRPerSecond  float64
	RequiredSecs  float64 // time needed to reach Parameters.MinSNR[band]
}

// Observation is one baseline's contribution to a scan: the required
// integration time per band and the resulting clipped scan duration.
type Observation struct {
	BaselineID idregistry.ID
	Station1   idregistry.ID
	Station2   idregistry.ID

	Bands []BandSNR

	// DurationSeconds is max(RequiredSecs) across Bands, clipped to
	// [minScan, maxScan].
	DurationSeconds float64
}

// StationGeometry carries the per-station inputs needed to size an
// observation: SEFD at the observing elevation, and (for needsElDist
// flux models) elevation and geodesic distance to the source.
type StationGeometry struct {
	ID        idregistry.ID
	SEFD      map[string]float64 // band -> Jy
	Elevation float64            // radians
	Distance  float64            // meters, geodesic to source (only for needsElDist models)
}

// BuildObservation sizes one baseline's observation: for each band,
// projects (u,v) from the station ECEF difference and source direction
// (skipped when the flux model declares needsUV=false, and replaced by
// elevation/distance when it declares needsElDist=true), queries the flux
// model, computes the SNR accumulation rate, and derives the duration
// needed to reach the band's minimum SNR. The overall duration is the max
// across required bands, clipped to [minScan, maxScan].
func BuildObservation(baselineID idregistry.ID, a, b StationGeometry, dxyz [3]float64, srcCRS [3]float64,
	flux map[string]source.FluxModel, recordingRate map[string]float64, minSNR map[string]float64,
	minScan, maxScan float64) Observation {

	obs := Observation{BaselineID: baselineID, Station1: a.ID, Station2: b.ID}

	var maxRequired float64
	for band, model := range flux {
		rate, ok := recordingRate[band]
		if !ok || rate <= 0 {
			continue
		}
		required, ok := minSNR[band]
		if !ok || required <= 0 {
			continue
		}
		sefdA, okA := a.SEFD[band]
		sefdB, okB := b.SEFD[band]
		if !okA || !okB || sefdA <= 0 || sefdB <= 0 {
			continue
		}

		var fluxJy float64
		if model.NeedsUV() {
			u, v := projectUV(dxyz, srcCRS)
			fluxJy = model.ObservedFlux(u, v, 0, 0)
		} else if model.NeedsElDist() {
			fluxJy = model.ObservedFlux(0, 0, a.Elevation, a.Distance)
		} else {
			fluxJy = model.ObservedFlux(0, 0, 0, 0)
		}

		snrPerSec := snrPerSecond(fluxJy, sefdA, sefdB, rate)
		if snrPerSec <= 0 {
			continue
		}
		t := math.Pow(required/snrPerSec, 2)

		obs.Bands = append(obs.Bands, BandSNR{Band: band, SNRPerSecond: snrPerSec, RequiredSecs: t})
		if t > maxRequired {
			maxRequired = t
		}
	}

	obs.DurationSeconds = clip(maxRequired, minScan, maxScan)
	return obs
}

// snrPerSecond is the per-second SNR accumulation rate:
//
//	snr_per_s = F_Jy / sqrt(SEFD_i(el_i) * SEFD_j(el_j)) * sqrt(2 * recRate_band)
func snrPerSecond(fluxJy, sefdA, sefdB, recordingRate float64) float64 {
	return fluxJy / math.Sqrt(sefdA*sefdB) * math.Sqrt(2*recordingRate)
}

// projectUV computes the projected baseline (u,v), in meters, from the
// ECEF baseline vector and the source's CRS unit vector, via the
// standard VLBI (u,v) projection: u is the component perpendicular to
// the source direction in the local east sense, v perpendicular in the
// local "north" (declination) sense.
func projectUV(dxyz [3]float64, srcCRS [3]float64) (u, v float64) {
	// w-hat is the source direction; build an orthonormal (u,v,w) frame.
	w := srcCRS
	var up [3]float64
	if math.Abs(w[2]) < 0.999 {
		up = [3]float64{0, 0, 1}
	} else {
		up = [3]float64{1, 0, 0}
	}
	uHat := cross(up, w)
	uHat = normalize(uHat)
	vHat := cross(w, uHat)

	u = dot(dxyz, uHat)
	v = dot(dxyz, vHat)
	return
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(dot(v, v))
	if n == 0 {
		return v
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
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
