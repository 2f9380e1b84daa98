package astro

import "sort"

// EarthVector is a 3-D Cartesian vector, used here for the Earth's
// barycentric velocity (km/s) at a grid sample.
type EarthVector struct {
	X, Y, Z float64
}

// eopSample is one row of the precomputed Earth-orientation grid: CIO-based
// nutation/precession locator parameters X, Y, S (radians) and the Earth's
// barycentric velocity, sampled at MJD.
type eopSample struct {
	mjd     float64
	x, y, s float64
	vel     EarthVector
}

// AstronomicalParameters holds the process-wide, read-only-after-init
// Earth orientation grid: nutation X/Y/S and Earth barycentric velocity,
// sampled on a uniform time grid and linearly interpolated at query time.
type AstronomicalParameters struct {
	samples []eopSample
}

// EOPProvider supplies X, Y, S and Earth velocity at an arbitrary
// MJD; it is the external collaborator that would normally wrap a
// SOFA/IERS data source. NewAstronomicalParameters samples
// it onto a uniform grid once at session initialisation.
type EOPProvider interface {
	XYS(mjd float64) (x, y, s float64)
	EarthVelocity(mjd float64) EarthVector
}

// NewAstronomicalParameters samples provider on a uniform grid from
// mjdStart to mjdEnd (inclusive) at the given step (in days; a typical
// step is minutes, e.g. 5.0/1440.0).
func NewAstronomicalParameters(provider EOPProvider, mjdStart, mjdEnd, stepDays float64) *AstronomicalParameters {
	if stepDays <= 0 {
		stepDays = 5.0 / 1440.0
	}
	ap := &AstronomicalParameters{}
	for mjd := mjdStart; mjd <= mjdEnd+stepDays/2; mjd += stepDays {
		x, y, s := provider.XYS(mjd)
		ap.samples = append(ap.samples, eopSample{
			mjd: mjd, x: x, y: y, s: s, vel: provider.EarthVelocity(mjd),
		})
	}
	return ap
}

func (ap *AstronomicalParameters) bracket(mjd float64) (lo, hi eopSample, frac float64) {
	n := len(ap.samples)
	if n == 0 {
		return eopSample{}, eopSample{}, 0
	}
	if n == 1 || mjd <= ap.samples[0].mjd {
		return ap.samples[0], ap.samples[0], 0
	}
	if mjd >= ap.samples[n-1].mjd {
		return ap.samples[n-1], ap.samples[n-1], 0
	}
	i := sort.Search(n, func(i int) bool { return ap.samples[i].mjd >= mjd })
	lo = ap.samples[i-1]
	hi = ap.samples[i]
	span := hi.mjd - lo.mjd
	if span <= 0 {
		return lo, hi, 0
	}
	return lo, hi, (mjd - lo.mjd) / span
}

func lerp(a, b, frac float64) float64 { return a + (b-a)*frac }

// XYS returns the linearly interpolated CIO locator parameters at mjd.
func (ap *AstronomicalParameters) XYS(mjd float64) (x, y, s float64) {
	lo, hi, f := ap.bracket(mjd)
	return lerp(lo.x, hi.x, f), lerp(lo.y, hi.y, f), lerp(lo.s, hi.s, f)
}

// EarthVelocity returns the linearly interpolated Earth barycentric
// velocity at mjd, used for stellar aberration correction.
func (ap *AstronomicalParameters) EarthVelocity(mjd float64) EarthVector {
	lo, hi, f := ap.bracket(mjd)
	return EarthVector{
		X: lerp(lo.vel.X, hi.vel.X, f),
		Y: lerp(lo.vel.Y, hi.vel.Y, f),
		Z: lerp(lo.vel.Z, hi.vel.Z, f),
	}
}
