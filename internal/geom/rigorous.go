package geom

import (
	"math"

	"github.com/vlbisched/scheduler/internal/astro"
)

// speedOfLightKmPerS is used for the first-order stellar aberration
// correction applied before the GCRS->ITRS rotation.
const speedOfLightKmPerS = 299792.458

// RigorousAzEl performs the full rigorous az/el transform: MJD -> ERA,
// CIO-based precession-nutation matrix from interpolated (X,Y,S),
// (identity) polar motion, GCRS->ITRS rotation applied to the source CRS
// vector corrected for aberration using the interpolated Earth velocity,
// then ITRS->local via the station's geodetic rotation. Azimuth is wrapped
// to [0, 2pi).
func RigorousAzEl(ts *astro.TimeSystem, ap *astro.AstronomicalParameters, pos *Position, srcCRS [3]float64, t astro.Time) PointingVector {
	mjd := ts.MJD(t)

	v := ap.EarthVelocity(mjd)
	aberrated := aberrate(srcCRS, v)

	x, y, s := ap.XYS(mjd)
	npb := cioMatrix(x, y, s)
	cirs := npb.apply(aberrated)

	era := astro.EarthRotationAngle(mjd)
	tirs := rot3(era).apply(cirs)

	// AstronomicalParameters only supplies X/Y/S and Earth velocity, no
	// polar motion, so the TIRS->ITRS step is the identity rotation.
	itrs := tirs

	local := pos.ToLocal(itrs)
	az, el := localToAzEl(local)
	ha, dec := azElToHaDec(az, el, pos.Lat)

	return PointingVector{Az: normalizeAz(az), El: el, HA: ha, Dec: dec, Time: t}
}

// aberrate applies the classical first-order stellar aberration
// correction to a unit direction vector u given the observer's velocity
// (km/s).
func aberrate(u [3]float64, v astro.EarthVector) [3]float64 {
	beta := [3]float64{v.X / speedOfLightKmPerS, v.Y / speedOfLightKmPerS, v.Z / speedOfLightKmPerS}
	dot := u[0]*beta[0] + u[1]*beta[1] + u[2]*beta[2]
	out := [3]float64{
		u[0] + beta[0] - dot*u[0],
		u[1] + beta[1] - dot*u[1],
		u[2] + beta[2] - dot*u[2],
	}
	n := math.Sqrt(out[0]*out[0] + out[1]*out[1] + out[2]*out[2])
	if n == 0 {
		return u
	}
	return [3]float64{out[0] / n, out[1] / n, out[2] / n}
}

// localToAzEl converts a unit vector in the station's local (east, north,
// up) frame into azimuth (measured from north, through east) and
// elevation.
func localToAzEl(local [3]float64) (az, el float64) {
	east, north, up := local[0], local[1], local[2]
	az = math.Atan2(east, north)
	el = math.Asin(clamp(up, -1, 1))
	return
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// azElToHaDec converts topocentric azimuth/elevation at geodetic latitude
// lat into hour angle and declination via the standard spherical
// transform.
func azElToHaDec(az, el, lat float64) (ha, dec float64) {
	sinEl, cosEl := math.Sincos(el)
	sinAz, cosAz := math.Sincos(az)
	sinLat, cosLat := math.Sincos(lat)

	sinDec := sinLat*sinEl + cosLat*cosEl*cosAz
	dec = math.Asin(clamp(sinDec, -1, 1))

	ha = math.Atan2(-sinAz*cosEl, cosLat*sinEl-sinLat*cosAz*cosEl)
	return
}

// QuasarCRS returns the constant CRS unit vector for a source at the
// given right ascension/declination (radians).
func QuasarCRS(ra, dec float64) [3]float64 {
	sinDec, cosDec := math.Sincos(dec)
	sinRA, cosRA := math.Sincos(ra)
	return [3]float64{cosDec * cosRA, cosDec * sinRA, sinDec}
}
