// Package geom implements the geometry primitives: station positions,
// pointing vectors, and the simple/rigorous az/el transforms between a
// station's local horizon frame and the celestial reference system.
package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	wgs84A  = 6378137.0         // semi-major axis, meters
	wgs84F  = 1.0 / 298.257223563 // flattening
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// Position is a station's location: Cartesian ECEF plus derived geodetic
// coordinates and the geodetic→local rotation matrix.
type Position struct {
	X, Y, Z float64 // ECEF meters

	Lat, Lon, Height float64 // geodetic radians/meters

	// rot is the 3x3 geodetic->local (ENU-like, az/el convention) rotation.
	rot *mat.Dense
}

// NewPosition builds a Position from ECEF coordinates, deriving geodetic
// latitude/longitude/height via Bowring's iteration and precomputing the
// geodetic->local rotation matrix.
func NewPosition(x, y, z float64) *Position {
	p := &Position{X: x, Y: y, Z: z}
	p.Lat, p.Lon, p.Height = bowring(x, y, z)
	p.rot = geodeticRotation(p.Lat, p.Lon)
	return p
}

// bowring computes geodetic latitude, longitude, and ellipsoidal height
// from ECEF coordinates using Bowring's iterative method.
func bowring(x, y, z float64) (lat, lon, height float64) {
	lon = math.Atan2(y, x)

	p := math.Hypot(x, y)
	if p < 1e-9 {
		// On the polar axis: latitude is +/-90 deg.
		lat = math.Copysign(math.Pi/2, z)
		height = math.Abs(z) - wgs84A*math.Sqrt(1-wgs84E2)
		return
	}

	// Initial guess.
	lat = math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 6; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		height = p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1-wgs84E2*n/(n+height)))
	}
	sinLat := math.Sin(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	height = p/math.Cos(lat) - n
	return
}

// geodeticRotation builds the 3x3 matrix rotating an ECEF-frame vector
// into the local topocentric (east, north, up) frame at the given
// geodetic latitude/longitude.
func geodeticRotation(lat, lon float64) *mat.Dense {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	r := mat.NewDense(3, 3, []float64{
		-sinLon, cosLon, 0, // east
		-sinLat * cosLon, -sinLat * sinLon, cosLat, // north
		cosLat * cosLon, cosLat * sinLon, sinLat, // up
	})
	return r
}

// ToLocal rotates an ECEF-frame vector v into this position's local
// (east, north, up) frame.
func (p *Position) ToLocal(v [3]float64) [3]float64 {
	in := mat.NewVecDense(3, v[:])
	out := mat.NewVecDense(3, nil)
	out.MulVec(p.rot, in)
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Dxyz returns the ECEF vector from p to q (q - p), used for baseline
// lengths and projections.
func (p *Position) Dxyz(q *Position) [3]float64 {
	return [3]float64{q.X - p.X, q.Y - p.Y, q.Z - p.Z}
}
