package geom

import "math"

// mat3 is a 3x3 row-major rotation matrix. Geometry primitives use a small
// hand-rolled type for the single-purpose rotations chained in the
// rigorous transform (basic rotations about one axis); gonum/mat is used
// in Position for the geodetic rotation and is reused wherever a general
// dense matrix is the natural fit.
type mat3 [3][3]float64

// rot3 returns the rotation matrix about the Z axis by angle theta.
func rot3(theta float64) mat3 {
	s, c := math.Sincos(theta)
	return mat3{
		{c, s, 0},
		{-s, c, 0},
		{0, 0, 1},
	}
}

// rot2 returns the rotation matrix about the Y axis by angle theta.
func rot2(theta float64) mat3 {
	s, c := math.Sincos(theta)
	return mat3{
		{c, 0, -s},
		{0, 1, 0},
		{s, 0, c},
	}
}

func (a mat3) mul(b mat3) mat3 {
	var r mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

func (a mat3) apply(v [3]float64) [3]float64 {
	return [3]float64{
		a[0][0]*v[0] + a[0][1]*v[1] + a[0][2]*v[2],
		a[1][0]*v[0] + a[1][1]*v[1] + a[1][2]*v[2],
		a[2][0]*v[0] + a[2][1]*v[1] + a[2][2]*v[2],
	}
}

// cioMatrix builds the CIO-based precession-nutation-bias matrix from the
// interpolated locator parameters X, Y, S: the GCRS->CIRS
// rotation that takes the celestial intermediate origin as its node.
func cioMatrix(x, y, s float64) mat3 {
	r2 := x*x + y*y
	var e, d float64
	if r2 > 0 {
		r := math.Sqrt(r2)
		e = math.Atan2(y, x)
		d = math.Atan(r / math.Sqrt(1-r2))
	}
	return rot3(-e).mul(rot2(-d)).mul(rot3(e + s))
}
