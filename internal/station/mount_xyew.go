package station

import (
	"math"

	"github.com/vlbisched/scheduler/internal/geom"
)

// azElToXY converts a topocentric (az,el) pointing into the X (primary,
// horizontal) / Y (secondary) axis angles of an X-Y/E-W mount, which
// slews in (x,y) rather than (az,el).
func azElToXY(az, el float64) (x, y float64) {
	east := math.Sin(az) * math.Cos(el)
	north := math.Cos(az) * math.Cos(el)
	up := math.Sin(el)
	y = math.Asin(clampUnit(east))
	x = math.Atan2(up, north)
	return
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// XYEWMount is the X-Y/E-W mount variant.
type XYEWMount struct {
	AxisX, AxisY AxisKinematics
}

func (m XYEWMount) slew(old, new geom.PointingVector, tracking bool) (uint64, error) {
	x1, y1 := azElToXY(old.Az, old.El)
	x2, y2 := azElToXY(new.Az, new.El)

	dX := deltaWithWrap(x1, x2)
	dY := deltaWithWrap(y1, y2)

	aX, aY := m.AxisX, m.AxisY
	if tracking {
		aX.Settle = 0
		aY.Settle = 0
	}
	t := aX.duration(dX)
	if t2 := aY.duration(dY); t2 > t {
		t = t2
	}
	return ceilSlew(t, m.AxisX.Rate, m.AxisY.Rate), nil
}

func (m XYEWMount) Slew(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, false)
}

func (m XYEWMount) SlewTracking(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, true)
}
