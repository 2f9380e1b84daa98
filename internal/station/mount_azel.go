package station

import "github.com/vlbisched/scheduler/internal/geom"

// AzElMount is the AZ/EL mount variant. When Axis1/Axis2
// both have Accel==0 it uses the velocity-only symmetric-acceleration
// model; when either axis specifies Accel/Decel it uses the
// acceleration-aware two-phase model for that axis.
type AzElMount struct {
	Axis1, Axis2 AxisKinematics // azimuth, elevation
}

func (m AzElMount) slew(old, new geom.PointingVector, tracking bool) (uint64, error) {
	dAz := deltaWithWrap(old.Az, new.Az)
	dEl := deltaWithWrap(old.El, new.El)

	a1, a2 := m.Axis1, m.Axis2
	if tracking {
		a1.Settle = 0
		a2.Settle = 0
	}

	t1 := a1.duration(dAz)
	t2 := a2.duration(dEl)
	t := t1
	if t2 > t {
		t = t2
	}
	return ceilSlew(t, m.Axis1.Rate, m.Axis2.Rate), nil
}

func (m AzElMount) Slew(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, false)
}

func (m AzElMount) SlewTracking(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, true)
}

// HaDcMount is the hour-angle/declination mount variant: same per-axis
// kinematics as AzElMount but applied to HA/Dec instead of Az/El.
type HaDcMount struct {
	AxisHA, AxisDc AxisKinematics
}

func (m HaDcMount) slew(old, new geom.PointingVector, tracking bool) (uint64, error) {
	dHA := deltaWithWrap(old.HA, new.HA)
	dDc := deltaWithWrap(old.Dec, new.Dec)

	aHA, aDc := m.AxisHA, m.AxisDc
	if tracking {
		aHA.Settle = 0
		aDc.Settle = 0
	}
	t := aHA.duration(dHA)
	if t2 := aDc.duration(dDc); t2 > t {
		t = t2
	}
	return ceilSlew(t, m.AxisHA.Rate, m.AxisDc.Rate), nil
}

func (m HaDcMount) Slew(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, false)
}

func (m HaDcMount) SlewTracking(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, true)
}
