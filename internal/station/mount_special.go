package station

import (
	"math"

	"github.com/vlbisched/scheduler/internal/geom"
)

// GGAO12MMount models the GGAO12M antenna's radar-avoidance slewing: a
// straight az/el slew that would cross within the "radar peak" region
// (az near 192deg, mirrored at 552deg under the antenna's 2pi-plus
// cable-wrap range, el below 42deg) is decomposed into segments that
// climb over or descend around the peak from the correct side instead of
// slewing straight through it.
type GGAO12MMount struct {
	Base       AzElMount
	PeakEl     float64 // radians, elevation above which the peak is clear (42deg)
	PeakAzimuths []float64 // radians, e.g. {192deg, 192deg+360deg}
}

// NewGGAO12MMount builds the default GGAO12M radar-avoidance mount around
// the given base AZ/EL kinematics.
func NewGGAO12MMount(base AzElMount) GGAO12MMount {
	deg := math.Pi / 180
	return GGAO12MMount{
		Base:         base,
		PeakEl:       42 * deg,
		PeakAzimuths: []float64{192 * deg, 192*deg + 2*math.Pi},
	}
}

func (m GGAO12MMount) crossesPeak(azLo, azHi float64) (float64, bool) {
	if azLo > azHi {
		azLo, azHi = azHi, azLo
	}
	for _, p := range m.PeakAzimuths {
		if p >= azLo && p <= azHi {
			return p, true
		}
	}
	return 0, false
}

func (m GGAO12MMount) slew(old, new geom.PointingVector, tracking bool) (uint64, error) {
	peakAz, crosses := m.crossesPeak(old.Az, new.Az)
	lowEl := old.El < m.PeakEl || new.El < m.PeakEl
	if !crosses || !lowEl {
		return m.Base.slew(old, new, tracking)
	}

	// Decompose: climb to clear elevation at the starting azimuth, cross
	// the peak azimuth at clear elevation, then descend to the target
	// elevation at the target azimuth.
	viaStart := geom.PointingVector{Az: old.Az, El: m.PeakEl}
	viaPeak := geom.PointingVector{Az: peakAz, El: m.PeakEl}

	t1, err := m.Base.slew(old, viaStart, tracking)
	if err != nil {
		return 0, err
	}
	t2, err := m.Base.slew(viaStart, viaPeak, true)
	if err != nil {
		return 0, err
	}
	t3, err := m.Base.slew(viaPeak, new, true)
	if err != nil {
		return 0, err
	}
	return t1 + t2 + t3, nil
}

func (m GGAO12MMount) Slew(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, false)
}

func (m GGAO12MMount) SlewTracking(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, true)
}

// Onsala13Mount models the ONSALA13-style mount that slows down near
// cable-wrap ends and near the horizon/zenith, via piecewise-linear rate
// zones integrated over the traversed arc.
type Onsala13Mount struct {
	Base AzElMount

	Axis1Low, Axis1Up float64 // cable-wrap azimuth limits, radians
	SlowZoneWidth     float64 // radians, width of the reduced-rate zone at each boundary
	SlowRateFactor    float64 // 0..1, rate multiplier inside a slow zone

	MinEl, MaxEl float64 // horizon/zenith elevation limits, radians
}

// azRateFactor returns the rate multiplier in [SlowRateFactor, 1] at
// azimuth az, ramping linearly from SlowRateFactor at the boundary to 1
// a distance SlowZoneWidth away from it.
func (m Onsala13Mount) azRateFactor(az float64) float64 {
	dLow := az - m.Axis1Low
	dUp := m.Axis1Up - az
	d := dLow
	if dUp < d {
		d = dUp
	}
	return m.zoneFactor(d)
}

func (m Onsala13Mount) elRateFactor(el float64) float64 {
	dHorizon := el - m.MinEl
	dZenith := m.MaxEl - el
	d := dHorizon
	if dZenith < d {
		d = dZenith
	}
	return m.zoneFactor(d)
}

func (m Onsala13Mount) zoneFactor(distanceFromBoundary float64) float64 {
	w := m.SlowZoneWidth
	if w <= 0 || distanceFromBoundary >= w {
		return 1
	}
	if distanceFromBoundary <= 0 {
		return m.SlowRateFactor
	}
	frac := distanceFromBoundary / w
	return m.SlowRateFactor + (1-m.SlowRateFactor)*frac
}

// integratedDuration numerically integrates the travel time across the
// arc from a to b (radians) given a per-position rate-factor function and
// a nominal (unthrottled) axis duration function.
func integratedDuration(a, b float64, rate func(float64) float64, axis AxisKinematics) float64 {
	delta := deltaWithWrap(a, b)
	if delta == 0 {
		return axis.Settle
	}
	const steps = 20
	step := delta / steps
	dir := 1.0
	if b < a {
		dir = -1.0
	}
	var avgInverseRate float64
	for i := 0; i < steps; i++ {
		pos := a + dir*step*(float64(i)+0.5)
		f := rate(pos)
		if f <= 0 {
			f = 1
		}
		avgInverseRate += 1 / f
	}
	avgInverseRate /= steps

	// Scale the nominal unthrottled duration (minus settle) by the mean
	// inverse rate factor across the traversed arc.
	nominal := axis.duration(delta) - axis.Settle
	return nominal*avgInverseRate + axis.Settle
}

func (m Onsala13Mount) slew(old, new geom.PointingVector, tracking bool) (uint64, error) {
	axis1, axis2 := m.Base.Axis1, m.Base.Axis2
	if tracking {
		axis1.Settle = 0
		axis2.Settle = 0
	}

	t1 := integratedDuration(old.Az, new.Az, m.azRateFactor, axis1)
	t2 := integratedDuration(old.El, new.El, m.elRateFactor, axis2)
	t := t1
	if t2 > t {
		t = t2
	}
	return ceilSlew(t, m.Base.Axis1.Rate, m.Base.Axis2.Rate), nil
}

func (m Onsala13Mount) Slew(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, false)
}

func (m Onsala13Mount) SlewTracking(old, new geom.PointingVector) (uint64, error) {
	return m.slew(old, new, true)
}
