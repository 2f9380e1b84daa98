// Package astro implements the time and astronomy primitives the scheduler
// is built on: the session time system, MJD/GMST/ERA conversions, a
// grid-interpolated source of Earth orientation parameters, and the
// pre-sampled lookup tables used inside the scheduler's inner loops.
package astro

import (
	"fmt"
	"math"
	"time"
)

// Time is a non-negative integer offset in seconds from a session's
// TimeSystem.StartTime. All internal scheduling arithmetic uses this unit
// instead of wall-clock time.
type Time uint64

// Add returns t+d, d may be negative as long as the result stays >= 0.
func (t Time) Add(d int64) Time {
	if d < 0 && uint64(-d) > uint64(t) {
		return 0
	}
	return Time(int64(t) + d)
}

// Sub returns t-u as a signed second count.
func (t Time) Sub(u Time) int64 {
	return int64(t) - int64(u)
}

// TimeSystem anchors a scheduling session: the starting Modified Julian
// Date, the wall-clock start/end instants, and the session duration. It is
// built once at initialisation and never mutated during scheduling.
type TimeSystem struct {
	MJDStart  float64
	StartTime time.Time
	EndTime   time.Time
}

// NewTimeSystem validates and constructs a TimeSystem.
func NewTimeSystem(mjdStart float64, start, end time.Time) (*TimeSystem, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("astro: end time %v must be after start time %v", end, start)
	}
	return &TimeSystem{MJDStart: mjdStart, StartTime: start, EndTime: end}, nil
}

// Duration returns the session length.
func (ts *TimeSystem) Duration() Time {
	return Time(ts.EndTime.Sub(ts.StartTime) / time.Second)
}

// ToWallClock converts a session-relative Time to an absolute instant.
func (ts *TimeSystem) ToWallClock(t Time) time.Time {
	return ts.StartTime.Add(time.Duration(t) * time.Second)
}

// MJD returns the Modified Julian Date corresponding to session time t.
func (ts *TimeSystem) MJD(t Time) float64 {
	return ts.MJDStart + float64(t)/86400.0
}

// GMST returns the Greenwich Mean Sidereal Time, in radians in [0, 2pi),
// for the given Modified Julian Date using the standard IAU polynomial
// approximation driven off UT1 (treated as equal to UTC for scheduling
// purposes, consistent with the precision the scheduler requires).
func GMST(mjd float64) float64 {
	const mjd0 = 51544.5 // J2000.0 in MJD
	tu := (math.Floor(mjd) - mjd0) / 36525.0

	// Seconds of GMST at 0h UT, IAU 1982 expression.
	gmstSec := 24110.54841 + 8640184.812866*tu + 0.093104*tu*tu - 6.2e-6*tu*tu*tu

	// Add the sidereal contribution of the fractional day.
	fracDay := mjd - math.Floor(mjd)
	gmstSec += fracDay * 86400.0 * 1.00273790935

	const secPerRev = 86400.0
	gmstSec = math.Mod(gmstSec, secPerRev)
	if gmstSec < 0 {
		gmstSec += secPerRev
	}
	return gmstSec / secPerRev * 2 * math.Pi
}

// EarthRotationAngle returns the CIO-based Earth Rotation Angle (radians,
// wrapped to [0, 2pi)) for the given Modified Julian Date (UT1 treated as
// UTC), per the IAU 2000 expression used by the rigorous az/el transform.
func EarthRotationAngle(mjd float64) float64 {
	const mjd0 = 51544.5
	tu := mjd - mjd0
	frac := tu - math.Floor(tu)
	era := 2 * math.Pi * (frac + 0.7790572732640 + 0.00273781191135448*tu)
	era = math.Mod(era, 2*math.Pi)
	if era < 0 {
		era += 2 * math.Pi
	}
	return era
}
