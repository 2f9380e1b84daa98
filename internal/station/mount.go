// Package station implements the station model: mount kinematics,
// cable-wrap unwinding, horizon masking, SEFD equipment models, the
// mutable per-station Parameters snapshot, and the Station entity itself.
package station

import (
	"math"

	"github.com/vlbisched/scheduler/internal/geom"
)

// AxisKinematics describes one rotation axis of an antenna mount: a
// symmetric-acceleration velocity-only model when Accel/Decel are zero, or
// the two-phase accelerate/cruise/decelerate model otherwise.
type AxisKinematics struct {
	Rate    float64 // rad/s, maximum slew rate
	Accel   float64 // rad/s^2, 0 selects the velocity-only (symmetric a=v) model
	Decel   float64 // rad/s^2, only used when Accel != 0
	Settle  float64 // seconds, added once the axis reaches its target
}

// lowRate1Threshold and lowRate2Threshold flag an axis whose maximum
// rate is slow enough that the scheduler should pad the computed slew
// time by one second to cover control-loop margins on unusually slow
// drives. The second axis tolerates slightly slower drives than the
// first before the pad kicks in.
const (
	lowRate1Threshold = 0.015 // rad/s, axis 1
	lowRate2Threshold = 0.010 // rad/s, axis 2
)

// duration returns the time, in seconds, to traverse an angular distance
// delta (radians, already taken as an absolute value) on this axis.
func (a AxisKinematics) duration(delta float64) float64 {
	if delta <= 0 {
		return a.Settle
	}
	if a.Accel == 0 {
		// Velocity-only, symmetric acceleration a = v.
		v := a.Rate
		acc := a.Rate
		var t float64
		if delta <= v*v/acc {
			t = 2 * math.Sqrt(delta/acc)
		} else {
			t = 2*v/acc + (delta-v*v/acc)/v
		}
		return t + a.Settle
	}

	// Acceleration-aware: separate accel/decel ramps.
	dAccel := a.Rate * a.Rate / (2 * a.Accel)
	dDecel := a.Rate * a.Rate / (2 * a.Decel)
	var t float64
	if delta < dAccel+dDecel {
		// Sub-critical: never reaches cruise rate.
		t = math.Sqrt(2*delta*(a.Accel+a.Decel)/(a.Accel*a.Decel))
	} else {
		tAccel := a.Rate / a.Accel
		tDecel := a.Rate / a.Decel
		dCruise := delta - dAccel - dDecel
		t = tAccel + tDecel + dCruise/a.Rate
	}
	return t + a.Settle
}

// ceilSlew applies the whole-second ceiling and control-loop-margin
// padding rule to the per-axis maximum slew time: one extra second when
// the raw duration's fractional part exceeds 0.85 s, or when either
// axis drives unusually slowly.
func ceilSlew(t, rate1, rate2 float64) uint64 {
	ceiled := math.Ceil(t)
	lowRate := (rate1 > 0 && rate1 < lowRate1Threshold) ||
		(rate2 > 0 && rate2 < lowRate2Threshold)
	if math.Mod(t, 1.0) > 0.85 || lowRate {
		ceiled++
	}
	return uint64(ceiled)
}

// Mount computes slew durations between two pointings for a specific
// antenna mount type. Implementations must be safe to
// call repeatedly with the same arguments (no hidden state mutation).
type Mount interface {
	// Slew returns the whole-second duration, including settle time, to
	// move from old to new.
	Slew(old, new geom.PointingVector) (uint64, error)
	// SlewTracking is the same computation without settle overhead, used
	// when the antenna is already tracking and only needs to re-point
	// within its current lock.
	SlewTracking(old, new geom.PointingVector) (uint64, error)
}

func deltaWithWrap(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
