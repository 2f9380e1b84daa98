package station

import (
	"fmt"
	"math"

	"github.com/vlbisched/scheduler/internal/geom"
)

// Section identifies one of the (possibly overlapping) cable-wrap
// ranges an axis-1 angle can be unwrapped into.
type Section byte

const (
	SectionNeutral Section = '-'
	SectionCW      Section = 'C'
	SectionCCW     Section = 'W'
)

// CableWrap models the allowed rotation range of an antenna's first axis
//. When axis1Up-axis1Low exceeds a full turn, the range
// is split into three overlapping sections: CCW, neutral, and CW.
type CableWrap struct {
	axis1Low, axis1Up float64
	axis2Low, axis2Up float64

	axis1LowOffset, axis1UpOffset float64
	axis2LowOffset, axis2UpOffset float64

	wLow, wUp float64 // CCW section
	nLow, nUp float64 // neutral section
	cLow, cUp float64 // CW section
}

// NewCableWrap builds a CableWrap from axis limits in radians.
func NewCableWrap(axis1Low, axis1Up, axis2Low, axis2Up float64) (*CableWrap, error) {
	if axis1Up <= axis1Low {
		return nil, fmt.Errorf("station: cable wrap axis1 upper limit %f must exceed lower limit %f", axis1Up, axis1Low)
	}
	if axis2Up <= axis2Low {
		return nil, fmt.Errorf("station: cable wrap axis2 upper limit %f must exceed lower limit %f", axis2Up, axis2Low)
	}

	cw := &CableWrap{axis1Low: axis1Low, axis1Up: axis1Up, axis2Low: axis2Low, axis2Up: axis2Up}

	const twoPi = 2 * math.Pi
	if (axis1Up - axis1Low) > twoPi {
		overlap := (axis1Up - axis1Low) - twoPi
		if overlap > twoPi {
			return nil, fmt.Errorf("station: cable wrap limits too large (overlap %f > 2pi)", overlap)
		}
		cw.wLow, cw.wUp = axis1Low, axis1Low+overlap
		cw.nLow, cw.nUp = axis1Low+overlap, axis1Up-overlap
		cw.cLow, cw.cUp = axis1Up-overlap, axis1Up
	} else {
		cw.wLow, cw.wUp = axis1Low, axis1Low
		cw.nLow, cw.nUp = axis1Low, axis1Up
		cw.cLow, cw.cUp = axis1Up, axis1Up
	}
	return cw, nil
}

// SetMinimumOffsets sets the safety margins subtracted from each limit
// before visibility/feasibility checks.
func (cw *CableWrap) SetMinimumOffsets(axis1Low, axis1Up, axis2Low, axis2Up float64) {
	cw.axis1LowOffset = axis1Low
	cw.axis1UpOffset = axis1Up
	cw.axis2LowOffset = axis2Low
	cw.axis2UpOffset = axis2Up
}

func (cw *CableWrap) minLow(axis1 bool) float64 {
	if axis1 {
		return cw.axis1Low + cw.axis1LowOffset
	}
	return cw.axis2Low + cw.axis2LowOffset
}

func (cw *CableWrap) maxUp(axis1 bool) float64 {
	if axis1 {
		return cw.axis1Up - cw.axis1UpOffset
	}
	return cw.axis2Up - cw.axis2UpOffset
}

// AnglesInside reports whether pv's azimuth/elevation lie within this
// cable wrap's limits (minus safety offsets), respecting whether axis1's
// usable range wraps through zero.
//
// This preserves long-standing field-system behavior verbatim,
// including a known-dead branch: when the axis1 range wraps through zero modulo 2pi,
// the historical implementation evaluates a tautologically false
// condition (`az < ax1_2 && az > ax1_2`) intended to reject azimuths
// outside the wrapped range, which can never be true. The net effect is
// that axis1 is treated as unconstrained in that configuration; only
// axis2 (elevation) is checked. Operators depend on the documented
// behavior, so it is kept rather than guessed at; see
// TestAnglesInside_WrapAroundZeroBranchRegression.
func (cw *CableWrap) AnglesInside(pv geom.PointingVector) bool {
	ax1, ax2 := pv.Az, pv.El
	const twoPi = 2 * math.Pi

	if (cw.axis1Up - cw.axis1UpOffset - cw.axis1Low + cw.axis1LowOffset) < twoPi {
		ax1_1 := math.Mod(cw.axis1Low+cw.axis1LowOffset, twoPi)
		ax1_2 := math.Mod(cw.axis1Up-cw.axis1UpOffset, twoPi)

		if ax1_2 < ax1_1 {
			// Over the zero point: the historical az range check is a
			// tautology (always false), so only axis2 is enforced here.
			if ax1 < ax1_2 && ax1 > ax1_2 ||
				ax2 < cw.minLow(false) || ax2 > cw.maxUp(false) {
				return false
			}
		} else {
			if ax1 < ax1_1 || ax1 > ax1_2 ||
				ax2 < cw.minLow(false) || ax2 > cw.maxUp(false) {
				return false
			}
		}
	} else {
		if ax2 < cw.minLow(false) || ax2 > cw.maxUp(false) {
			return false
		}
	}
	return true
}

// UnwrapAzNearAz brings pv's azimuth into [axis1Low, axis1Low+2pi) and
// then walks the +2pi ambiguities upward from there, stopping at the
// first one that is no closer to refAz than the previous candidate, in
// effect selecting the +2pi-ambiguous azimuth nearest refAz.
func (cw *CableWrap) UnwrapAzNearAz(pv *geom.PointingVector, refAz float64) {
	const twoPi = 2 * math.Pi
	az := pv.Az
	low := cw.minLow(true)
	for az > low {
		az -= twoPi
	}
	for az < low {
		az += twoPi
	}

	unaz := az
	ambiguities := int(math.Floor((cw.maxUp(true) - unaz) / twoPi))
	this := unaz
	for i := 1; i <= ambiguities; i++ {
		next := unaz + float64(i)*twoPi
		if math.Abs(this-refAz) < math.Abs(next-refAz) {
			break
		}
		this = next
	}
	pv.Az = this
}

func (cw *CableWrap) sectionLimits(s Section) (lo, up float64) {
	switch s {
	case SectionNeutral:
		return cw.nLow, cw.nUp
	case SectionCW:
		return cw.cLow, cw.cUp
	case SectionCCW:
		return cw.wLow, cw.wUp
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

// UnwrapAzInSection forces pv's azimuth into the given section's range
// (by repeated +/-2pi steps from the section's lower bound) and reports
// whether the result still falls outside the section's upper bound.
func (cw *CableWrap) UnwrapAzInSection(pv *geom.PointingVector, s Section) bool {
	const twoPi = 2 * math.Pi
	lo, up := cw.sectionLimits(s)
	az := pv.Az
	for az > lo {
		az -= twoPi
	}
	for az < lo {
		az += twoPi
	}
	pv.Az = az
	return az > up
}

// InSection reports which section contains the given unwrapped azimuth.
func (cw *CableWrap) InSection(unwrappedAz float64) Section {
	if unwrappedAz >= cw.nLow && unwrappedAz <= cw.nUp {
		return SectionNeutral
	}
	if unwrappedAz >= cw.cLow && unwrappedAz <= cw.cUp {
		return SectionCW
	}
	if unwrappedAz >= cw.wLow && unwrappedAz <= cw.wUp {
		return SectionCCW
	}
	return SectionNeutral
}

// VexPointingSectors renders the VEX `pointing_sector` lines for this
// cable wrap's three sections, for downstream .vex writers.
func (cw *CableWrap) VexPointingSectors(motion1, motion2 string) []string {
	deg := func(r float64) float64 { return r * 180 / math.Pi }
	line := func(name string, lo, up float64) string {
		return fmt.Sprintf("        pointing_sector = &%-4s : %3s : %4.0f deg : %4.0f deg : %3s : %4.0f deg : %4.0f deg ;",
			name, motion1, deg(lo), deg(up), motion2, deg(cw.axis2Low), deg(cw.axis2Up))
	}
	return []string{
		line("ccw", cw.wLow, cw.wUp),
		line("n", cw.nLow, cw.nUp),
		line("cw", cw.cLow, cw.cUp),
	}
}
