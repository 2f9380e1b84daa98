package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlbisched/scheduler/internal/geom"
)

func TestNewCableWrap_RejectsDegenerateLimits(t *testing.T) {
	_, err := NewCableWrap(10*deg, 10*deg, 0, 90*deg)
	assert.Error(t, err)
}

func TestAnglesInside_RejectsOutOfRangeWithoutWrap(t *testing.T) {
	cw, err := NewCableWrap(0, 180*deg, 10*deg, 80*deg)
	require.NoError(t, err)

	inside := geom.PointingVector{Az: 90 * deg, El: 45 * deg}
	assert.True(t, cw.AnglesInside(inside))

	outsideAz := geom.PointingVector{Az: 270 * deg, El: 45 * deg}
	assert.False(t, cw.AnglesInside(outsideAz))

	outsideEl := geom.PointingVector{Az: 90 * deg, El: 5 * deg}
	assert.False(t, cw.AnglesInside(outsideEl))
}

// TestAnglesInside_WrapAroundZeroBranchRegression pins the historical
// behavior preserved in AnglesInside: when the axis1 range
// wraps through zero (so its mod-2pi bounds satisfy ax1_2 < ax1_1), the
// azimuth check collapses to a tautology and is effectively never
// enforced. An azimuth that falls in the nominally excluded gap is
// still reported as inside, as long as elevation clears axis2's bounds.
// This is a deliberately preserved quirk, not a bug to silently "fix".
func TestAnglesInside_WrapAroundZeroBranchRegression(t *testing.T) {
	cw, err := NewCableWrap(-30*deg, 300*deg, 0, 90*deg)
	require.NoError(t, err)

	// az=315deg sits in the (300deg, 330deg) gap nominally excluded by
	// the [axis1Low, axis1Up] = [-30deg, 300deg] range, yet the
	// preserved branch reports it visible.
	gapAz := geom.PointingVector{Az: 315 * deg, El: 45 * deg}
	assert.True(t, cw.AnglesInside(gapAz), "wrap-around branch must preserve the tautology quirk")

	// Elevation is still enforced in this branch.
	badEl := geom.PointingVector{Az: 315 * deg, El: 95 * deg}
	assert.False(t, cw.AnglesInside(badEl))
}

func TestUnwrapAzNearAz_PicksClosestAmbiguity(t *testing.T) {
	cw, err := NewCableWrap(-270*deg, 270*deg, 0, 90*deg)
	require.NoError(t, err)

	pv := &geom.PointingVector{Az: 10 * deg}
	cw.UnwrapAzNearAz(pv, 370*deg)
	assert.InDelta(t, 370*deg, pv.Az, 1e-6)
}

func TestUnwrapAzInSection_NeutralSection(t *testing.T) {
	cw, err := NewCableWrap(-270*deg, 270*deg, 0, 90*deg)
	require.NoError(t, err)

	pv := &geom.PointingVector{Az: 10 * deg}
	outOfBounds := cw.UnwrapAzInSection(pv, SectionNeutral)
	assert.False(t, outOfBounds)
	assert.InDelta(t, 10*deg, pv.Az, 1e-6)
}

func TestUnwrapAzInSection_FlagsOutOfBounds(t *testing.T) {
	cw, err := NewCableWrap(0, 180*deg, 0, 90*deg)
	require.NoError(t, err)

	pv := &geom.PointingVector{Az: 190 * deg}
	assert.True(t, cw.UnwrapAzInSection(pv, SectionNeutral))
}

func TestInSection_ClassifiesWrappedRanges(t *testing.T) {
	cw, err := NewCableWrap(-270*deg, 270*deg, 0, 90*deg)
	require.NoError(t, err)
	assert.Equal(t, SectionNeutral, cw.InSection(0))
}

func TestVexPointingSectors_ProducesThreeLines(t *testing.T) {
	cw, err := NewCableWrap(-270*deg, 270*deg, 0, 90*deg)
	require.NoError(t, err)
	lines := cw.VexPointingSectors("az", "el")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Contains(t, l, "pointing_sector")
	}
}
