package geom

import (
	"math"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// PointingVector attaches a station to a source at a moment in time:
// azimuth, elevation, hour angle and declination, all in radians.
type PointingVector struct {
	StationID idregistry.ID
	SourceID  idregistry.ID
	Az, El    float64
	HA, Dec   float64
	Time      astro.Time
}

// Before orders pointing vectors by time.
func (pv PointingVector) Before(other PointingVector) bool {
	return pv.Time < other.Time
}

func normalizeAz(az float64) float64 {
	const twoPi = 2 * math.Pi
	az = math.Mod(az, twoPi)
	if az < 0 {
		az += twoPi
	}
	return az
}

// unwrapHalfTurn brings `new` within one half-turn of `ref`, used when
// linearly interpolating azimuth/hour-angle across a cache span.
func unwrapHalfTurn(ref, new float64) float64 {
	const twoPi = 2 * math.Pi
	for new-ref > math.Pi {
		new -= twoPi
	}
	for ref-new > math.Pi {
		new += twoPi
	}
	return new
}
