package geom

import (
	"fmt"
	"sort"

	"github.com/vlbisched/scheduler/internal/astro"
)

// AzElCache is the per-(station,source) lazy ordered list of rigorous
// samples: the rigorous path is the
// authoritative source, the simple path a strictly derived interpolant
// used inside the scheduler's inner loops.
type AzElCache struct {
	samples []PointingVector // kept sorted by Time
}

// ErrCacheEmpty is returned by Simple when no rigorous sample has been
// recorded yet: a station must call Rigorous before relying on Simple for
// new times.
var ErrCacheEmpty = fmt.Errorf("geom: simple az/el requested before any rigorous sample was cached")

// Record appends a rigorous sample to the cache, keeping it time-sorted.
// Rigorous samples normally arrive in non-decreasing time order during
// scheduling, but Record tolerates out-of-order insertion.
func (c *AzElCache) Record(pv PointingVector) {
	i := sort.Search(len(c.samples), func(i int) bool { return c.samples[i].Time >= pv.Time })
	if i < len(c.samples) && c.samples[i].Time == pv.Time {
		c.samples[i] = pv
		return
	}
	c.samples = append(c.samples, PointingVector{})
	copy(c.samples[i+1:], c.samples[i:])
	c.samples[i] = pv
}

// Simple interpolates the cached rigorous samples to time t: azimuth is
// linearly interpolated with half-turn unwrapping, elevation linearly,
// hour angle linearly with half-turn unwrapping, and declination is taken
// from the later sample.
func (c *AzElCache) Simple(t astro.Time) (PointingVector, error) {
	n := len(c.samples)
	if n == 0 {
		return PointingVector{}, ErrCacheEmpty
	}
	if n == 1 || t <= c.samples[0].Time {
		return c.samples[0], nil
	}
	if t >= c.samples[n-1].Time {
		return c.samples[n-1], nil
	}

	i := sort.Search(n, func(i int) bool { return c.samples[i].Time >= t })
	if c.samples[i].Time == t {
		return c.samples[i], nil
	}
	// c.samples[i].Time > t > c.samples[i-1].Time
	lo, hi := c.samples[i-1], c.samples[i]
	if hi.Time == lo.Time {
		return hi, nil
	}
	frac := float64(t.Sub(lo.Time)) / float64(hi.Time.Sub(lo.Time))

	hiAz := unwrapHalfTurn(lo.Az, hi.Az)
	hiHA := unwrapHalfTurn(lo.HA, hi.HA)

	return PointingVector{
		StationID: lo.StationID,
		SourceID:  lo.SourceID,
		Az:        normalizeAz(lo.Az + (hiAz-lo.Az)*frac),
		El:        lo.El + (hi.El-lo.El)*frac,
		HA:        lo.HA + (hiHA-lo.HA)*frac,
		Dec:       hi.Dec,
		Time:      t,
	}, nil
}
