package network

import (
	"math"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// SkyCoverageKernel selects the decay shape applied to a past pointing's
// influence as a function of normalised angular and temporal distance.
type SkyCoverageKernel int

const (
	KernelLinear SkyCoverageKernel = iota
	KernelCosine
)

func decay(kernel SkyCoverageKernel, x float64) float64 {
	if x >= 1 {
		return 0
	}
	if x < 0 {
		x = 0
	}
	switch kernel {
	case KernelCosine:
		return 0.5 * (1 + math.Cos(math.Pi*x))
	default:
		return 1 - x
	}
}

// SkyCoverage is the per-group stream of past pointing vectors used to
// score how well a new pointing adds azimuth/elevation diversity to a
// cluster of nearby stations.
type SkyCoverage struct {
	pastPointings []geom.PointingVector
}

// Record appends a committed pointing to the group's history.
func (sc *SkyCoverage) Record(pv geom.PointingVector) {
	sc.pastPointings = append(sc.pastPointings, pv)
}

// Score returns the sky-coverage score a candidate
// pointing would earn against this group's recorded history:
//
//	1 - max over past pv's of max(0, 1-Δangle/D) * max(0, 1-Δt/T)
//
// A MaxInfluenceTime of 0 collapses the score to a constant 1.
func (sc *SkyCoverage) Score(lt *astro.LookupTable, candidate geom.PointingVector, maxInfluenceDistance, maxInfluenceTime float64, kernel SkyCoverageKernel) float64 {
	if maxInfluenceTime <= 0 {
		return 1
	}
	var maxInfluence float64
	for _, past := range sc.pastPointings {
		if candidate.Time < past.Time {
			continue
		}
		dt := float64(candidate.Time.Sub(past.Time))
		timeDecay := decay(kernel, dt/maxInfluenceTime)
		if timeDecay <= 0 {
			continue
		}
		var dAngle float64
		if lt != nil {
			dAngle = lt.AngularDistance(past.El, past.Az, candidate.El, candidate.Az)
		} else {
			dAngle = astro.AngularDistanceRigorous(past.El, past.Az, candidate.El, candidate.Az)
		}
		var angleDecay float64
		if maxInfluenceDistance > 0 {
			angleDecay = decay(kernel, dAngle/maxInfluenceDistance)
		}
		influence := angleDecay * timeDecay
		if influence > maxInfluence {
			maxInfluence = influence
		}
	}
	return 1 - maxInfluence
}

// SkyCoverages tracks one SkyCoverage stream per group, indexed the
// same way as Network.SkyCoverageGroups.
type SkyCoverages struct {
	byGroup map[int]*SkyCoverage
}

// NewSkyCoverages allocates an empty stream for every group currently
// registered on n.
func NewSkyCoverages(n *Network) *SkyCoverages {
	s := &SkyCoverages{byGroup: make(map[int]*SkyCoverage)}
	for gi := range n.SkyCoverageGroups() {
		s.byGroup[gi] = &SkyCoverage{}
	}
	return s
}

// RecordForStation appends pv to the SkyCoverage stream of the group
// the given station belongs to.
func (s *SkyCoverages) RecordForStation(n *Network, stationID idregistry.ID, pv geom.PointingVector) {
	gi, ok := n.SkyCoverageGroup(stationID)
	if !ok {
		return
	}
	g, ok := s.byGroup[gi]
	if !ok {
		g = &SkyCoverage{}
		s.byGroup[gi] = g
	}
	g.Record(pv)
}

// ScoreForStation returns the sky-coverage score a candidate pointing
// at the given station would earn, per Score.
func (s *SkyCoverages) ScoreForStation(n *Network, lt *astro.LookupTable, stationID idregistry.ID, candidate geom.PointingVector, maxInfluenceDistance, maxInfluenceTime float64, kernel SkyCoverageKernel) float64 {
	gi, ok := n.SkyCoverageGroup(stationID)
	if !ok {
		return 1
	}
	g, ok := s.byGroup[gi]
	if !ok {
		return 1
	}
	return g.Score(lt, candidate, maxInfluenceDistance, maxInfluenceTime, kernel)
}
