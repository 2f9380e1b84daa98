// Package network implements the station network model: baseline id
// derivation, baseline vectors, and sky-coverage
// grouping.
package network

import (
	"fmt"
	"math"

	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// Baseline is an unordered pair of station ids with Station1 <
// Station2; its id is a deterministic function of the pair.
type Baseline struct {
	ID       idregistry.ID
	Station1 idregistry.ID
	Station2 idregistry.ID
}

// Network indexes stations by id, derives baseline ids deterministically
// from station-id pairs, and groups stations into SkyCoverage clusters.
type Network struct {
	registry *idregistry.Registry

	positions map[idregistry.ID]*geom.Position
	order     []idregistry.ID // insertion order, for deterministic iteration

	baselineID map[[2]idregistry.ID]idregistry.ID
	baselines  []Baseline

	baselineStates map[idregistry.ID]*BaselineState

	skyCoverageOf map[idregistry.ID]int // station id -> group index
	groups        [][]idregistry.ID
}

// New builds an empty Network backed by the given id registry.
func New(registry *idregistry.Registry) *Network {
	return &Network{
		registry:      registry,
		positions:     make(map[idregistry.ID]*geom.Position),
		baselineID:    make(map[[2]idregistry.ID]idregistry.ID),
		skyCoverageOf: make(map[idregistry.ID]int),
	}
}

// AddStation registers a station's position and derives baselines to
// every previously added station.
func (n *Network) AddStation(id idregistry.ID, pos *geom.Position) {
	if _, exists := n.positions[id]; exists {
		return
	}
	n.positions[id] = pos
	for _, other := range n.order {
		n.addBaseline(other, id)
	}
	n.order = append(n.order, id)
}

func (n *Network) addBaseline(a, b idregistry.ID) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := [2]idregistry.ID{lo, hi}
	if _, exists := n.baselineID[key]; exists {
		return
	}
	bid := n.registry.New(idregistry.Baseline)
	n.baselineID[key] = bid
	n.baselines = append(n.baselines, Baseline{ID: bid, Station1: lo, Station2: hi})
}

// BaselineID returns the deterministic baseline id for a station pair,
// regardless of argument order.
func (n *Network) BaselineID(a, b idregistry.ID) (idregistry.ID, bool) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	id, ok := n.baselineID[[2]idregistry.ID{lo, hi}]
	return id, ok
}

// Baselines returns all baselines in the network, in the order they
// were first derived.
func (n *Network) Baselines() []Baseline {
	return n.baselines
}

// Dxyz returns the ECEF vector difference between two stations.
func (n *Network) Dxyz(a, b idregistry.ID) ([3]float64, error) {
	pa, ok := n.positions[a]
	if !ok {
		return [3]float64{}, fmt.Errorf("network: unknown station id %v", a)
	}
	pb, ok := n.positions[b]
	if !ok {
		return [3]float64{}, fmt.Errorf("network: unknown station id %v", b)
	}
	return pa.Dxyz(pb), nil
}

// BuildSkyCoverageGroups assigns every station to a SkyCoverage group
// such that every pair within a group is within
// maxDistBetweenCorrespondingTelescopes of each other. A threshold of 0
// yields one group per station; larger thresholds merge co-located
// antennas (e.g. VGOS twin telescopes) into a shared group.
func (n *Network) BuildSkyCoverageGroups(maxDistBetweenCorrespondingTelescopes float64) {
	n.skyCoverageOf = make(map[idregistry.ID]int)
	n.groups = nil

	for _, id := range n.order {
		assigned := -1
		if maxDistBetweenCorrespondingTelescopes > 0 {
			for gi, members := range n.groups {
				if n.withinAllOf(id, members, maxDistBetweenCorrespondingTelescopes) {
					assigned = gi
					break
				}
			}
		}
		if assigned == -1 {
			n.groups = append(n.groups, []idregistry.ID{id})
			assigned = len(n.groups) - 1
		} else {
			n.groups[assigned] = append(n.groups[assigned], id)
		}
		n.skyCoverageOf[id] = assigned
	}
}

func (n *Network) withinAllOf(id idregistry.ID, members []idregistry.ID, maxDist float64) bool {
	pa := n.positions[id]
	for _, m := range members {
		d := pa.Dxyz(n.positions[m])
		dist := dxyzNorm(d)
		if dist > maxDist {
			return false
		}
	}
	return true
}

func dxyzNorm(d [3]float64) float64 {
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// SkyCoverageGroup returns the group index a station belongs to.
func (n *Network) SkyCoverageGroup(id idregistry.ID) (int, bool) {
	g, ok := n.skyCoverageOf[id]
	return g, ok
}

// SkyCoverageGroups returns all groups, each a slice of station ids.
func (n *Network) SkyCoverageGroups() [][]idregistry.ID {
	return n.groups
}

// Stations returns all registered station ids in insertion order.
func (n *Network) Stations() []idregistry.ID {
	return n.order
}
