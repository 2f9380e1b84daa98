package subcon

import (
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// subnettingPairs returns the index pairs (i<j) of candidates for
// different sources whose angular separation exceeds
// Config.Subnetting.MinAngularDistance. Separation is measured
// between the two sources' CRS unit vectors at the subcon's current
// time, using each candidate's own source line of sight (both
// candidates already carry one pointing per station at nearly the
// same instant).
func (b *Builder) subnettingPairs(candidates []*Candidate) [][2]int {
	var pairs [][2]int
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, c := candidates[i], candidates[j]
			if a.SourceID == c.SourceID {
				continue
			}
			srcA, ok := b.Sources[a.SourceID]
			if !ok {
				continue
			}
			srcC, ok := b.Sources[c.SourceID]
			if !ok {
				continue
			}
			t := a.Scan.Times.ObservingStart(0)
			sep := angularSeparationCRS(srcA.SourceInCRS(t), srcC.SourceInCRS(t))
			if sep > b.Config.Subnetting.MinAngularDistance {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// BuildSubnetting augments candidates with subnetted pairs: for each
// subnetting candidate pair (A,B), every
// partition of the stations shared by both candidates between A and B
// is tried; a partition is kept if each side still meets its source's
// minNumberOfStations, the combined station count satisfies the
// configured SubnettingRule, and the two sub-scans' end times are
// within Config.Subnetting.MaxTimeSeparation of each other. Feasible
// partitions are appended to the returned slice as new Candidates
// (Kind KindSubnet), the first half's Partner pointing at the second
// half; the originals are left
// untouched so the caller still considers the single-source scans too.
func (b *Builder) BuildSubnetting(candidates []*Candidate, endpositions map[idregistry.ID]Endposition) []*Candidate {
	if !b.Config.Subnetting.Enabled {
		return nil
	}
	var out []*Candidate
	for _, pair := range b.subnettingPairs(candidates) {
		a, c := candidates[pair[0]], candidates[pair[1]]
		out = append(out, b.partitionSubnetting(a, c, endpositions)...)
	}
	return out
}

// partitionSubnetting tries every way of splitting the stations
// shared between candidates a and c, keeping the feasible ones.
func (b *Builder) partitionSubnetting(a, c *Candidate, endpositions map[idregistry.ID]Endposition) []*Candidate {
	shared, onlyA, onlyC := splitStations(a.Scan.StationIDs, c.Scan.StationIDs)
	if len(shared) == 0 {
		// Disjoint station sets: no partitioning needed, try the pair
		// as-is.
		if pair := b.tryPair(a, c, endpositions); pair != nil {
			return []*Candidate{pair}
		}
		return nil
	}

	var out []*Candidate
	n := len(shared)
	for mask := 0; mask < (1 << n); mask++ {
		stationsA := append([]idregistry.ID{}, onlyA...)
		stationsC := append([]idregistry.ID{}, onlyC...)
		for i, id := range shared {
			if mask&(1<<i) != 0 {
				stationsA = append(stationsA, id)
			} else {
				stationsC = append(stationsC, id)
			}
		}
		candA, okA := restrictCandidate(a, stationsA)
		candC, okC := restrictCandidate(c, stationsC)
		if !okA || !okC {
			continue
		}
		if !meetsStationRequirements(candA.Scan.StationIDs, b.Sources[a.SourceID].Parameters()) ||
			!meetsStationRequirements(candC.Scan.StationIDs, b.Sources[c.SourceID].Parameters()) {
			continue
		}
		if pair := b.tryPairRefined(candA, candC, endpositions); pair != nil {
			out = append(out, pair)
		}
	}
	return out
}

// tryPair checks a disjoint-station pair for the subnetting rule and
// time-separation constraints without re-running feasibility (the two
// candidates are assumed already feasible individually).
func (b *Builder) tryPair(a, c *Candidate, _ map[idregistry.ID]Endposition) *Candidate {
	if !b.subnettingCountOK(a, c) {
		return nil
	}
	if !b.subnettingTimeOK(a, c) {
		return nil
	}
	return linkSubnetPair(a, c)
}

// tryPairRefined re-runs feasibility on each restricted candidate
// (station removal changes slew/alignment outcomes) before applying
// the same subnetting rule and time-separation checks.
func (b *Builder) tryPairRefined(a, c *Candidate, endpositions map[idregistry.ID]Endposition) *Candidate {
	refinedA, okA := b.RefineFeasibility(a, endpositions)
	if !okA {
		return nil
	}
	refinedC, okC := b.RefineFeasibility(c, endpositions)
	if !okC {
		return nil
	}
	return b.tryPair(refinedA, refinedC, endpositions)
}

// subnettingCountOK implements the subnetting station-count floor:
// SubnettingPercent requires >= Percent * n_max_avail combined
// stations; SubnettingMinIdle requires >= n_max_avail - MaxIdle.
func (b *Builder) subnettingCountOK(a, c *Candidate) bool {
	nMaxAvail := b.availableNonTagalongCount()
	combined := len(a.Scan.StationIDs) + len(c.Scan.StationIDs)
	switch b.Config.Subnetting.Rule {
	case config.SubnettingPercent:
		return float64(combined) >= b.Config.Subnetting.Percent*float64(nMaxAvail)
	default:
		return combined >= nMaxAvail-b.Config.Subnetting.MaxIdle
	}
}

func (b *Builder) availableNonTagalongCount() int {
	n := 0
	for _, stID := range b.StationOrder {
		st := b.Stations[stID]
		p := st.Parameters()
		if p.Available && !p.Tagalong {
			n++
		}
	}
	return n
}

// subnettingTimeOK implements the pairing hard cap: the two scans'
// end times must differ by no more than
// Config.Subnetting.MaxTimeSeparation.
func (b *Builder) subnettingTimeOK(a, c *Candidate) bool {
	endA := a.Scan.ScanEnd()
	endC := c.Scan.ScanEnd()
	var diff int64
	if endA > endC {
		diff = endA.Sub(endC)
	} else {
		diff = endC.Sub(endA)
	}
	return float64(diff) <= b.Config.Subnetting.MaxTimeSeparation
}

func linkSubnetPair(a, c *Candidate) *Candidate {
	aCopy := *a
	cCopy := *c
	aCopy.Kind, cCopy.Kind = KindSubnet, KindSubnet
	aCopy.Partner = &cCopy
	return &aCopy
}

// splitStations partitions the union of two station-id slices into
// those shared by both, those only in a, and those only in c.
func splitStations(a, c []idregistry.ID) (shared, onlyA, onlyC []idregistry.ID) {
	inC := make(map[idregistry.ID]bool, len(c))
	for _, id := range c {
		inC[id] = true
	}
	inA := make(map[idregistry.ID]bool, len(a))
	for _, id := range a {
		inA[id] = true
		if inC[id] {
			shared = append(shared, id)
		} else {
			onlyA = append(onlyA, id)
		}
	}
	for _, id := range c {
		if !inA[id] {
			onlyC = append(onlyC, id)
		}
	}
	return
}

// restrictCandidate rebuilds cand keeping only the given stations, in
// cand's original station order.
func restrictCandidate(cand *Candidate, keepIDs []idregistry.ID) (*Candidate, bool) {
	keepSet := make(map[idregistry.ID]bool, len(keepIDs))
	for _, id := range keepIDs {
		keepSet[id] = true
	}
	keep := make([]bool, len(cand.Scan.StationIDs))
	for i, id := range cand.Scan.StationIDs {
		keep[i] = keepSet[id]
	}
	return cand.withStations(keep)
}
