package subcon

import (
	"container/heap"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// candidateHeap is a max-heap keyed on Candidate.Score.
type candidateHeap []*Candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].Score > h[j].Score }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(*Candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SelectBest builds a max-heap over the
// already-scored candidates, and repeatedly pops the top, rigorously
// re-verifying and re-scoring it, until the newly re-pushed top is
// still the top (meaning rigorous refinement did not demote it below
// another candidate). Returns nil if every candidate fails rigorous
// refinement.
func (b *Builder) SelectBest(candidates []*Candidate, endpositions map[idregistry.ID]Endposition, ctx *scoreContext) *Candidate {
	h := make(candidateHeap, 0, len(candidates))
	for _, c := range candidates {
		h = append(h, c)
	}
	heap.Init(&h)

	for h.Len() > 0 {
		top := heap.Pop(&h).(*Candidate)

		refined, ok := b.RigorousRefine(top, endpositions)
		if !ok {
			continue
		}
		b.ScoreCandidate(refined, ctx)

		if h.Len() == 0 || refined.Score >= h[0].Score {
			return refined
		}
		heap.Push(&h, refined)
	}
	return nil
}

// RigorousRefine is the per-candidate half of best-scan selection:
// recomputes each station's az/el with the rigorous transform,
// re-verifies visibility and cable-wrap section, re-runs feasibility
// (endposition, slew bounds, observation sizing) with those rigorous
// pointings, and, for a subnetted candidate, refines its Partner too.
// Returns (nil, false) if the scan becomes infeasible.
func (b *Builder) RigorousRefine(cand *Candidate, endpositions map[idregistry.ID]Endposition) (*Candidate, bool) {
	src, ok := b.Sources[cand.SourceID]
	if !ok {
		return nil, false
	}

	keep := make([]bool, len(cand.Scan.StationIDs))
	for i, stID := range cand.Scan.StationIDs {
		st, ok := b.Stations[stID]
		if !ok {
			keep[i] = false
			continue
		}
		t := cand.Scan.Pointings[i].Time
		pv := b.rigorousPV(stID, cand.SourceID, st, src, t)
		cand.Scan.Pointings[i] = pv
		keep[i] = pv.El >= src.Parameters().MinElevation && st.IsVisible(pv)
	}
	if anyFalse(keep) {
		next, ok := cand.withStations(keep)
		if !ok {
			return nil, false
		}
		cand = next
	}
	if len(cand.Scan.StationIDs) < 2 {
		return nil, false
	}

	refined, ok := b.RefineFeasibility(cand, endpositions)
	if !ok {
		return nil, false
	}

	if refined.Partner != nil {
		refinedPartner, ok := b.RigorousRefine(refined.Partner, endpositions)
		if !ok {
			return nil, false
		}
		refined.Partner = refinedPartner
	}

	return refined, true
}

// Commit applies the winning candidate's effects: station current
// pointings, station/source/baseline counters, sky-coverage streams,
// and the source's last-scan time. For a subnetted candidate, both
// halves are committed.
func (b *Builder) Commit(cand *Candidate) {
	if cand.Partner != nil {
		b.commitOne(cand)
		b.commitOne(cand.Partner)
		return
	}
	b.commitOne(cand)
}

func (b *Builder) commitOne(cand *Candidate) {
	ends := cand.Scan.EndPointings()
	src, hasSrc := b.Sources[cand.SourceID]

	for i, stID := range cand.Scan.StationIDs {
		st, ok := b.Stations[stID]
		if !ok {
			continue
		}
		dur := astro.Time(cand.Scan.Times.ObservingEnd(i).Sub(cand.Scan.Times.ObservingStart(i)))
		_ = st.Update(ends[i], dur, true)
		if b.Sky != nil {
			b.Sky.RecordForStation(b.Network, stID, ends[i])
		}
	}

	if b.Network != nil {
		for _, obs := range cand.Scan.Observations {
			b.Network.BaselineState(obs.BaselineID).RecordObservation(astro.Time(obs.DurationSeconds))
		}
	}

	if hasSrc {
		src.RecordScan(cand.Scan.ScanEnd())
	}
}
