package subcon

import (
	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// Run executes one full subcon pass at currentTime: build every
// single-source candidate, refine each for feasibility, augment with
// subnetted pairs, score every surviving candidate, and select the
// best via rigorous refinement. Returns nil if no candidate survives,
// the driver's cue to advance time and retry.
func (b *Builder) Run(currentTime astro.Time, mode Mode, endpositions map[idregistry.ID]Endposition) *Candidate {
	raw := b.Build(currentTime, mode)

	var feasible []*Candidate
	for _, c := range raw {
		refined, ok := b.RefineFeasibility(c, endpositions)
		if !ok {
			continue
		}
		feasible = append(feasible, refined)
	}
	if len(feasible) == 0 {
		return nil
	}

	feasible = append(feasible, b.BuildSubnetting(feasible, endpositions)...)

	ctx := b.newScoreContext(feasible)
	for _, c := range feasible {
		b.ScoreCandidate(c, ctx)
	}

	return b.SelectBest(feasible, endpositions, ctx)
}
