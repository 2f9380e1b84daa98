// Package subcon implements the subconfiguration generator, the core of
// the scheduling engine: building every candidate scan at the current
// instant, filtering for feasibility, forming subnetting pairs, scoring,
// and rigorously refining and selecting the best candidate.
package subcon

import (
	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/scan"
)

// Kind distinguishes the scan-type variants.
type Kind int

const (
	KindSingle Kind = iota
	KindSubnet
	KindFillin
	KindFringeFinder
	KindAstroCalibrator
	KindParallacticAngle
	KindDiffParallacticAngle
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindSubnet:
		return "subnet"
	case KindFillin:
		return "fillin"
	case KindFringeFinder:
		return "fringeFinder"
	case KindAstroCalibrator:
		return "astroCalibrator"
	case KindParallacticAngle:
		return "parallacticAngle"
	case KindDiffParallacticAngle:
		return "diffParallacticAngle"
	default:
		return "unknown"
	}
}

// Mode selects which eligibility rules Build applies.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFillin
	ModeCalibrator
)

// Endposition is a station's required future pointing, used to keep
// fillin scans (and ordinary subcon feasibility filtering) from
// pushing a station past an already-committed scan's start.
type Endposition struct {
	StationID idregistry.ID
	Time      astro.Time
}

// endpositionFeasible is the optimistic reachability test: an assumed
// 5 s slew plus the minimum scan must still leave room before the
// required endposition time.
func endpositionFeasible(pvTime astro.Time, minScan float64, ep Endposition) bool {
	optimisticEnd := pvTime.Add(int64(5 + minScan))
	return optimisticEnd <= ep.Time
}

// Candidate is one candidate scan under consideration, plus the
// bookkeeping subcon needs to refine and score it. For a subnetted
// pair, Partner points at the other half and both are committed
// together.
type Candidate struct {
	Kind     Kind
	SourceID idregistry.ID

	Scan          *scan.Scan
	EndOfLastScan []astro.Time // parallel to Scan.StationIDs

	Score      float64
	Components ScoreComponents

	Partner *Candidate
}

// stationIndex returns the index of stationID within c.Scan.StationIDs,
// or -1.
func (c *Candidate) stationIndex(stationID idregistry.ID) int {
	for i, id := range c.Scan.StationIDs {
		if id == stationID {
			return i
		}
	}
	return -1
}

// withStations returns a new Candidate containing only the stations
// for which keep[i] is true, rebuilding the underlying Scan (whose
// internal ScanTimes array is sized at construction).
func (c *Candidate) withStations(keep []bool) (*Candidate, bool) {
	var ids []idregistry.ID
	var pvs []geom.PointingVector
	var eol []astro.Time
	for i, k := range keep {
		if k {
			ids = append(ids, c.Scan.StationIDs[i])
			pvs = append(pvs, c.Scan.Pointings[i])
			eol = append(eol, c.EndOfLastScan[i])
		}
	}
	if len(ids) == 0 {
		return nil, false
	}
	sc, err := scan.NewScan(c.Scan.ID, c.SourceID, c.Scan.Times.Anchor, ids, pvs, eol)
	if err != nil {
		return nil, false
	}
	return &Candidate{Kind: c.Kind, SourceID: c.SourceID, Scan: sc, EndOfLastScan: eol, Partner: c.Partner}, true
}
