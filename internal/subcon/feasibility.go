package subcon

import (
	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/source"
)

// defaultMaxScan bounds an observation's duration when neither the
// source, the two stations, nor the baseline declare an explicit
// upper bound. 30 minutes is the customary ceiling for geodetic scan
// lengths when nothing tighter is configured.
const defaultMaxScan = 1800.0

// maxFeasibilityAttempts bounds the station-dropping retry loop so a
// pathological candidate cannot spin forever.
const maxFeasibilityAttempts = 32

// RefineFeasibility unwraps each station's azimuth, computes slew
// time and drops stations exceeding configured slew bounds or
// endposition constraints, assigns (field-system, slew, preob)
// segments, sizes every baseline's Observation, re-aligns, and drops
// stations that cannot satisfy their min/max scan or maxWait bound,
// retrying with the reduced station set until stable. It
// returns (nil, false) if the candidate falls below its source's
// minimum station count at any point.
func (b *Builder) RefineFeasibility(cand *Candidate, endpositions map[idregistry.ID]Endposition) (*Candidate, bool) {
	src := b.Sources[cand.SourceID]
	sp := src.Parameters()

	for attempt := 0; attempt < maxFeasibilityAttempts; attempt++ {
		n := len(cand.Scan.StationIDs)
		keep := make([]bool, n)
		for i := range keep {
			keep[i] = true
		}
		type timing struct{ fs, slew, preob astro.Time }
		timings := make([]timing, n)

		for i, stID := range cand.Scan.StationIDs {
			st := b.Stations[stID]
			stp := st.Parameters()
			pv := cand.Scan.Pointings[i]

			if !stp.FirstScan && st.CableWrap != nil {
				st.CableWrap.UnwrapAzNearAz(&pv, st.Current().Az)
				cand.Scan.Pointings[i] = pv
			}

			slewSecs, err := st.SlewTime(pv)
			if err != nil {
				keep[i] = false
				continue
			}
			if stp.SlewTimeMax > 0 && float64(slewSecs) > stp.SlewTimeMax {
				keep[i] = false
				continue
			}
			if stp.SlewDistanceMax > 0 {
				if d := b.angularDistance(st.Current(), pv); d > stp.SlewDistanceMax {
					keep[i] = false
					continue
				}
			}

			if ep, ok := endpositions[stID]; ok {
				if !endpositionFeasible(pv.Time, stp.ScanMin, ep) {
					keep[i] = false
					continue
				}
			}

			slewUsed := float64(slewSecs)
			if slewUsed < stp.SlewTimeMin {
				slewUsed = stp.SlewTimeMin
			}
			timings[i] = timing{
				fs:    astro.Time(stp.FieldSystemDuration),
				slew:  astro.Time(slewUsed),
				preob: astro.Time(stp.Preob),
			}
		}

		if anyFalse(keep) {
			next, ok := cand.withStations(keep)
			if !ok || !meetsStationRequirements(next.Scan.StationIDs, sp) {
				return nil, false
			}
			cand = next
			continue
		}

		for i, stID := range cand.Scan.StationIDs {
			t := timings[i]
			if err := cand.Scan.AddTimes(stID, t.fs, t.slew, t.preob); err != nil {
				return nil, false
			}
		}

		if !b.sizeObservationsImpl(cand) {
			return nil, false
		}

		keep2 := make([]bool, len(cand.Scan.StationIDs))
		for i := range keep2 {
			keep2[i] = true
		}
		for i, stID := range cand.Scan.StationIDs {
			st := b.Stations[stID]
			stp := st.Parameters()
			obsDur := cand.Scan.Times.ObservingEnd(i).Sub(cand.Scan.Times.ObservingStart(i))
			if obsDur <= 0 {
				keep2[i] = false
				continue
			}
			if stp.MaxWait > 0 {
				idle := float64(cand.Scan.Times.EndOfSlewTimes()[i].Sub(cand.EndOfLastScan[i]))
				// idle here approximates time the station sat waiting
				// before this scan's own slew began; a looser
				// upper-bound check than the true cross-scan idle
				// tracked by the scheduler driver.
				if idle > stp.MaxWait {
					keep2[i] = false
				}
			}
		}

		if anyFalse(keep2) {
			next, ok := cand.withStations(keep2)
			if !ok || !meetsStationRequirements(next.Scan.StationIDs, sp) {
				return nil, false
			}
			cand = next
			continue
		}

		return cand, true
	}
	return nil, false
}

func anyFalse(keep []bool) bool {
	for _, k := range keep {
		if !k {
			return true
		}
	}
	return false
}

// meetsStationRequirements re-checks the source's station constraints
// after a drop: the scan must keep at least the larger of 2 and the
// source's MinNumberOfStations, and every RequiredStations member must
// still participate. The same acceptance rule the builder applies is
// re-checked after every removal.
func meetsStationRequirements(stationIDs []idregistry.ID, sp source.Parameters) bool {
	minNeeded := sp.MinNumberOfStations
	if minNeeded < 2 {
		minNeeded = 2
	}
	if len(stationIDs) < minNeeded {
		return false
	}
	for reqID := range sp.RequiredStations {
		found := false
		for _, id := range stationIDs {
			if id == reqID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
