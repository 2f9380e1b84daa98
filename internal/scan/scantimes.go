// Package scan implements the scan/observation timing model:
// per-station ScanTimes segments, alignment
// anchors, and the Observation/Scan entities built from them.
package scan

import (
	"github.com/vlbisched/scheduler/internal/astro"
)

// AlignmentAnchor selects how per-station observing windows within a
// scan are aligned against each other.
type AlignmentAnchor int

const (
	AlignStart AlignmentAnchor = iota
	AlignEnd
	AlignIndividual
)

// stationTimes holds the six cumulative segment boundaries for one
// station's participation in a scan, all in seconds since session
// start:
//
//	endLastScan -> endFieldSystem -> endSlew -> endIdle -> endPreob -> endObserving
type stationTimes struct {
	endLastScan    astro.Time
	endFieldSystem astro.Time
	endSlew        astro.Time
	endIdle        astro.Time
	endPreob       astro.Time
	endObserving   astro.Time
}

// ScanTimes is the per-station time bookkeeping for one scan, plus the
// alignment anchor applied when observing durations are set.
type ScanTimes struct {
	Anchor AlignmentAnchor
	times  []stationTimes
}

// NewScanTimes allocates a ScanTimes for n participating stations, all
// segments starting at endOfLastScan[i].
func NewScanTimes(anchor AlignmentAnchor, endOfLastScan []astro.Time) *ScanTimes {
	times := make([]stationTimes, len(endOfLastScan))
	for i, t := range endOfLastScan {
		times[i].endLastScan = t
	}
	return &ScanTimes{Anchor: anchor, times: times}
}

// AddTimes sets the field-system, slew, and preob durations for
// station idx: end_fs=last+fs, end_slew=end_fs+slew,
// end_idle=end_slew, end_preob=end_idle+preob, end_obs=end_preob
// (observing duration is set later via SetObservingDurations).
func (s *ScanTimes) AddTimes(idx int, fieldSystem, slew, preob astro.Time) {
	t := &s.times[idx]
	t.endFieldSystem = t.endLastScan.Add(int64(fieldSystem))
	t.endSlew = t.endFieldSystem.Add(int64(slew))
	t.endIdle = t.endSlew
	t.endPreob = t.endIdle.Add(int64(preob))
	t.endObserving = t.endPreob
}

func (s *ScanTimes) fieldSystemDuration(i int) astro.Time {
	return astro.Time(s.times[i].endFieldSystem.Sub(s.times[i].endLastScan))
}
func (s *ScanTimes) slewDuration(i int) astro.Time {
	return astro.Time(s.times[i].endSlew.Sub(s.times[i].endFieldSystem))
}
func (s *ScanTimes) preobDuration(i int) astro.Time {
	return astro.Time(s.times[i].endPreob.Sub(s.times[i].endIdle))
}
func (s *ScanTimes) observingDuration(i int) astro.Time {
	return astro.Time(s.times[i].endObserving.Sub(s.times[i].endPreob))
}

// EndOfSlewTimes returns the end-of-slew time for every station, in
// participant order.
func (s *ScanTimes) EndOfSlewTimes() []astro.Time {
	out := make([]astro.Time, len(s.times))
	for i, t := range s.times {
		out[i] = t.endSlew
	}
	return out
}

// ObservingStart and ObservingEnd return station idx's observing-window
// boundaries.
func (s *ScanTimes) ObservingStart(idx int) astro.Time { return s.times[idx].endPreob }
func (s *ScanTimes) ObservingEnd(idx int) astro.Time   { return s.times[idx].endObserving }

// ObservingDurationBetween returns the overlap of two stations'
// observing windows.
func (s *ScanTimes) ObservingDurationBetween(i, j int) astro.Time {
	start := maxTime(s.times[i].endPreob, s.times[j].endPreob)
	end := minTime(s.times[i].endObserving, s.times[j].endObserving)
	if start > end {
		return 0
	}
	return astro.Time(end.Sub(start))
}

func maxTime(a, b astro.Time) astro.Time {
	if a > b {
		return a
	}
	return b
}
func minTime(a, b astro.Time) astro.Time {
	if a < b {
		return a
	}
	return b
}

// removeIdleTime collapses each station's idle segment to zero width
// before re-aligning.
func (s *ScanTimes) removeIdleTime() {
	for i := range s.times {
		preob := s.preobDuration(i)
		obs := s.observingDuration(i)
		t := &s.times[i]
		t.endIdle = t.endSlew
		t.endPreob = t.endIdle.Add(int64(preob))
		t.endObserving = t.endPreob.Add(int64(obs))
	}
}

// SetObservingDurations assigns each station's observing duration (the
// time spent actually integrating on-source) and re-aligns per the
// configured AlignmentAnchor.
func (s *ScanTimes) SetObservingDurations(durations []astro.Time) {
	for i := range s.times {
		s.times[i].endObserving = s.times[i].endPreob.Add(int64(durations[i]))
	}
	s.alignStartTimes()
}

func (s *ScanTimes) alignStartTimes() {
	s.removeIdleTime()
	switch s.Anchor {
	case AlignStart:
		s.alignToLatestObservingStart()
	case AlignEnd:
		s.alignToLatestObservingEnd()
	case AlignIndividual:
		s.alignIndividually()
	}
}

func (s *ScanTimes) alignToLatestObservingStart() {
	var latest astro.Time
	for i := range s.times {
		if s.times[i].endPreob > latest {
			latest = s.times[i].endPreob
		}
	}
	for i := range s.times {
		preob := s.preobDuration(i)
		obs := s.observingDuration(i)
		t := &s.times[i]
		t.endIdle = latest.Add(-int64(preob))
		t.endPreob = latest
		t.endObserving = t.endPreob.Add(int64(obs))
	}
}

func (s *ScanTimes) alignToLatestObservingEnd() {
	var latest astro.Time
	for i := range s.times {
		if s.times[i].endObserving > latest {
			latest = s.times[i].endObserving
		}
	}
	for i := range s.times {
		preob := s.preobDuration(i)
		obs := s.observingDuration(i)
		t := &s.times[i]
		t.endObserving = latest
		t.endPreob = latest.Add(-int64(obs))
		t.endIdle = t.endPreob.Add(-int64(preob))
	}
}

// alignIndividually keeps each station's own observing duration but
// pulls its start as close as possible to the group's slew-limited
// start, without exceeding the latest observing end across the scan.
func (s *ScanTimes) alignIndividually() {
	n := len(s.times)
	if n == 0 {
		return
	}
	var maxSlewEnd, maxObsEnd astro.Time
	maxObsIdx := 0
	for i := range s.times {
		if s.times[i].endSlew > maxSlewEnd {
			maxSlewEnd = s.times[i].endSlew
		}
		if s.times[i].endObserving > maxObsEnd {
			maxObsEnd = s.times[i].endObserving
			maxObsIdx = i
		}
	}
	minObsStart := s.times[maxObsIdx].endPreob

	for i := 0; i < n; i++ {
		obs := s.observingDuration(i)
		preob := s.preobDuration(i)
		t := &s.times[i]

		if maxObsEnd.Sub(minObsStart) <= int64(obs) {
			minObsStart = maxObsEnd.Add(-int64(obs))
			t.endIdle = minObsStart.Add(-int64(preob))
			t.endPreob = minObsStart
			t.endObserving = maxObsEnd
			continue
		}

		thisObsStart := t.endSlew
		switch {
		case thisObsStart >= maxSlewEnd:
			t.endIdle = t.endSlew
			t.endPreob = t.endIdle.Add(int64(preob))
			t.endObserving = t.endPreob.Add(int64(obs))
		case maxSlewEnd.Add(int64(preob)+int64(obs)) > maxObsEnd:
			t.endIdle = maxObsEnd.Add(-int64(obs) - int64(preob))
			t.endPreob = maxObsEnd.Add(-int64(obs))
			t.endObserving = maxObsEnd
		default:
			t.endIdle = maxSlewEnd
			t.endPreob = maxSlewEnd.Add(int64(preob))
			t.endObserving = t.endPreob.Add(int64(obs))
		}
	}
}

// AppendTagalong adds one station's segments to an already-aligned
// ScanTimes without touching any existing station's segments.
// Returns the new station's index.
func (s *ScanTimes) AppendTagalong(endLastScan, fieldSystem, slew, preob, observing astro.Time) int {
	t := stationTimes{endLastScan: endLastScan}
	t.endFieldSystem = t.endLastScan.Add(int64(fieldSystem))
	t.endSlew = t.endFieldSystem.Add(int64(slew))
	t.endIdle = t.endSlew
	t.endPreob = t.endIdle.Add(int64(preob))
	t.endObserving = t.endPreob.Add(int64(observing))
	s.times = append(s.times, t)
	return len(s.times) - 1
}

// UpdateAfterFillin re-seeds station idx's segment chain from a new
// end-of-last-scan time after a fillin scan changed when the station
// frees up, preserving the segment durations and re-aligning per the
// configured anchor.
func (s *ScanTimes) UpdateAfterFillin(idx int, endLastScan astro.Time) {
	fs := s.fieldSystemDuration(idx)
	slew := s.slewDuration(idx)
	preob := s.preobDuration(idx)
	obs := s.observingDuration(idx)

	t := &s.times[idx]
	t.endLastScan = endLastScan
	t.endFieldSystem = endLastScan.Add(int64(fs))
	t.endSlew = t.endFieldSystem.Add(int64(slew))
	t.endIdle = t.endSlew
	t.endPreob = t.endIdle.Add(int64(preob))
	t.endObserving = t.endPreob.Add(int64(obs))

	s.alignStartTimes()
}

// SetPreobTime shrinks station idx's earlier segments if the
// available idle time is insufficient to host the new preob duration,
// reporting false when a shrink was necessary so the caller can retry
// or drop the station.
func (s *ScanTimes) SetPreobTime(idx int, preob astro.Time) bool {
	t := &s.times[idx]
	valid := true
	t.endIdle = t.endPreob.Add(-int64(preob))

	if t.endIdle < t.endSlew {
		valid = false
		t.endSlew = t.endIdle
		if t.endSlew < t.endFieldSystem {
			t.endFieldSystem = t.endSlew
			if t.endFieldSystem < t.endLastScan {
				t.endLastScan = t.endFieldSystem
			}
		}
	}
	return valid
}
