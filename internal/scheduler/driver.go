// Package scheduler implements the main scheduling loop: the driver
// repeatedly invokes subcon.Builder.Run at the current instant,
// commits the winner, and advances time, layering on the fillin,
// calibrator-block, and tagalong overlays.
package scheduler

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/config"
	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/scan"
	"github.com/vlbisched/scheduler/internal/subcon"
	"github.com/vlbisched/scheduler/internal/timeutil"
)

// Scheduler drives one scheduling run from time 0 to EndTime. A
// Scheduler is single-use: Run mutates every Station/Source/Baseline
// reachable through Builder, so a finished run cannot be replayed
// without rebuilding the catalog. The driver is single-threaded and
// single-pass.
type Scheduler struct {
	Builder *subcon.Builder
	Config  config.Config
	EndTime astro.Time

	// SessionID stamps this run for logging and for the
	// scheduledb persistence layer.
	SessionID string

	// Clock times the run for progress logging. Scheduling itself never
	// consults wall-clock time; tests swap in a
	// timeutil.MockClock.
	Clock timeutil.Clock
}

// NewScheduler builds a Scheduler with a fresh session id.
func NewScheduler(b *subcon.Builder, cfg config.Config, endTime astro.Time) *Scheduler {
	return &Scheduler{Builder: b, Config: cfg, EndTime: endTime, SessionID: uuid.NewString(), Clock: timeutil.RealClock{}}
}

// Run executes the main loop: poll every entity's event
// timeline, pick Normal or Calibrator mode per the CalibratorBlock
// cadence, ask the builder for the best candidate, commit it (or
// advance time and retry if none is feasible), and layer on the
// fillin and tagalong overlays before moving to the next instant. It
// returns every committed scan in commit order, or an error if the
// schedule stalls for more than Config.MaxSubconRetries consecutive
// empty steps.
func (s *Scheduler) Run() ([]*scan.Scan, error) {
	var committed []*scan.Scan
	var current astro.Time
	retries := 0
	scansSinceCalibrator := 0
	var lastCalibratorTime astro.Time
	haveCalibrated := false

	started := s.Clock.Now()
	log.Printf("scheduler: run %s starting, endTime=%d", s.SessionID, uint64(s.EndTime))

	for current < s.EndTime {
		s.pollEvents(current)

		mode := subcon.ModeNormal
		if s.calibratorDue(scansSinceCalibrator, current, lastCalibratorTime, haveCalibrated) {
			mode = subcon.ModeCalibrator
		}

		cand := s.Builder.Run(current, mode, nil)
		if cand == nil {
			retries++
			if retries > s.Config.MaxSubconRetries {
				return committed, fmt.Errorf("scheduler: no feasible scan after %d retries at t=%d", retries, uint64(current))
			}
			current = s.nextRetryTime(current)
			continue
		}
		retries = 0

		s.Builder.Commit(cand)
		committed = append(committed, cand.Scan)
		if cand.Partner != nil {
			committed = append(committed, cand.Partner.Scan)
		}

		if mode == subcon.ModeCalibrator {
			cand.Scan.IsCalibratorBlock = true
			if cand.Partner != nil {
				cand.Partner.Scan.IsCalibratorBlock = true
			}
			lastCalibratorTime = current
			haveCalibrated = true
			scansSinceCalibrator = 0
		} else {
			scansSinceCalibrator++
		}

		s.appendTagalongs(cand)
		committed = append(committed, s.runFillin(current)...)

		next := s.globalCurrentTime()
		if next <= current {
			next = s.nextRetryTime(current)
		}
		current = next
	}

	log.Printf("scheduler: run %s finished, %d scans committed in %s", s.SessionID, len(committed), s.Clock.Since(started))
	return committed, nil
}

// pollEvents advances every station's, source's, and baseline's event
// timeline to t, before any subcon enumeration for this step. The
// returned hard-break flag is informational only: this driver always
// replans from scratch every step, so a hard transition needs no
// special handling beyond the Parameters it already swapped in.
func (s *Scheduler) pollEvents(t astro.Time) bool {
	var hardBreak bool
	for _, stID := range s.Builder.StationOrder {
		s.Builder.Stations[stID].CheckForNewEvent(t, &hardBreak)
	}
	for _, srcID := range s.Builder.SourceOrder {
		s.Builder.Sources[srcID].CheckForNewEvent(t, &hardBreak)
	}
	if s.Builder.Network != nil {
		for _, bl := range s.Builder.Network.Baselines() {
			s.Builder.Network.BaselineState(bl.ID).CheckForNewEvent(t, &hardBreak)
		}
	}
	return hardBreak
}

// calibratorDue implements the CalibratorBlock cadence test: due
// every Every scans, or every Every seconds since the last calibrator
// block, whichever CalibratorCadenceUnit the config selects. The very
// first block of a Seconds-cadence config fires immediately, so a
// session always opens with a calibration check.
func (s *Scheduler) calibratorDue(scansSinceCalibrator int, current, lastCalibratorTime astro.Time, haveCalibrated bool) bool {
	cb := s.Config.Calibrator
	if !cb.Enabled {
		return false
	}
	switch cb.Cadence {
	case config.CadenceScans:
		return scansSinceCalibrator >= int(cb.Every)
	case config.CadenceSeconds:
		if !haveCalibrated {
			return true
		}
		return float64(current.Sub(lastCalibratorTime)) >= cb.Every
	default:
		return false
	}
}

// nextRetryTime recovers from an empty subcon step: advance to the
// earliest pending event across every station, source,
// and baseline, or by StepFallbackSeconds if none is sooner.
func (s *Scheduler) nextRetryTime(current astro.Time) astro.Time {
	best := current.Add(int64(s.Config.StepFallbackSeconds))
	consider := func(t astro.Time, ok bool) {
		if ok && t > current && t < best {
			best = t
		}
	}
	for _, stID := range s.Builder.StationOrder {
		consider(s.Builder.Stations[stID].NextEventTime())
	}
	for _, srcID := range s.Builder.SourceOrder {
		consider(s.Builder.Sources[srcID].NextEventTime())
	}
	if s.Builder.Network != nil {
		for _, bl := range s.Builder.Network.Baselines() {
			consider(s.Builder.Network.BaselineState(bl.ID).NextEventTime())
		}
	}
	return best
}

// globalCurrentTime returns the earliest instant at which any
// available station could plausibly start its next scan: the minimum
// over stations of Current().Time, plus SystemDelay+Preob for
// stations past their first scan, mirroring the tentative-time
// computation subcon.buildOneSource applies per station.
func (s *Scheduler) globalCurrentTime() astro.Time {
	var best astro.Time
	found := false
	for _, stID := range s.Builder.StationOrder {
		st := s.Builder.Stations[stID]
		stp := st.Parameters()
		if !stp.Available {
			continue
		}
		t := st.Current().Time
		if !stp.FirstScan {
			t = t.Add(int64(stp.SystemDelay + stp.Preob))
		}
		if !found || t < best {
			best = t
			found = true
		}
	}
	if !found {
		return s.EndTime
	}
	return best
}

// appendTagalongs implements the tagalong overlay: after a scan
// commits, any available Tagalong station not already
// part of it is slotted into the same observing window as the scan's
// first station, provided it can slew and settle in time. A tagalong
// station's participation updates its own pointing and scan counters,
// but (unlike a planned station) contributes no Observation record:
// sizing a baseline retroactively against an already-committed,
// already-aligned ScanTimes would require re-running
// RefineFeasibility after the fact, which the tagalong station's own
// late, best-effort nature does not warrant.
func (s *Scheduler) appendTagalongs(cand *subcon.Candidate) {
	s.appendTagalongsToOne(cand)
	if cand.Partner != nil {
		s.appendTagalongsToOne(cand.Partner)
	}
}

func (s *Scheduler) appendTagalongsToOne(cand *subcon.Candidate) {
	if len(cand.Scan.StationIDs) == 0 {
		return
	}
	already := make(map[idregistry.ID]bool, len(cand.Scan.StationIDs))
	for _, id := range cand.Scan.StationIDs {
		already[id] = true
	}
	src, ok := s.Builder.Sources[cand.SourceID]
	if !ok {
		return
	}
	sp := src.Parameters()

	obsStart := cand.Scan.Times.ObservingStart(0)
	obsEnd := cand.Scan.Times.ObservingEnd(0)
	observing := astro.Time(obsEnd.Sub(obsStart))
	if observing <= 0 {
		return
	}

	for _, stID := range s.Builder.StationOrder {
		if already[stID] {
			continue
		}
		st := s.Builder.Stations[stID]
		stp := st.Parameters()
		if !stp.Available || !stp.Tagalong {
			continue
		}
		if stp.IgnoresSource(cand.SourceID) || sp.IgnoresStation(stID) {
			continue
		}

		pv := s.Builder.PointingAt(stID, cand.SourceID, obsStart)
		if !st.IsVisible(pv) {
			continue
		}
		if !stp.FirstScan && st.CableWrap != nil {
			st.CableWrap.UnwrapAzNearAz(&pv, st.Current().Az)
		}

		slewSecs, err := st.SlewTime(pv)
		if err != nil {
			continue
		}
		if stp.SlewTimeMax > 0 && float64(slewSecs) > stp.SlewTimeMax {
			continue
		}
		slewUsed := float64(slewSecs)
		if slewUsed < stp.SlewTimeMin {
			slewUsed = stp.SlewTimeMin
		}

		fieldSystem := astro.Time(stp.FieldSystemDuration)
		slew := astro.Time(slewUsed)
		preob := astro.Time(stp.Preob)
		endLastScan := st.Current().Time
		ready := endLastScan.Add(int64(fieldSystem) + int64(slew) + int64(preob))
		if ready > obsStart {
			continue
		}

		cand.Scan.AddTagalongStation(stID, pv, endLastScan, fieldSystem, slew, preob, observing)
		endPV := pv
		endPV.Time = obsEnd
		if err := st.Update(endPV, observing, false); err != nil {
			log.Printf("scheduler: tagalong update failed for station %v: %v", stID, err)
			continue
		}
		log.Printf("scheduler: station %v tagged along on scan %v (source %v)", stID, cand.Scan.ID, cand.SourceID)
	}
}

// runFillin implements the fillin overlay: before advancing past t, peek
// the next regular candidate (without committing it) to learn the
// Endposition every station it needs will be held to, then ask the builder
// for the best ModeFillin candidate consistent with those endpositions. A
// successful fillin scan is committed immediately; the regular candidate
// that was only peeked at gets recomputed fresh on the next loop
// iteration, since fillin commits have since changed the relevant
// stations' current pointings and counters.
func (s *Scheduler) runFillin(t astro.Time) []*scan.Scan {
	if !s.hasFillinEligibleStation() {
		return nil
	}
	peek := s.Builder.Run(t, subcon.ModeNormal, nil)
	if peek == nil {
		return nil
	}
	endpositions := make(map[idregistry.ID]subcon.Endposition, len(peek.Scan.StationIDs))
	for i, stID := range peek.Scan.StationIDs {
		endpositions[stID] = subcon.Endposition{StationID: stID, Time: peek.Scan.Pointings[i].Time}
	}

	fillin := s.Builder.Run(t, subcon.ModeFillin, endpositions)
	if fillin == nil {
		return nil
	}
	s.Builder.Commit(fillin)
	fillin.Scan.IsFillin = true

	out := []*scan.Scan{fillin.Scan}
	if fillin.Partner != nil {
		fillin.Partner.Scan.IsFillin = true
		out = append(out, fillin.Partner.Scan)
	}
	log.Printf("scheduler: fillin scan %v committed for source %v", fillin.Scan.ID, fillin.SourceID)
	return out
}

func (s *Scheduler) hasFillinEligibleStation() bool {
	for _, stID := range s.Builder.StationOrder {
		if s.Builder.Stations[stID].Parameters().AvailableForFillin {
			return true
		}
	}
	return false
}
