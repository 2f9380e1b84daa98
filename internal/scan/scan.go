package scan

import (
	"fmt"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// Scan is a single VLBI scan: a set of participating stations pointed
// at one source, with per-station timing and the Observations between
// every station pair that overlaps.
type Scan struct {
	ID       idregistry.ID
	SourceID idregistry.ID

	StationIDs []idregistry.ID
	Pointings  []geom.PointingVector // parallel to StationIDs

	Times        *ScanTimes
	Observations []Observation

	// IsFillin marks a scan inserted opportunistically into otherwise
	// idle station time.
	IsFillin bool
	// IsCalibratorBlock marks a scan scheduled as a forced calibrator
	// check.
	IsCalibratorBlock bool
}

// NewScan builds a Scan for the given source and participating
// stations, with each station's ScanTimes seeded from its current end-
// of-last-scan time.
func NewScan(id, sourceID idregistry.ID, anchor AlignmentAnchor, stationIDs []idregistry.ID, pointings []geom.PointingVector, endOfLastScan []astro.Time) (*Scan, error) {
	if len(stationIDs) != len(pointings) || len(stationIDs) != len(endOfLastScan) {
		return nil, fmt.Errorf("scan: stationIDs, pointings, and endOfLastScan must have equal length")
	}
	if len(stationIDs) == 0 {
		return nil, fmt.Errorf("scan: at least one station is required")
	}
	return &Scan{
		ID:         id,
		SourceID:   sourceID,
		StationIDs: stationIDs,
		Pointings:  pointings,
		Times:      NewScanTimes(anchor, endOfLastScan),
	}, nil
}

func (s *Scan) indexOf(stationID idregistry.ID) int {
	for i, id := range s.StationIDs {
		if id == stationID {
			return i
		}
	}
	return -1
}

// AddTimes records the field-system/slew/preob segments for a station
// already present in this scan.
func (s *Scan) AddTimes(stationID idregistry.ID, fieldSystem, slew, preob astro.Time) error {
	i := s.indexOf(stationID)
	if i < 0 {
		return fmt.Errorf("scan: station %v is not part of this scan", stationID)
	}
	s.Times.AddTimes(i, fieldSystem, slew, preob)
	return nil
}

// SetObservationDurations resolves the per-station observing durations
// from the scan's Observations (the minimum observing duration over
// all observations involving that station) and applies
// them to the underlying ScanTimes, re-aligning per the configured
// anchor.
func (s *Scan) SetObservationDurations() error {
	n := len(s.StationIDs)
	durations := make([]astro.Time, n)
	assigned := make([]bool, n)

	for _, obs := range s.Observations {
		i1 := s.indexOf(obs.Station1)
		i2 := s.indexOf(obs.Station2)
		if i1 < 0 || i2 < 0 {
			return fmt.Errorf("scan: observation references station not in scan")
		}
		d := astro.Time(obs.DurationSeconds)
		if !assigned[i1] || d < durations[i1] {
			durations[i1] = d
			assigned[i1] = true
		}
		if !assigned[i2] || d < durations[i2] {
			durations[i2] = d
			assigned[i2] = true
		}
	}

	for i, ok := range assigned {
		if !ok {
			return fmt.Errorf("scan: station %v participates in no observation", s.StationIDs[i])
		}
	}

	s.Times.SetObservingDurations(durations)
	return nil
}

// ScanStart and ScanEnd return the overall start (earliest end-of-last-
// scan) and end (latest observing end) across all participating
// stations.
func (s *Scan) ScanStart() astro.Time {
	min := s.Times.times[0].endLastScan
	for _, t := range s.Times.times[1:] {
		if t.endLastScan < min {
			min = t.endLastScan
		}
	}
	return min
}

func (s *Scan) ScanEnd() astro.Time {
	var max astro.Time
	for _, t := range s.Times.times {
		if t.endObserving > max {
			max = t.endObserving
		}
	}
	return max
}

// AddTagalongStation appends a tagalong station to an
// already-committed scan without disturbing any other station's
// timing. The caller is responsible for verifying visibility and
// mount/slew limits first; this only records the result.
func (s *Scan) AddTagalongStation(stationID idregistry.ID, pv geom.PointingVector, endLastScan, fieldSystem, slew, preob, observing astro.Time) {
	s.StationIDs = append(s.StationIDs, stationID)
	s.Pointings = append(s.Pointings, pv)
	s.Times.AppendTagalong(endLastScan, fieldSystem, slew, preob, observing)
}

// EndPointings returns the pointing vectors with their Time field set
// to each station's observing-end time, suitable for committing to
// Station.Update.
func (s *Scan) EndPointings() []geom.PointingVector {
	out := make([]geom.PointingVector, len(s.Pointings))
	for i, pv := range s.Pointings {
		pv.Time = s.Times.ObservingEnd(i)
		out[i] = pv
	}
	return out
}
