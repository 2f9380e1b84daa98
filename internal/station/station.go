package station

import (
	"fmt"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/events"
	"github.com/vlbisched/scheduler/internal/geom"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// Station is one antenna in the network: its mount
// kinematics, cable wrap, geodetic position, SEFD equipment, optional
// horizon mask, current pointing, scan/observation counters, mutable
// Parameters, and event timeline.
type Station struct {
	ID   idregistry.ID
	Name string

	Mount     Mount
	CableWrap *CableWrap
	Position  *geom.Position
	SEFD      SEFDModel
	Horizon   HorizonMask // nil means no local obstruction beyond Parameters.MinElevation

	current geom.PointingVector

	numScans       int
	numObservations int
	totalScanTime  astro.Time

	timeline *events.Timeline[Parameters]
}

// NewStation builds a Station. initial is applied as both the starting
// Parameters and the event-timeline baseline.
func NewStation(id idregistry.ID, name string, mount Mount, cw *CableWrap, pos *geom.Position, sefd SEFDModel, horizon HorizonMask, initial Parameters, futureEvents ...events.Event[Parameters]) *Station {
	initial.FirstScan = true
	return &Station{
		ID:        id,
		Name:      name,
		Mount:     mount,
		CableWrap: cw,
		Position:  pos,
		SEFD:      sefd,
		Horizon:   horizon,
		timeline:  events.NewTimeline(initial, futureEvents...),
	}
}

// Parameters returns the currently active Parameters snapshot.
func (s *Station) Parameters() Parameters {
	return s.timeline.Current()
}

// Current returns the station's current pointing vector.
func (s *Station) Current() geom.PointingVector {
	return s.current
}

// CheckForNewEvent advances the station's event timeline to time,
// setting hardBreak true if any applied event was a hard transition. A
// transition from unavailable to available resets current.time to the
// event time and forces FirstScan, so no slew is charged for
// re-entering the schedule.
func (s *Station) CheckForNewEvent(time astro.Time, hardBreak *bool) {
	wasAvailable := s.timeline.Current().Available
	s.timeline.CheckForNewEvent(time, hardBreak)
	now := s.timeline.Current()
	if !wasAvailable && now.Available {
		s.current.Time = time
		p := now
		p.FirstScan = true
		s.timeline.SetCurrent(p)
	}
}

// IsVisible reports whether the station can observe a pointing vector
// at the given time: above its minimum elevation, above any surveyed
// horizon mask, and within its cable wrap's allowed range.
func (s *Station) IsVisible(pv geom.PointingVector) bool {
	p := s.Parameters()
	if !p.Available {
		return false
	}
	if pv.El < p.MinElevation {
		return false
	}
	if s.Horizon != nil && !s.Horizon.IsVisible(pv.Az, pv.El) {
		return false
	}
	if s.CableWrap != nil && !s.CableWrap.AnglesInside(pv) {
		return false
	}
	return true
}

// SlewTime returns the whole-second slew duration from the station's
// current pointing to target. If the station is already tracking the
// same source continuously (no re-acquisition needed), use
// SlewTimeTracking instead.
func (s *Station) SlewTime(target geom.PointingVector) (uint64, error) {
	if s.Mount == nil {
		return 0, fmt.Errorf("station %s: no mount configured", s.Name)
	}
	if s.Parameters().FirstScan {
		return 0, nil
	}
	return s.Mount.Slew(s.current, target)
}

// SlewTimeTracking is the mount's slew from the current pointing without
// settle overhead, for continued tracking of the same source. Unlike
// SlewTime it does not return 0 for a station's first scan.
func (s *Station) SlewTimeTracking(target geom.PointingVector) (uint64, error) {
	if s.Mount == nil {
		return 0, fmt.Errorf("station %s: no mount configured", s.Name)
	}
	return s.Mount.SlewTracking(s.current, target)
}

// Update commits a new pointing as the station's current state at the
// end of an accepted scan, advancing its counters.
// Invariant: pv.Time must be >= the station's current time.
func (s *Station) Update(pv geom.PointingVector, scanDuration astro.Time, countsAsObservation bool) error {
	if pv.Time < s.current.Time {
		return fmt.Errorf("station %s: update time %v precedes current time %v", s.Name, pv.Time, s.current.Time)
	}
	s.current = pv
	s.numScans++
	if countsAsObservation {
		s.numObservations++
	}
	s.totalScanTime += scanDuration

	p := s.timeline.Current()
	p.FirstScan = false
	s.timeline.SetCurrent(p)
	return nil
}

// NumScans, NumObservations, and TotalScanTime report this station's
// accumulated counters.
func (s *Station) NumScans() int          { return s.numScans }
func (s *Station) NumObservations() int   { return s.numObservations }
func (s *Station) TotalScanTime() astro.Time { return s.totalScanTime }

// NextEventTime returns the time of this station's next pending
// parameter event, for the driver's retry-time computation after an
// infeasible step.
func (s *Station) NextEventTime() (astro.Time, bool) {
	return s.timeline.NextEventTime()
}
