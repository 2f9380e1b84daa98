package network

import (
	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/events"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// BaselineParameters is a baseline's mutable configuration snapshot,
// replaced wholesale by an Event, mirroring station.Parameters and
// source.Parameters.
type BaselineParameters struct {
	Weight float64

	// MinScan/MaxScan, when non-zero, override the station fallbacks
	// used to clip an observation duration.
	MinScan, MaxScan float64
}

// BaselineState is the mutable half of a Baseline: its Parameters
// timeline and accumulated observation counter.
type BaselineState struct {
	ID idregistry.ID

	numObservations int
	totalObsTime    astro.Time

	timeline *events.Timeline[BaselineParameters]
}

// NewBaselineState builds a BaselineState from an initial Parameters
// snapshot and zero or more future events.
func NewBaselineState(id idregistry.ID, initial BaselineParameters, futureEvents ...events.Event[BaselineParameters]) *BaselineState {
	return &BaselineState{ID: id, timeline: events.NewTimeline(initial, futureEvents...)}
}

// Parameters returns the currently active Parameters snapshot.
func (b *BaselineState) Parameters() BaselineParameters {
	return b.timeline.Current()
}

// CheckForNewEvent advances the baseline's event timeline to time,
// OR-ing hardBreak when a hard transition fires.
func (b *BaselineState) CheckForNewEvent(time astro.Time, hardBreak *bool) {
	b.timeline.CheckForNewEvent(time, hardBreak)
}

// NextEventTime returns the time of this baseline's next pending
// parameter event.
func (b *BaselineState) NextEventTime() (astro.Time, bool) {
	return b.timeline.NextEventTime()
}

// RecordObservation updates this baseline's counters after an
// observation involving it is committed.
func (b *BaselineState) RecordObservation(duration astro.Time) {
	b.numObservations++
	b.totalObsTime += duration
}

// NumObservations and TotalObsTime report this baseline's accumulated
// counters.
func (b *BaselineState) NumObservations() int         { return b.numObservations }
func (b *BaselineState) TotalObsTime() astro.Time      { return b.totalObsTime }

// SetBaselineParameters installs (or replaces) the Parameters timeline
// for an already-derived baseline, as a catalog-ingestion step would.
// Until this is called, BaselineState supplies a default state
// (weight 1, no MinScan/MaxScan overrides).
func (n *Network) SetBaselineParameters(id idregistry.ID, initial BaselineParameters, futureEvents ...events.Event[BaselineParameters]) {
	if n.baselineStates == nil {
		n.baselineStates = make(map[idregistry.ID]*BaselineState)
	}
	n.baselineStates[id] = NewBaselineState(id, initial, futureEvents...)
}

// BaselineState returns the mutable state for a baseline id, lazily
// creating a default one (Weight 1, unconstrained MinScan/MaxScan)
// if the catalog never set one explicitly.
func (n *Network) BaselineState(id idregistry.ID) *BaselineState {
	if n.baselineStates == nil {
		n.baselineStates = make(map[idregistry.ID]*BaselineState)
	}
	st, ok := n.baselineStates[id]
	if !ok {
		st = NewBaselineState(id, BaselineParameters{Weight: 1})
		n.baselineStates[id] = st
	}
	return st
}
