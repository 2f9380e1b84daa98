// Package events implements the per-entity parameter timeline: a
// sorted sequence of (time, smoothTransition,
// newParameters) events attached to a station, source, or baseline, and
// the monotonically-advancing cursor that applies them.
package events

import (
	"fmt"
	"sort"

	"github.com/vlbisched/scheduler/internal/astro"
)

// Event carries a replacement Parameters snapshot for an entity,
// effective at Time. A hard transition (SmoothTransition=false) forces
// the scheduler driver to end any in-progress scan for the entity and
// re-plan; a smooth transition applies silently.
type Event[P any] struct {
	Time             astro.Time
	SmoothTransition bool
	Parameters       P
}

// Timeline is the sorted event list and cursor for one entity.
type Timeline[P any] struct {
	events  []Event[P]
	cursor  int
	current P
}

// NewTimeline builds a timeline from an initial parameter snapshot and
// zero or more future events. events need not be pre-sorted.
func NewTimeline[P any](initial P, evs ...Event[P]) *Timeline[P] {
	sorted := append([]Event[P](nil), evs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &Timeline[P]{events: sorted, current: initial}
}

// Current returns the parameter snapshot most recently applied.
func (t *Timeline[P]) Current() P {
	return t.current
}

// CheckForNewEvent advances the cursor while the next pending event's
// time is <= time, applying each in turn and OR-ing hardBreak with
// !event.SmoothTransition.
func (t *Timeline[P]) CheckForNewEvent(time astro.Time, hardBreak *bool) {
	for t.cursor < len(t.events) && t.events[t.cursor].Time <= time {
		ev := t.events[t.cursor]
		t.current = ev.Parameters
		if !ev.SmoothTransition {
			*hardBreak = true
		}
		t.cursor++
	}
}

// NextEventTime returns the time of the next pending event and true, or
// false if the timeline is exhausted.
func (t *Timeline[P]) NextEventTime() (astro.Time, bool) {
	if t.cursor >= len(t.events) {
		return 0, false
	}
	return t.events[t.cursor].Time, true
}

// Reset rewinds the cursor to the start, for re-running a schedule from
// the same timeline definitions.
func (t *Timeline[P]) Reset(initial P) {
	t.cursor = 0
	t.current = initial
}

// SetCurrent overrides the active snapshot in place without touching
// the cursor, for entities that mutate their own Parameters outside of
// a timeline event (e.g. clearing a one-shot flag after a commit).
func (t *Timeline[P]) SetCurrent(p P) {
	t.current = p
}

// Validate reports an error if events are not in non-decreasing time
// order (NewTimeline already sorts, so this only guards externally
// constructed Timelines via direct struct literals in tests).
func (t *Timeline[P]) Validate() error {
	for i := 1; i < len(t.events); i++ {
		if t.events[i].Time < t.events[i-1].Time {
			return fmt.Errorf("events: timeline out of order at index %d", i)
		}
	}
	return nil
}
