// Package source implements the observing-target model: the Source
// entity (quasar or satellite variant), its flux models, and its
// mutable per-source Parameters and event timeline.
package source

import (
	"math"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/events"
	"github.com/vlbisched/scheduler/internal/idregistry"
)

// Kind distinguishes a fixed quasar from a moving satellite source.
type Kind int

const (
	Quasar Kind = iota
	Satellite
)

// Ephemeris supplies a time-varying celestial-reference-system unit
// vector for a Satellite source. Quasars do not use this; it is an
// external collaborator; orbit propagation lives outside this module.
type Ephemeris interface {
	PositionCRS(t astro.Time) [3]float64
}

// RangedEphemeris is the subset of Ephemeris implementations that can
// also report the slant range (meters) from a station ECEF position
// to the satellite at time t. This feeds the `needsElDist` flux
// models used for observation sizing; an Ephemeris that cannot report it
// leaves observation sizing to fall back on elevation alone.
type RangedEphemeris interface {
	Ephemeris
	SlantRange(stationECEF [3]float64, t astro.Time) float64
}

// Parameters is a source's mutable configuration snapshot.
type Parameters struct {
	Available          bool
	GlobalAvailable    bool
	AvailableForFillin bool

	Weight       float64
	MinElevation float64
	MinFlux      map[string]float64

	MinNumberOfStations int
	MinRepeat           float64 // seconds
	MaxNumberOfScans    int
	MinScan, MaxScan    float64 // seconds

	IgnoreStations   map[idregistry.ID]bool
	RequiredStations map[idregistry.ID]bool

	IsCalibrator     bool
	CalibratorWeight float64
}

// IgnoresStation reports whether this source excludes the given
// station.
func (p Parameters) IgnoresStation(id idregistry.ID) bool {
	return p.IgnoreStations[id]
}

// RequiresStation reports whether the given station must participate
// in any scan of this source.
func (p Parameters) RequiresStation(id idregistry.ID) bool {
	return p.RequiredStations[id]
}

// Source is one observing target.
type Source struct {
	ID   idregistry.ID
	Name string
	Kind Kind

	RA, Dec float64 // radians, used by Quasar sources
	Ephem   Ephemeris // used by Satellite sources

	Flux map[string]FluxModel // per band

	lastScanTime astro.Time
	hasScanned   bool
	scanCount    int

	timeline *events.Timeline[Parameters]
}

// NewQuasar builds a fixed-position quasar source.
func NewQuasar(id idregistry.ID, name string, ra, dec float64, flux map[string]FluxModel, initial Parameters, futureEvents ...events.Event[Parameters]) *Source {
	return &Source{
		ID:       id,
		Name:     name,
		Kind:     Quasar,
		RA:       ra,
		Dec:      dec,
		Flux:     flux,
		timeline: events.NewTimeline(initial, futureEvents...),
	}
}

// NewSatellite builds a time-varying satellite source.
func NewSatellite(id idregistry.ID, name string, ephem Ephemeris, flux map[string]FluxModel, initial Parameters, futureEvents ...events.Event[Parameters]) *Source {
	return &Source{
		ID:       id,
		Name:     name,
		Kind:     Satellite,
		Ephem:    ephem,
		Flux:     flux,
		timeline: events.NewTimeline(initial, futureEvents...),
	}
}

// Parameters returns the currently active Parameters snapshot.
func (s *Source) Parameters() Parameters {
	return s.timeline.Current()
}

// CheckForNewEvent advances the source's event timeline to time,
// OR-ing hardBreak when a hard transition fires.
func (s *Source) CheckForNewEvent(time astro.Time, hardBreak *bool) {
	s.timeline.CheckForNewEvent(time, hardBreak)
}

// NextEventTime returns the time of this source's next pending
// parameter event.
func (s *Source) NextEventTime() (astro.Time, bool) {
	return s.timeline.NextEventTime()
}

// SourceInCRS returns the unit vector toward the source in the
// celestial reference system at time t. For a Quasar
// this is constant; for a Satellite it is queried from the Ephemeris.
func (s *Source) SourceInCRS(t astro.Time) [3]float64 {
	if s.Kind == Satellite {
		return s.Ephem.PositionCRS(t)
	}
	cosDec := math.Cos(s.Dec)
	return [3]float64{
		cosDec * math.Cos(s.RA),
		cosDec * math.Sin(s.RA),
		math.Sin(s.Dec),
	}
}

// SlantRange returns the distance from stationECEF to this source at
// time t, for use by `needsElDist` flux models. It
// returns false when the source's Ephemeris cannot report a range
// (quasars, or a satellite Ephemeris implementation that only
// supplies direction).
func (s *Source) SlantRange(stationECEF [3]float64, t astro.Time) (float64, bool) {
	r, ok := s.Ephem.(RangedEphemeris)
	if !ok {
		return 0, false
	}
	return r.SlantRange(stationECEF, t), true
}

// LastScanTime and HasScanned report the recorded history of this
// source's most recent accepted scan.
func (s *Source) LastScanTime() (astro.Time, bool) {
	return s.lastScanTime, s.hasScanned
}

// ScanCount returns the total number of scans recorded for this source.
func (s *Source) ScanCount() int {
	return s.scanCount
}

// RecordScan updates the source's scan history after a scan involving
// it is committed.
func (s *Source) RecordScan(endTime astro.Time) {
	s.lastScanTime = endTime
	s.hasScanned = true
	s.scanCount++
}

// SatisfiesMinRepeat reports whether enough time has elapsed since the
// last scan of this source to satisfy Parameters.MinRepeat.
func (s *Source) SatisfiesMinRepeat(time astro.Time) bool {
	if !s.hasScanned {
		return true
	}
	p := s.Parameters()
	if p.MinRepeat <= 0 {
		return true
	}
	return float64(time.Sub(s.lastScanTime)) >= p.MinRepeat
}
