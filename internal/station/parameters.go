package station

import (
	"math"

	"github.com/vlbisched/scheduler/internal/idregistry"
)

// Parameters is a station's mutable configuration snapshot, replaced
// wholesale whenever an Event fires for that station.
type Parameters struct {
	Available          bool
	Tagalong           bool
	AvailableForFillin bool
	FirstScan          bool

	Weight       float64
	MinElevation float64 // radians
	MinSNR       map[string]float64

	SlewTimeMin, SlewTimeMax         float64 // seconds
	SlewDistanceMin, SlewDistanceMax float64 // radians
	MaxWait                          float64 // seconds

	ScanMin, ScanMax float64 // seconds
	MaxNumberOfScans int

	RecordingRate  map[string]float64 // bits/s per band
	DataWriteRate  float64            // bits/s, 0 means unconstrained

	IgnoreSources map[idregistry.ID]bool

	FieldSystemDuration float64 // seconds, time the field system needs before a slew may start
	Preob               float64 // seconds, pre-observation overhead
	Midob               float64 // seconds, mid-observation overhead
	SystemDelay         float64 // seconds

	MaxTotalObsTime float64 // seconds, 0 means unconstrained
}

// MinimumSlewTimeForDiskRate returns the extra slew time, in seconds,
// that must be reserved so an observation of duration obsSeconds
// recording at recordingRate does not outrun writeRate:
//
//	t_min = ceil(obs * (recRate/writeRate - 1))
//
// It returns 0 when writeRate is unconstrained (<=0) or the recording
// rate does not exceed it.
func (p Parameters) MinimumSlewTimeForDiskRate(obsSeconds, recordingRate float64) float64 {
	if p.DataWriteRate <= 0 || recordingRate <= 0 {
		return 0
	}
	ratio := recordingRate/p.DataWriteRate - 1
	if ratio <= 0 {
		return 0
	}
	return math.Ceil(obsSeconds * ratio)
}

// IgnoresSource reports whether this station's parameters exclude the
// given source.
func (p Parameters) IgnoresSource(id idregistry.ID) bool {
	return p.IgnoreSources[id]
}
