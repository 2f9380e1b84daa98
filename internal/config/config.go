// Package config holds the process-wide, immutable scheduling
// configuration: weight factors, sky-coverage thresholds, the subnetting
// and alignment descriptors, and the calibrator block. A single Config
// value is built once per scheduling run (or once per thread, for
// parallel scheduling variants) and never mutated afterward.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vlbisched/scheduler/internal/network"
	"github.com/vlbisched/scheduler/internal/scan"
)

// WeightFactors assigns the relative importance of each scoring term
// and the low/high-elevation ramp boundaries used by
// calibrator scoring.
type WeightFactors struct {
	NumStations       float64
	AverageStations   float64
	AverageBaselines  float64
	AverageSources    float64
	Duration          float64
	SkyCoverage       float64
	IdleTime          float64
	IdleInterval      float64 // seconds, normalises the idle-time term

	LowElevationStartWeight float64 // radians, ramp begins
	LowElevationFullWeight  float64 // radians, ramp saturates
	HighElevationStartWeight float64
	HighElevationFullWeight  float64
}

// DefaultWeightFactors returns an out-of-the-box scoring profile with
// every term enabled evenly.
func DefaultWeightFactors() WeightFactors {
	return WeightFactors{
		NumStations:      1,
		AverageStations:  1,
		AverageBaselines: 1,
		AverageSources:   1,
		Duration:         1,
		SkyCoverage:      1,
		IdleTime:         1,
		IdleInterval:     600,

		LowElevationStartWeight:  10 * 3.14159265358979 / 180,
		LowElevationFullWeight:   5 * 3.14159265358979 / 180,
		HighElevationStartWeight: 80 * 3.14159265358979 / 180,
		HighElevationFullWeight:  85 * 3.14159265358979 / 180,
	}
}

// Validate reports whether w's weights and ramp boundaries are usable.
func (w WeightFactors) Validate() error {
	if w.IdleInterval < 0 {
		return fmt.Errorf("config: IdleInterval must be non-negative, got %f", w.IdleInterval)
	}
	if w.LowElevationStartWeight < w.LowElevationFullWeight {
		return fmt.Errorf("config: LowElevationStartWeight must be >= LowElevationFullWeight")
	}
	if w.HighElevationFullWeight < w.HighElevationStartWeight {
		return fmt.Errorf("config: HighElevationFullWeight must be >= HighElevationStartWeight")
	}
	for name, v := range map[string]float64{
		"NumStations": w.NumStations, "AverageStations": w.AverageStations,
		"AverageBaselines": w.AverageBaselines, "AverageSources": w.AverageSources,
		"Duration": w.Duration, "SkyCoverage": w.SkyCoverage, "IdleTime": w.IdleTime,
	} {
		if v < 0 {
			return fmt.Errorf("config: weight %s must be non-negative, got %f", name, v)
		}
	}
	return nil
}

// SkyCoverageConfig carries the thresholds used both to group stations
// and to decay past pointings' influence over time and
// angle.
type SkyCoverageConfig struct {
	MaxDistBetweenCorrespondingTelescopes float64 // meters; 0 = one coverage per station
	MaxInfluenceDistance                  float64 // radians; influence radius D
	MaxInfluenceTime                      float64 // seconds; influence horizon T, 0 collapses score to 1
	Kernel                                network.SkyCoverageKernel
}

// DefaultSkyCoverageConfig returns the usual sky-coverage defaults:
// no telescope twinning, a 30 degree influence radius and a
// one hour influence horizon, linear decay.
func DefaultSkyCoverageConfig() SkyCoverageConfig {
	return SkyCoverageConfig{
		MaxDistBetweenCorrespondingTelescopes: 0,
		MaxInfluenceDistance:                  30 * 3.14159265358979 / 180,
		MaxInfluenceTime:                      3600,
		Kernel:                                network.KernelLinear,
	}
}

func (c SkyCoverageConfig) Validate() error {
	if c.MaxDistBetweenCorrespondingTelescopes < 0 {
		return fmt.Errorf("config: MaxDistBetweenCorrespondingTelescopes must be non-negative")
	}
	if c.MaxInfluenceDistance < 0 {
		return fmt.Errorf("config: MaxInfluenceDistance must be non-negative")
	}
	if c.MaxInfluenceTime < 0 {
		return fmt.Errorf("config: MaxInfluenceTime must be non-negative")
	}
	return nil
}

// SubnettingRule selects which of the two subnetting station-count
// floors applies.
type SubnettingRule int

const (
	// SubnettingPercent requires the combined station count to be at
	// least Percent * (max stations available across both sources).
	SubnettingPercent SubnettingRule = iota
	// SubnettingMinIdle requires the combined station count to leave at
	// most MaxIdle stations unused.
	SubnettingMinIdle
)

// SubnettingConfig describes how two single-source candidate scans may
// be combined into a subnetted pair.
type SubnettingConfig struct {
	Enabled bool
	Rule    SubnettingRule
	Percent float64 // used when Rule == SubnettingPercent
	MaxIdle int     // used when Rule == SubnettingMinIdle

	// MinAngularDistance is the minimum angular separation between two
	// sources for them to be considered a subnetting candidate pair.
	MinAngularDistance float64 // radians

	// MaxTimeSeparation is the hard cap on the gap between the two
	// scans' end times.
	MaxTimeSeparation float64 // seconds
}

// DefaultSubnettingConfig disables subnetting; callers that want it
// must opt in explicitly since it changes scheduling topology.
func DefaultSubnettingConfig() SubnettingConfig {
	return SubnettingConfig{
		Enabled:            false,
		Rule:               SubnettingMinIdle,
		MaxIdle:            0,
		MinAngularDistance: 10 * 3.14159265358979 / 180,
		MaxTimeSeparation:  600,
	}
}

func (c SubnettingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Rule == SubnettingPercent && (c.Percent < 0 || c.Percent > 1) {
		return fmt.Errorf("config: SubnettingConfig.Percent must be in [0,1], got %f", c.Percent)
	}
	if c.Rule == SubnettingMinIdle && c.MaxIdle < 0 {
		return fmt.Errorf("config: SubnettingConfig.MaxIdle must be non-negative")
	}
	if c.MaxTimeSeparation < 0 {
		return fmt.Errorf("config: SubnettingConfig.MaxTimeSeparation must be non-negative")
	}
	return nil
}

// CalibratorTargetMode selects how a calibrator block's scan length is
// determined.
type CalibratorTargetMode int

const (
	CalibratorTargetParameters CalibratorTargetMode = iota // use source/station ScanMin..ScanMax as usual
	CalibratorTargetMinSNR
	CalibratorTargetSeconds
)

// CalibratorScoreStrategy selects how calibrator-block candidates are
// scored: by the usual SNR-balance criteria, by parallactic-angle
// diversity across the scan's stations, or by the spread of pairwise
// parallactic-angle differences.
type CalibratorScoreStrategy int

const (
	CalibratorScoreSNR CalibratorScoreStrategy = iota
	CalibratorScoreParallacticAngle
	CalibratorScoreDiffParallacticAngle
)

// CalibratorCadenceUnit selects whether a calibrator block recurs
// every N scans or every N seconds.
type CalibratorCadenceUnit int

const (
	CadenceScans CalibratorCadenceUnit = iota
	CadenceSeconds
)

// CalibratorBlock configures the recurring calibration/high-impact
// overlay.
type CalibratorBlock struct {
	Enabled bool
	Cadence CalibratorCadenceUnit
	Every   float64 // scans or seconds per Cadence

	TargetMode    CalibratorTargetMode
	TargetSeconds float64 // used when TargetMode == CalibratorTargetSeconds

	// Strategy selects the calibrator scoring variant applied during a
	// block.
	Strategy CalibratorScoreStrategy

	// SourceIDs restricts candidate sources during a calibrator block to
	// this set; empty means "every source flagged IsCalibrator".
	SourceIDs map[int]bool
}

func (c CalibratorBlock) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Every <= 0 {
		return fmt.Errorf("config: CalibratorBlock.Every must be positive")
	}
	return nil
}

// Config is the single immutable value passed to the scheduler
// constructor. Thread-local copies are cheap since Config
// is a plain value type apart from the CalibratorBlock's map, which
// callers must treat as read-only.
type Config struct {
	Weights          WeightFactors
	SkyCoverage      SkyCoverageConfig
	Subnetting       SubnettingConfig
	Alignment        scan.AlignmentAnchor
	Calibrator       CalibratorBlock
	AvoidSatellites  AvoidSatellitesConfig

	// MaxSubconRetries bounds the number of times the driver advances
	// time and retries subcon construction after an empty step.
	MaxSubconRetries int
	// StepFallbackSeconds is the small increment the driver advances by
	// when no event forces an earlier retry time.
	StepFallbackSeconds float64
}

// AvoidSatellitesConfig configures the AvoidSatellites filter: a
// quasar candidate whose line of sight passes within MinAngularDistance
// of any tracked satellite at the candidate time is rejected.
type AvoidSatellitesConfig struct {
	Enabled            bool
	MinAngularDistance float64 // radians
}

// DefaultConfig returns a Config built from every section's documented
// defaults.
func DefaultConfig() Config {
	return Config{
		Weights:             DefaultWeightFactors(),
		SkyCoverage:         DefaultSkyCoverageConfig(),
		Subnetting:          DefaultSubnettingConfig(),
		Alignment:           scan.AlignStart,
		Calibrator:          CalibratorBlock{},
		AvoidSatellites:     AvoidSatellitesConfig{},
		MaxSubconRetries:     20,
		StepFallbackSeconds:  60,
	}
}

// Validate checks every section of c and the driver-loop bounds.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.SkyCoverage.Validate(); err != nil {
		return err
	}
	if err := c.Subnetting.Validate(); err != nil {
		return err
	}
	if err := c.Calibrator.Validate(); err != nil {
		return err
	}
	if c.MaxSubconRetries <= 0 {
		return fmt.Errorf("config: MaxSubconRetries must be positive")
	}
	if c.StepFallbackSeconds <= 0 {
		return fmt.Errorf("config: StepFallbackSeconds must be positive")
	}
	return nil
}

// fileConfig is the JSON-serialisable override layer: pointer fields
// so an omitted key leaves the corresponding Config field at its
// default.
type fileConfig struct {
	NumStationsWeight      *float64 `json:"num_stations_weight,omitempty"`
	AverageStationsWeight  *float64 `json:"average_stations_weight,omitempty"`
	AverageBaselinesWeight *float64 `json:"average_baselines_weight,omitempty"`
	AverageSourcesWeight   *float64 `json:"average_sources_weight,omitempty"`
	DurationWeight         *float64 `json:"duration_weight,omitempty"`
	SkyCoverageWeight      *float64 `json:"sky_coverage_weight,omitempty"`
	IdleTimeWeight         *float64 `json:"idle_time_weight,omitempty"`
	IdleInterval           *float64 `json:"idle_interval_seconds,omitempty"`

	MaxInfluenceDistanceDeg *float64 `json:"sky_coverage_max_influence_distance_deg,omitempty"`
	MaxInfluenceTimeSeconds *float64 `json:"sky_coverage_max_influence_time_seconds,omitempty"`

	SubnettingEnabled bool     `json:"subnetting_enabled,omitempty"`
	SubnettingPercent *float64 `json:"subnetting_percent,omitempty"`

	MaxSubconRetries    *int     `json:"max_subcon_retries,omitempty"`
	StepFallbackSeconds *float64 `json:"step_fallback_seconds,omitempty"`
}

// LoadOverrides reads a JSON override file and applies any fields it
// sets on top of DefaultConfig(). The path must carry a .json
// extension and the file must stay under a 1MB ceiling.
func LoadOverrides(path string) (Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config: override file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to stat override file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config: override file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to read override file: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("config: failed to parse override JSON: %w", err)
	}
	applyOverrides(&cfg, fc)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: invalid override configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *Config, fc fileConfig) {
	const deg = 3.14159265358979 / 180
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cfg.Weights.NumStations, fc.NumStationsWeight)
	set(&cfg.Weights.AverageStations, fc.AverageStationsWeight)
	set(&cfg.Weights.AverageBaselines, fc.AverageBaselinesWeight)
	set(&cfg.Weights.AverageSources, fc.AverageSourcesWeight)
	set(&cfg.Weights.Duration, fc.DurationWeight)
	set(&cfg.Weights.SkyCoverage, fc.SkyCoverageWeight)
	set(&cfg.Weights.IdleTime, fc.IdleTimeWeight)
	set(&cfg.Weights.IdleInterval, fc.IdleInterval)

	if fc.MaxInfluenceDistanceDeg != nil {
		cfg.SkyCoverage.MaxInfluenceDistance = *fc.MaxInfluenceDistanceDeg * deg
	}
	set(&cfg.SkyCoverage.MaxInfluenceTime, fc.MaxInfluenceTimeSeconds)

	if fc.SubnettingEnabled {
		cfg.Subnetting.Enabled = true
	}
	if fc.SubnettingPercent != nil {
		cfg.Subnetting.Rule = SubnettingPercent
		cfg.Subnetting.Percent = *fc.SubnettingPercent
	}

	if fc.MaxSubconRetries != nil {
		cfg.MaxSubconRetries = *fc.MaxSubconRetries
	}
	set(&cfg.StepFallbackSeconds, fc.StepFallbackSeconds)
}
