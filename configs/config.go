// Package configs loads the closed configuration record the fingerprinting
// core is parameterized by. All tunables from spec §6 live here as a single
// document; unknown keys are rejected rather than silently ignored.
package configs

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is the current fingerprint bit-layout and extraction
// parameter set this build advertises. Bump this whenever a parameter that
// affects hash derivation changes; stores built under a different version
// must refuse to open (spec §6, invariant 3 of spec §3).
const SchemaVersion = 1

// Config is the complete, closed set of tunables consumed by the core
// (spec §6). There is no "free-form document" here: every field is named,
// and the YAML decoder rejects unknown keys so a typo in a config file is a
// load error, not a silently-ignored setting.
type Config struct {
	// Resampler / framer (4.A)
	SampleRate int `yaml:"sample_rate"` // Fs, canonical sample rate in Hz
	WindowSize int `yaml:"window_size"` // W, FFT window size in samples
	HopSize    int `yaml:"hop_size"`    // H, hop between frames

	// Peak picker (4.C)
	PeakNeighborhoodTime int     `yaml:"peak_neighborhood_time"` // ΔT, frames
	PeakNeighborhoodFreq int     `yaml:"peak_neighborhood_freq"` // ΔF, bins
	PeakAlpha            float64 `yaml:"peak_alpha"`             // α
	PeakAbsFloor         float64 `yaml:"peak_abs_floor"`         // G_abs
	TargetDensity        float64 `yaml:"target_density"`         // peaks/sec target

	// Hasher (4.D)
	TargetZoneMinDelta int `yaml:"target_zone_min_delta"` // δ_min, frames
	TargetZoneMaxDelta int `yaml:"target_zone_max_delta"` // δ_max, frames
	TargetZoneFanout   int `yaml:"target_zone_fanout"`    // K, max targets per anchor
	TargetZoneFreqFan  int `yaml:"target_zone_freq_fan"`  // F_fan, bin half-width

	// Index (4.E)
	HotHashCap int `yaml:"hot_hash_cap"` // P_max

	// Matcher (4.F)
	MinMatchCount       int     `yaml:"min_match_count"`      // N_min
	ConfidenceBeta      float64 `yaml:"confidence_beta"`      // β
	ConfidenceThreshold float64 `yaml:"confidence_threshold"` // conf_threshold

	// Schema
	SchemaVersion int `yaml:"schema_version"`

	// Storage (collaborator, not part of the fingerprint schema itself)
	Database DatabaseConfig `yaml:"database"`

	// Logging (ambient)
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig selects and parameterizes the persistent store backing the
// index (4.E) and catalog (4.G).
type DatabaseConfig struct {
	Type string `yaml:"type"` // "mysql" or "postgres"
	DSN  string `yaml:"dsn"`
}

// Default returns the recommended defaults from spec §4.A and §6.
func Default() Config {
	return Config{
		SampleRate:           11025,
		WindowSize:           4096,
		HopSize:              2048,
		PeakNeighborhoodTime: 10,
		PeakNeighborhoodFreq: 10,
		PeakAlpha:            2.5,
		PeakAbsFloor:         1e-6,
		TargetDensity:        40,
		TargetZoneMinDelta:   1,
		TargetZoneMaxDelta:   100,
		TargetZoneFanout:     5,
		TargetZoneFreqFan:    100,
		HotHashCap:           200,
		MinMatchCount:        5,
		ConfidenceBeta:       0.1,
		ConfidenceThreshold:  0.15,
		SchemaVersion:        SchemaVersion,
		LogLevel:             "info",
	}
}

// Load reads a YAML configuration file, starting from Default() and
// overlaying whatever fields the file specifies. An unknown key in the file
// is a load error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config file %q", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %q", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations that cannot form a usable pipeline.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample_rate must be positive")
	}
	if c.WindowSize <= 0 || c.WindowSize&(c.WindowSize-1) != 0 {
		return errors.New("window_size must be a positive power of two")
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		return errors.New("hop_size must be positive and <= window_size")
	}
	if c.Database.Type != "" && c.Database.Type != "mysql" && c.Database.Type != "postgres" {
		return errors.Errorf("unsupported database type: %s", c.Database.Type)
	}
	return nil
}

// Header is the subset of Config that must match between a persisted store
// and the runtime for the store to be considered compatible (spec §6).
type Header struct {
	SchemaVersion int
	SampleRate    int
	WindowSize    int
	HopSize       int
	HotHashCap    int
}

// Header extracts the schema-relevant fields from a Config.
func (c Config) Header() Header {
	return Header{
		SchemaVersion: c.SchemaVersion,
		SampleRate:    c.SampleRate,
		WindowSize:    c.WindowSize,
		HopSize:       c.HopSize,
		HotHashCap:    c.HotHashCap,
	}
}

// CompatibleWith reports whether a persisted header matches this runtime's
// schema-relevant configuration exactly (spec §6: "Any mismatch ... MUST
// cause SchemaMismatch before any operation succeeds").
func (h Header) CompatibleWith(other Header) bool {
	return h == other
}
