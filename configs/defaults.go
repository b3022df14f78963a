package configs

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults registers default values for every configuration key so
// partial config files and environment overrides merge cleanly.
func SetDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}

	// Audio I/O defaults
	if !v.IsSet("audio.sample_rate") {
		v.Set("audio.sample_rate", 44100)
	}
	if !v.IsSet("audio.channels") {
		v.Set("audio.channels", 2)
	}
	if !v.IsSet("audio.bit_depth") {
		v.Set("audio.bit_depth", 16)
	}

	// Analysis defaults
	if !v.IsSet("analysis.window_size") {
		v.Set("analysis.window_size", 2048)
	}
	if !v.IsSet("analysis.hop_size") {
		v.Set("analysis.hop_size", 512)
	}
	if !v.IsSet("analysis.min_bpm") {
		v.Set("analysis.min_bpm", 40.0)
	}
	if !v.IsSet("analysis.max_bpm") {
		v.Set("analysis.max_bpm", 220.0)
	}
	if !v.IsSet("analysis.reference_bpm_low") {
		v.Set("analysis.reference_bpm_low", 90.0)
	}
	if !v.IsSet("analysis.reference_bpm_high") {
		v.Set("analysis.reference_bpm_high", 150.0)
	}
	if !v.IsSet("analysis.boundary_threshold") {
		v.Set("analysis.boundary_threshold", 1.5)
	}
	if !v.IsSet("analysis.boundary_min_spacing") {
		v.Set("analysis.boundary_min_spacing", 2.0)
	}
	if !v.IsSet("analysis.smoothing_frames") {
		v.Set("analysis.smoothing_frames", 8)
	}
	if !v.IsSet("analysis.confidence_threshold") {
		v.Set("analysis.confidence_threshold", 0.1)
	}
	if !v.IsSet("analysis.max_concurrency") {
		v.Set("analysis.max_concurrency", 4)
	}

	// Scoring defaults
	if !v.IsSet("scoring.tempo_weight") {
		v.Set("scoring.tempo_weight", 1.0)
	}
	if !v.IsSet("scoring.key_weight") {
		v.Set("scoring.key_weight", 1.0)
	}
	if !v.IsSet("scoring.energy_weight") {
		v.Set("scoring.energy_weight", 1.0)
	}
	if !v.IsSet("scoring.tempo_log_tolerance") {
		v.Set("scoring.tempo_log_tolerance", 1.0)
	}

	// Transform defaults
	if !v.IsSet("transform.stretch_window_size") {
		v.Set("transform.stretch_window_size", 2048)
	}
	if !v.IsSet("transform.eq_low_freq") {
		v.Set("transform.eq_low_freq", 250.0)
	}
	if !v.IsSet("transform.eq_high_freq") {
		v.Set("transform.eq_high_freq", 4000.0)
	}
	if !v.IsSet("transform.peak_ceiling") {
		v.Set("transform.peak_ceiling", 0.99)
	}

	// Render defaults
	if !v.IsSet("render.default_crossfade") {
		v.Set("render.default_crossfade", 0.5)
	}
	if !v.IsSet("render.peak_ceiling") {
		v.Set("render.peak_ceiling", 0.89)
	}
	if !v.IsSet("render.max_concurrency") {
		v.Set("render.max_concurrency", 4)
	}
	if !v.IsSet("render.skip_tempo_sync") {
		v.Set("render.skip_tempo_sync", false)
	}
	if !v.IsSet("render.skip_key_sync") {
		v.Set("render.skip_key_sync", false)
	}

	// Session defaults
	if !v.IsSet("session.store_path") {
		v.Set("session.store_path", filepath.Join(defaultDataDir(), "session.db"))
	}
	if !v.IsSet("session.disallow_overlap") {
		v.Set("session.disallow_overlap", false)
	}
	if !v.IsSet("session.max_pitch_shift") {
		v.Set("session.max_pitch_shift", 12.0)
	}
	if !v.IsSet("session.max_eq_gain_db") {
		v.Set("session.max_eq_gain_db", 12.0)
	}
	if !v.IsSet("session.max_volume_db") {
		v.Set("session.max_volume_db", 6.0)
	}
	if !v.IsSet("session.suggestion_length") {
		v.Set("session.suggestion_length", 30.0)
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		DataDir:      defaultDataDir(),
		Audio:        GetDefaultAudioConfig(),
		Analysis:     GetDefaultAnalysisConfig(),
		Scoring:      GetDefaultScoringConfig(),
		Transform:    GetDefaultTransformConfig(),
		Render:       GetDefaultRenderConfig(),
		Session:      GetDefaultSessionConfig(),
	}
}

// GetDefaultAudioConfig returns default audio I/O settings
func GetDefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}
}

// GetDefaultAnalysisConfig returns default feature analysis settings
func GetDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WindowSize:          2048,
		HopSize:             512,
		MinBPM:              40,
		MaxBPM:              220,
		ReferenceBPMLow:     90,
		ReferenceBPMHigh:    150,
		BoundaryThreshold:   1.5,
		BoundaryMinSpacing:  2.0,
		SmoothingFrames:     8,
		ConfidenceThreshold: 0.1,
		MaxConcurrency:      4,
	}
}

// GetDefaultScoringConfig returns default compatibility scoring weights
func GetDefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TempoWeight:       1.0,
		KeyWeight:         1.0,
		EnergyWeight:      1.0,
		TempoLogTolerance: 1.0,
	}
}

// GetDefaultTransformConfig returns default effect processing settings
func GetDefaultTransformConfig() TransformConfig {
	return TransformConfig{
		StretchWindowSize: 2048,
		EQLowFreq:         250,
		EQHighFreq:        4000,
		PeakCeiling:       0.99,
	}
}

// GetDefaultRenderConfig returns default mashup assembly settings
func GetDefaultRenderConfig() RenderConfig {
	return RenderConfig{
		DefaultCrossfade: 0.5,
		PeakCeiling:      0.89,
		MaxConcurrency:   4,
	}
}

// GetDefaultSessionConfig returns default session settings
func GetDefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StorePath:        filepath.Join(defaultDataDir(), "session.db"),
		DisallowOverlap:  false,
		MaxPitchShift:    12,
		MaxEQGainDB:      12,
		MaxVolumeDB:      6.0,
		SuggestionLength: 30,
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mashup")
}
