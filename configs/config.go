package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`

	// Audio I/O configuration
	Audio AudioConfig `mapstructure:"audio" yaml:"audio"`

	// Feature analysis configuration
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`

	// Compatibility scoring configuration
	Scoring ScoringConfig `mapstructure:"scoring" yaml:"scoring"`

	// Effect and transform configuration
	Transform TransformConfig `mapstructure:"transform" yaml:"transform"`

	// Render configuration
	Render RenderConfig `mapstructure:"render" yaml:"render"`

	// Session configuration
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// AudioConfig contains audio decoding and output format settings
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int `mapstructure:"channels" yaml:"channels"`
	BitDepth   int `mapstructure:"bit_depth" yaml:"bit_depth"`
}

// AnalysisConfig contains feature analysis settings
type AnalysisConfig struct {
	WindowSize          int     `mapstructure:"window_size" yaml:"window_size"`
	HopSize             int     `mapstructure:"hop_size" yaml:"hop_size"`
	MinBPM              float64 `mapstructure:"min_bpm" yaml:"min_bpm"`
	MaxBPM              float64 `mapstructure:"max_bpm" yaml:"max_bpm"`
	ReferenceBPMLow     float64 `mapstructure:"reference_bpm_low" yaml:"reference_bpm_low"`
	ReferenceBPMHigh    float64 `mapstructure:"reference_bpm_high" yaml:"reference_bpm_high"`
	BoundaryThreshold   float64 `mapstructure:"boundary_threshold" yaml:"boundary_threshold"`
	BoundaryMinSpacing  float64 `mapstructure:"boundary_min_spacing" yaml:"boundary_min_spacing"`
	SmoothingFrames     int     `mapstructure:"smoothing_frames" yaml:"smoothing_frames"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	MaxConcurrency      int     `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// ScoringConfig contains compatibility scoring weights
type ScoringConfig struct {
	TempoWeight       float64 `mapstructure:"tempo_weight" yaml:"tempo_weight"`
	KeyWeight         float64 `mapstructure:"key_weight" yaml:"key_weight"`
	EnergyWeight      float64 `mapstructure:"energy_weight" yaml:"energy_weight"`
	TempoLogTolerance float64 `mapstructure:"tempo_log_tolerance" yaml:"tempo_log_tolerance"`
}

// TransformConfig contains effect processing settings
type TransformConfig struct {
	StretchWindowSize int     `mapstructure:"stretch_window_size" yaml:"stretch_window_size"`
	EQLowFreq         float64 `mapstructure:"eq_low_freq" yaml:"eq_low_freq"`
	EQHighFreq        float64 `mapstructure:"eq_high_freq" yaml:"eq_high_freq"`
	PeakCeiling       float64 `mapstructure:"peak_ceiling" yaml:"peak_ceiling"`
}

// RenderConfig contains mashup assembly settings
type RenderConfig struct {
	DefaultCrossfade float64 `mapstructure:"default_crossfade" yaml:"default_crossfade"`
	PeakCeiling      float64 `mapstructure:"peak_ceiling" yaml:"peak_ceiling"`
	MaxConcurrency   int     `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	SkipTempoSync    bool    `mapstructure:"skip_tempo_sync" yaml:"skip_tempo_sync"`
	SkipKeySync      bool    `mapstructure:"skip_key_sync" yaml:"skip_key_sync"`
}

// SessionConfig contains session and persistence settings
type SessionConfig struct {
	StorePath        string  `mapstructure:"store_path" yaml:"store_path"`
	DisallowOverlap  bool    `mapstructure:"disallow_overlap" yaml:"disallow_overlap"`
	MaxPitchShift    float64 `mapstructure:"max_pitch_shift" yaml:"max_pitch_shift"`
	MaxEQGainDB      float64 `mapstructure:"max_eq_gain_db" yaml:"max_eq_gain_db"`
	MaxVolumeDB      float64 `mapstructure:"max_volume_db" yaml:"max_volume_db"`
	SuggestionLength float64 `mapstructure:"suggestion_length" yaml:"suggestion_length"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Audio.Channels <= 0 {
		return fmt.Errorf("audio channels must be positive")
	}

	switch config.Audio.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("audio bit depth must be 16, 24 or 32")
	}

	if config.Analysis.WindowSize <= 0 || config.Analysis.WindowSize&(config.Analysis.WindowSize-1) != 0 {
		return fmt.Errorf("analysis window size must be a positive power of two")
	}

	if config.Analysis.HopSize <= 0 || config.Analysis.HopSize > config.Analysis.WindowSize {
		return fmt.Errorf("analysis hop size must be positive and at most the window size")
	}

	if config.Analysis.MinBPM <= 0 || config.Analysis.MaxBPM <= config.Analysis.MinBPM {
		return fmt.Errorf("BPM range must satisfy 0 < min < max")
	}

	if config.Scoring.TempoWeight < 0 || config.Scoring.KeyWeight < 0 || config.Scoring.EnergyWeight < 0 {
		return fmt.Errorf("scoring weights cannot be negative")
	}

	if config.Scoring.TempoWeight+config.Scoring.KeyWeight+config.Scoring.EnergyWeight <= 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}

	if config.Transform.EQLowFreq <= 0 || config.Transform.EQHighFreq <= config.Transform.EQLowFreq {
		return fmt.Errorf("EQ band edges must satisfy 0 < low < high")
	}

	if config.Transform.PeakCeiling <= 0 || config.Transform.PeakCeiling > 1 {
		return fmt.Errorf("transform peak ceiling must be in (0, 1]")
	}

	if config.Render.PeakCeiling <= 0 || config.Render.PeakCeiling > 1 {
		return fmt.Errorf("render peak ceiling must be in (0, 1]")
	}

	if config.Render.DefaultCrossfade < 0 {
		return fmt.Errorf("default crossfade cannot be negative")
	}

	if config.Session.SuggestionLength < 0 {
		return fmt.Errorf("suggestion length cannot be negative")
	}

	return nil
}
