package mashup

import (
	"github.com/snr16/AI-mashup-generator/pkg/audio"
	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
	"github.com/snr16/AI-mashup-generator/pkg/audio/transform"
)

// ManifestEntry records how one segment was placed in the output.
type ManifestEntry struct {
	SegmentID string `json:"segment_id" yaml:"segment_id"`
	SongID    string `json:"song_id" yaml:"song_id"`
	// StartOffset is where the segment begins in the output, seconds.
	StartOffset float64 `json:"start_offset" yaml:"start_offset"`
	// Duration is the rendered segment length after normalization.
	Duration float64 `json:"duration" yaml:"duration"`
	// Applied transform parameters, including implicit tempo and key
	// normalization.
	Params       transform.Params `json:"params" yaml:"params"`
	StretchRatio float64          `json:"stretch_ratio" yaml:"stretch_ratio"`
	// Effective crossfade durations after clamping.
	FadeIn  float64 `json:"fade_in" yaml:"fade_in"`
	FadeOut float64 `json:"fade_out" yaml:"fade_out"`
	// FadeClamped is set when a requested crossfade had to be reduced
	// to fit the segment.
	FadeClamped bool `json:"fade_clamped" yaml:"fade_clamped"`
	// GainClamped is set when clip protection reduced the requested
	// gain.
	GainClamped bool `json:"gain_clamped" yaml:"gain_clamped"`
}

// Manifest describes everything a render did, so the output can be
// audited or reproduced.
type Manifest struct {
	Entries   []ManifestEntry `json:"entries" yaml:"entries"`
	Warnings  []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	TargetBPM float64         `json:"target_bpm" yaml:"target_bpm"`
	TargetKey analysis.Key    `json:"target_key" yaml:"target_key"`
	// NormalizationGainDB is the final peak-normalization gain.
	NormalizationGainDB float64 `json:"normalization_gain_db" yaml:"normalization_gain_db"`
	SampleRate          int     `json:"sample_rate" yaml:"sample_rate"`
	Channels            int     `json:"channels" yaml:"channels"`
}

// RenderResult is the output waveform plus its manifest.
type RenderResult struct {
	Waveform *audio.Waveform
	Manifest *Manifest
}
