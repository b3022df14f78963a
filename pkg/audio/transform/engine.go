package transform

import (
	"context"
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/snr16/AI-mashup-generator/pkg/audio"
)

// EQParams holds per-band gains in dB for the three-band equalizer.
type EQParams struct {
	LowDB  float64 `json:"low_db"`
	MidDB  float64 `json:"mid_db"`
	HighDB float64 `json:"high_db"`
}

// IsIdentity reports whether the EQ leaves the signal untouched.
func (p EQParams) IsIdentity() bool {
	return p.LowDB == 0 && p.MidDB == 0 && p.HighDB == 0
}

// Params describes one segment's transform chain.
type Params struct {
	GainDB         float64  `json:"gain_db"`
	PitchSemitones float64  `json:"pitch_semitones"`
	EQ             EQParams `json:"eq"`
}

// IsIdentity reports whether the whole chain is a no-op.
func (p Params) IsIdentity() bool {
	return p.GainDB == 0 && p.PitchSemitones == 0 && p.EQ.IsIdentity()
}

// Report records adjustments the engine made beyond what was asked,
// such as reining in a gain that would have clipped.
type Report struct {
	GainClamped   bool    `json:"gain_clamped"`
	AppliedGainDB float64 `json:"applied_gain_db"`
}

// EngineConfig contains configuration for the transform engine
type EngineConfig struct {
	// StretchWindowSize is the phase-vocoder FFT size.
	StretchWindowSize int
	// EQLowFreq and EQHighFreq are the fixed band edges: low shelf
	// below EQLowFreq, high shelf above EQHighFreq, peaking filter at
	// their geometric mean.
	EQLowFreq  float64
	EQHighFreq float64
	// PeakCeiling is the maximum absolute sample value gain staging
	// may produce.
	PeakCeiling float64
	Logger      logging.Logger
}

// Engine applies per-segment audio transformations. Transforms are
// pure: inputs are never mutated and identical inputs produce
// identical outputs, so segments can be processed in parallel.
type Engine struct {
	config    *EngineConfig
	stretcher *stretcher
	logger    logging.Logger
}

// NewEngine creates a new transform engine
func NewEngine(config *EngineConfig) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Engine{
		config:    config,
		stretcher: newStretcher(config.StretchWindowSize),
		logger: logger.WithFields(logging.Fields{
			"component": "transform_engine",
		}),
	}
}

// Apply runs the transform chain: pitch shift, then EQ, then gain.
// Identity parameters return the input waveform unchanged.
func (e *Engine) Apply(ctx context.Context, w *audio.Waveform, params Params) (*audio.Waveform, *Report, error) {
	report := &Report{AppliedGainDB: params.GainDB}

	if params.IsIdentity() {
		return w, report, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := w

	if params.PitchSemitones != 0 {
		shifted, err := e.PitchShift(ctx, out, params.PitchSemitones)
		if err != nil {
			return nil, nil, err
		}
		out = shifted
	}

	if !params.EQ.IsIdentity() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		out = e.applyEQ(out, params.EQ)
	}

	if params.GainDB != 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		var clamped bool
		out, report.AppliedGainDB, clamped = e.applyGain(out, params.GainDB)
		report.GainClamped = clamped
	}

	return out, report, nil
}

// Stretch time-stretches a waveform without changing pitch. Ratios
// outside the supported range return a *StretchRatioError.
func (e *Engine) Stretch(ctx context.Context, w *audio.Waveform, ratio float64) (*audio.Waveform, error) {
	if ratio < MinStretchRatio || ratio > MaxStretchRatio {
		return nil, NewStretchRatioError(ratio)
	}
	if ratio == 1.0 {
		return w, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("Time-stretching waveform", logging.Fields{
		"ratio":      ratio,
		"input_len":  w.Len(),
		"duration_s": w.Seconds(),
	})

	return e.stretcher.stretch(ctx, w, ratio)
}

// PitchShift shifts pitch by a semitone offset while preserving
// duration: the signal is stretched by the pitch ratio and resampled
// back to its original length. A zero shift is an exact no-op.
func (e *Engine) PitchShift(ctx context.Context, w *audio.Waveform, semitones float64) (*audio.Waveform, error) {
	if semitones == 0 {
		return w, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ratio := math.Pow(2, semitones/12.0)

	e.logger.Debug("Pitch shifting waveform", logging.Fields{
		"semitones": semitones,
		"ratio":     ratio,
	})

	// The stretch is internal here, so fold extreme shifts into range
	// rather than refusing them.
	stretchRatio := ratio
	if stretchRatio < MinStretchRatio {
		stretchRatio = MinStretchRatio
	}
	if stretchRatio > MaxStretchRatio {
		stretchRatio = MaxStretchRatio
	}

	stretched, err := e.stretcher.stretch(ctx, w, stretchRatio)
	if err != nil {
		return nil, err
	}

	// Resampling by the same ratio restores the duration and moves the
	// pitch.
	out := stretchLinear(stretched, w.Len())
	out.SampleRate = w.SampleRate
	return out, nil
}

// applyEQ runs the three-band filter chain over a copy of the input.
func (e *Engine) applyEQ(w *audio.Waveform, params EQParams) *audio.Waveform {
	out := w.Clone()
	midFreq := math.Sqrt(e.config.EQLowFreq * e.config.EQHighFreq)

	for _, ch := range out.Samples {
		if params.LowDB != 0 {
			newLowShelf(out.SampleRate, e.config.EQLowFreq, params.LowDB).process(ch)
		}
		if params.MidDB != 0 {
			newPeaking(out.SampleRate, midFreq, 1.0, params.MidDB).process(ch)
		}
		if params.HighDB != 0 {
			newHighShelf(out.SampleRate, e.config.EQHighFreq, params.HighDB).process(ch)
		}
	}

	return out
}

// applyGain scales the waveform, backing the gain off if the result
// would exceed the peak ceiling. Returns the output, the gain actually
// applied in dB, and whether clamping occurred.
func (e *Engine) applyGain(w *audio.Waveform, gainDB float64) (*audio.Waveform, float64, bool) {
	gain := math.Pow(10, gainDB/20)
	peak := w.Peak()

	clamped := false
	if peak*gain > e.config.PeakCeiling && peak > 0 {
		gain = e.config.PeakCeiling / peak
		clamped = true
		e.logger.Warn("Gain clamped to avoid clipping", logging.Fields{
			"requested_db": gainDB,
			"applied_db":   20 * math.Log10(gain),
			"peak":         peak,
		})
	}

	out := w.Clone()
	for _, ch := range out.Samples {
		for i := range ch {
			ch[i] *= gain
		}
	}

	return out, 20 * math.Log10(gain), clamped
}

// PeakNormalize scales a waveform so its peak hits the given ceiling.
// Silent input is returned unchanged. Returns the gain applied in dB.
func PeakNormalize(w *audio.Waveform, ceiling float64) (*audio.Waveform, float64) {
	peak := w.Peak()
	if peak == 0 || ceiling <= 0 {
		return w, 0
	}

	gain := ceiling / peak
	out := w.Clone()
	for _, ch := range out.Samples {
		for i := range ch {
			ch[i] *= gain
		}
	}
	return out, 20 * math.Log10(gain)
}
