package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/snr16/AI-mashup-generator/pkg/audio"
)

// Song is an analyzed waveform with its musical descriptors. All
// descriptors are estimates; low confidence is recorded in the
// metadata, never surfaced as an error.
type Song struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Waveform *audio.Waveform `json:"-"`
	// SourcePath records where the audio was loaded from, so sessions
	// restored from disk can reload waveforms on demand.
	SourcePath string `json:"source_path,omitempty"`

	BPM             float64    `json:"bpm"`
	Key             Key        `json:"key"`
	TempoConfidence float64    `json:"tempo_confidence"`
	KeyConfidence   float64    `json:"key_confidence"`
	LowConfidence   bool       `json:"low_confidence"`
	Boundaries      []Boundary `json:"boundaries"`
	Energy          float64    `json:"energy"`
	Duration        float64    `json:"duration"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// AnalyzerConfig contains configuration for the feature analyzer
type AnalyzerConfig struct {
	WindowSize          int
	HopSize             int
	MinBPM              float64
	MaxBPM              float64
	ReferenceBPMLow     float64
	ReferenceBPMHigh    float64
	BoundaryThreshold   float64
	BoundaryMinSpacing  float64
	SmoothingFrames     int
	ConfidenceThreshold float64
	MaxConcurrency      int
	Logger              logging.Logger
}

// Analyzer extracts tempo, key, energy, and structural boundaries from
// waveforms. Analysis is deterministic: the same samples and the same
// configuration always produce the same Song.
type Analyzer struct {
	config *AnalyzerConfig
	logger logging.Logger
}

// NewAnalyzer creates a new feature analyzer
func NewAnalyzer(config *AnalyzerConfig) *Analyzer {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Analyzer{
		config: config,
		logger: logger.WithFields(logging.Fields{
			"component": "feature_analyzer",
		}),
	}
}

// Analyze extracts the full feature set from a waveform. Only an empty
// waveform is an error; silence and other degenerate content produce a
// Song with LowConfidence set.
func (a *Analyzer) Analyze(ctx context.Context, title string, w *audio.Waveform) (*Song, error) {
	if w == nil || w.Len() == 0 {
		return nil, fmt.Errorf("cannot analyze empty waveform")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Debug("Starting analysis", logging.Fields{
		"title":       title,
		"duration_s":  w.Seconds(),
		"sample_rate": w.SampleRate,
	})

	mono := w.Mono()
	spectral := NewSpectralAnalyzer(w.SampleRate, a.config.WindowSize, a.config.HopSize, a.logger)

	song := &Song{
		ID:         uuid.NewString(),
		Title:      title,
		Waveform:   w,
		Duration:   w.Seconds(),
		AnalyzedAt: time.Now().UTC(),
	}

	spectrogram, err := spectral.ComputeSTFT(mono)
	if err != nil {
		// Too short for even one analysis frame: fall back to defaults.
		song.BPM = (a.config.ReferenceBPMLow + a.config.ReferenceBPMHigh) / 2
		song.Key = Key{PitchClass: 0, Mode: KeyModeMajor}
		song.LowConfidence = true
		song.Energy = w.RMS()
		a.logger.Warn("Waveform too short for spectral analysis", logging.Fields{
			"title":  title,
			"frames": w.Len(),
		})
		return song, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flux := spectral.ComputeSpectralFlux(spectrogram)

	tempoEstimator := NewTempoEstimator(
		w.SampleRate, a.config.HopSize,
		a.config.MinBPM, a.config.MaxBPM,
		a.config.ReferenceBPMLow, a.config.ReferenceBPMHigh)
	tempo := tempoEstimator.Estimate(flux)
	song.BPM = tempo.BPM
	song.TempoConfidence = tempo.Confidence

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyEstimator := NewKeyEstimator()
	keyEstimate := keyEstimator.Estimate(keyEstimator.ComputeChroma(spectrogram))
	song.Key = keyEstimate.Key
	song.KeyConfidence = keyEstimate.Confidence

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detector := NewStructureDetector(
		a.config.SmoothingFrames, a.config.BoundaryThreshold, a.config.BoundaryMinSpacing)
	song.Boundaries = detector.DetectBoundaries(flux, spectrogram.TimeResolution)

	energies := spectral.FrameEnergies(mono)
	if len(energies) > 0 {
		song.Energy = stat.Mean(energies, nil)
	}

	song.LowConfidence = song.TempoConfidence < a.config.ConfidenceThreshold ||
		song.KeyConfidence < a.config.ConfidenceThreshold

	a.logger.Info("Analysis completed", logging.Fields{
		"title":            title,
		"bpm":              song.BPM,
		"key":              song.Key.String(),
		"tempo_confidence": song.TempoConfidence,
		"key_confidence":   song.KeyConfidence,
		"low_confidence":   song.LowConfidence,
		"boundaries":       len(song.Boundaries),
	})

	return song, nil
}

// HighEnergyRegions returns regions of a song where the frame RMS is
// well above average. The suggestion engine uses these as segment
// candidates.
func (a *Analyzer) HighEnergyRegions(song *Song, minDurationSec float64) []Region {
	if song == nil || song.Waveform == nil {
		return nil
	}

	spectral := NewSpectralAnalyzer(
		song.Waveform.SampleRate, a.config.WindowSize, a.config.HopSize, a.logger)
	energies := spectral.FrameEnergies(song.Waveform.Mono())

	detector := NewStructureDetector(
		a.config.SmoothingFrames, a.config.BoundaryThreshold, a.config.BoundaryMinSpacing)
	timePerFrame := float64(a.config.HopSize) / float64(song.Waveform.SampleRate)

	return detector.HighEnergyRegions(energies, timePerFrame, minDurationSec)
}

// AnalyzeInput names one waveform for batch analysis.
type AnalyzeInput struct {
	Title    string
	Waveform *audio.Waveform
}

// AnalyzeAll analyzes multiple waveforms concurrently. Results keep
// input order. The first failure cancels the remaining work.
func (a *Analyzer) AnalyzeAll(ctx context.Context, inputs []AnalyzeInput) ([]*Song, error) {
	songs := make([]*Song, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if a.config.MaxConcurrency > 0 {
		g.SetLimit(a.config.MaxConcurrency)
	}

	for i, input := range inputs {
		g.Go(func() error {
			song, err := a.Analyze(gctx, input.Title, input.Waveform)
			if err != nil {
				return fmt.Errorf("analysis failed for %q: %w", input.Title, err)
			}
			songs[i] = song
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return songs, nil
}
