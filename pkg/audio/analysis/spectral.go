package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// SpectralAnalyzer provides STFT and spectral-shape analysis for the
// feature extraction stages.
type SpectralAnalyzer struct {
	sampleRate int
	windowSize int
	hopSize    int
	logger     logging.Logger
}

// Spectrogram holds the result of STFT analysis
type Spectrogram struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSpectralAnalyzer creates a new spectral analyzer
func NewSpectralAnalyzer(sampleRate, windowSize, hopSize int, logger logging.Logger) *SpectralAnalyzer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SpectralAnalyzer{
		sampleRate: sampleRate,
		windowSize: windowSize,
		hopSize:    hopSize,
		logger: logger.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": sampleRate,
		}),
	}
}

// ComputeSTFT computes a Hann-windowed short-time Fourier transform of
// a mono signal, keeping only the positive-frequency magnitudes.
func (sa *SpectralAnalyzer) ComputeSTFT(signal []float64) (*Spectrogram, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if len(signal) < sa.windowSize {
		return nil, fmt.Errorf("signal shorter than analysis window: %d < %d", len(signal), sa.windowSize)
	}

	timeFrames := 1 + (len(signal)-sa.windowSize)/sa.hopSize
	freqBins := sa.windowSize/2 + 1

	magnitude := make([][]float64, timeFrames)
	frame := make([]float64, sa.windowSize)

	for t := range timeFrames {
		offset := t * sa.hopSize
		copy(frame, signal[offset:offset+sa.windowSize])
		window.Apply(frame, window.Hann)

		spectrum := fft.FFTReal(frame)
		magnitude[t] = make([]float64, freqBins)
		for f := range freqBins {
			magnitude[t][f] = cmplx.Abs(spectrum[f])
		}
	}

	result := &Spectrogram{
		Magnitude:      magnitude,
		TimeFrames:     timeFrames,
		FreqBins:       freqBins,
		SampleRate:     sa.sampleRate,
		WindowSize:     sa.windowSize,
		HopSize:        sa.hopSize,
		FreqResolution: float64(sa.sampleRate) / float64(sa.windowSize),
		TimeResolution: float64(sa.hopSize) / float64(sa.sampleRate),
	}

	sa.logger.Debug("STFT computation completed", logging.Fields{
		"time_frames": result.TimeFrames,
		"freq_bins":   result.FreqBins,
		"hop_size":    result.HopSize,
	})

	return result, nil
}

// BinFrequency returns the center frequency of an FFT bin.
func (s *Spectrogram) BinFrequency(bin int) float64 {
	return float64(bin) * s.FreqResolution
}

// FrameTime returns the start time of a frame in seconds.
func (s *Spectrogram) FrameTime(frame int) float64 {
	return float64(frame*s.HopSize) / float64(s.SampleRate)
}

// ComputeSpectralFlux computes the positive spectral flux between
// consecutive frames. Energy increases drive the onset envelope, so
// only positive differences contribute.
func (sa *SpectralAnalyzer) ComputeSpectralFlux(spectrogram *Spectrogram) []float64 {
	if spectrogram.TimeFrames < 2 {
		return nil
	}

	flux := make([]float64, spectrogram.TimeFrames-1)

	for t := 1; t < spectrogram.TimeFrames; t++ {
		sum := 0.0
		for f := range spectrogram.FreqBins {
			diff := spectrogram.Magnitude[t][f] - spectrogram.Magnitude[t-1][f]
			if diff > 0 {
				sum += diff * diff
			}
		}
		flux[t-1] = math.Sqrt(sum)
	}

	return flux
}

// FrameEnergies returns per-frame RMS values for a mono signal using the
// analyzer's window and hop sizes.
func (sa *SpectralAnalyzer) FrameEnergies(signal []float64) []float64 {
	if len(signal) < sa.windowSize {
		return nil
	}

	frames := 1 + (len(signal)-sa.windowSize)/sa.hopSize
	energies := make([]float64, frames)

	for t := range frames {
		offset := t * sa.hopSize
		sum := 0.0
		for i := range sa.windowSize {
			s := signal[offset+i]
			sum += s * s
		}
		energies[t] = math.Sqrt(sum / float64(sa.windowSize))
	}

	return energies
}
