package audio

import (
	"math"
	"time"
)

// Waveform holds decoded PCM audio as float64 samples in [-1, 1].
// Samples are stored per channel; every channel has the same length.
// Waveforms are treated as immutable once constructed: processing
// stages return new instances instead of mutating their input.
type Waveform struct {
	Samples    [][]float64
	SampleRate int
	Channels   int
}

// NewWaveform allocates a silent waveform with the given shape.
func NewWaveform(channels, length, sampleRate int) *Waveform {
	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, length)
	}
	return &Waveform{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Len returns the per-channel sample count.
func (w *Waveform) Len() int {
	if len(w.Samples) == 0 {
		return 0
	}
	return len(w.Samples[0])
}

// Duration returns the waveform duration.
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(w.Len()) / float64(w.SampleRate) * float64(time.Second))
}

// Seconds returns the waveform duration in seconds.
func (w *Waveform) Seconds() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(w.Len()) / float64(w.SampleRate)
}

// Clone returns a deep copy.
func (w *Waveform) Clone() *Waveform {
	samples := make([][]float64, len(w.Samples))
	for c := range w.Samples {
		samples[c] = make([]float64, len(w.Samples[c]))
		copy(samples[c], w.Samples[c])
	}
	return &Waveform{
		Samples:    samples,
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
	}
}

// Slice returns a copy of the samples between startSec and endSec.
// Bounds are clamped to the waveform length.
func (w *Waveform) Slice(startSec, endSec float64) *Waveform {
	start := int(startSec * float64(w.SampleRate))
	end := int(endSec * float64(w.SampleRate))
	if start < 0 {
		start = 0
	}
	if end > w.Len() {
		end = w.Len()
	}
	if end < start {
		end = start
	}

	samples := make([][]float64, len(w.Samples))
	for c := range w.Samples {
		samples[c] = make([]float64, end-start)
		copy(samples[c], w.Samples[c][start:end])
	}
	return &Waveform{
		Samples:    samples,
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
	}
}

// Peak returns the maximum absolute sample value across all channels.
func (w *Waveform) Peak() float64 {
	peak := 0.0
	for _, ch := range w.Samples {
		for _, s := range ch {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// RMS returns the root-mean-square level across all channels.
func (w *Waveform) RMS() float64 {
	n := 0
	sum := 0.0
	for _, ch := range w.Samples {
		for _, s := range ch {
			sum += s * s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// Mono returns a single-channel mixdown. The average of all channels
// is used so relative levels survive the fold.
func (w *Waveform) Mono() []float64 {
	if len(w.Samples) == 1 {
		out := make([]float64, len(w.Samples[0]))
		copy(out, w.Samples[0])
		return out
	}

	length := w.Len()
	out := make([]float64, length)
	if w.Channels == 0 {
		return out
	}
	for _, ch := range w.Samples {
		for i, s := range ch {
			out[i] += s
		}
	}
	scale := 1.0 / float64(len(w.Samples))
	for i := range out {
		out[i] *= scale
	}
	return out
}
