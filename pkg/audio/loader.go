package audio

import (
	"bytes"
	"math"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// LoadOptions controls decode-time normalization.
type LoadOptions struct {
	// Normalize resamples and downmixes the decoded audio to the
	// target rate and channel count below.
	Normalize bool
	// TargetSampleRate is the canonical sample rate (0 means keep the
	// source rate).
	TargetSampleRate int
	// TargetChannels is the canonical channel count (0 means keep the
	// source layout).
	TargetChannels int
}

// Loader decodes raw audio bytes into waveforms. WAV PCM is the
// supported container; the storage collaborator is expected to hand
// over complete files as byte slices.
type Loader struct {
	logger logging.Logger
}

// NewLoader creates a new audio loader
func NewLoader(logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Loader{logger: logger}
}

// Load decodes WAV bytes into a Waveform. Empty or corrupt input
// returns a *DecodeError; it never panics on malformed data.
func (l *Loader) Load(data []byte, opts LoadOptions) (*Waveform, error) {
	if len(data) == 0 {
		return nil, NewDecodeError("wav", ErrCodeEmptyInput, "empty input data", nil)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, NewDecodeError("wav", ErrCodeInvalidFormat, "not a valid WAV file", nil)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, NewDecodeError("wav", ErrCodeCorruptData, "failed to read PCM data", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, NewDecodeError("wav", ErrCodeCorruptData, "no PCM data in file", nil)
	}

	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	if channels <= 0 || sampleRate <= 0 {
		return nil, NewDecodeError("wav", ErrCodeCorruptData, "invalid WAV format header", nil)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	scale := float64(int64(1) << (bitDepth - 1))
	if scale == 0 {
		return nil, NewDecodeError("wav", ErrCodeUnsupported, "unsupported bit depth", nil)
	}

	// Deinterleave into per-channel float64 samples.
	frames := len(buf.Data) / channels
	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, frames)
	}
	for i := range frames {
		for c := range channels {
			samples[c][i] = float64(buf.Data[i*channels+c]) / scale
		}
	}

	w := &Waveform{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}

	l.logger.Debug("Decoded WAV input", logging.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"frames":      frames,
		"bit_depth":   bitDepth,
		"duration_s":  w.Seconds(),
	})

	if opts.Normalize {
		w = l.normalize(w, opts)
	}

	return w, nil
}

// normalize resamples and downmixes to the canonical layout.
func (l *Loader) normalize(w *Waveform, opts LoadOptions) *Waveform {
	out := w

	if opts.TargetSampleRate > 0 && opts.TargetSampleRate != w.SampleRate {
		out = Resample(out, opts.TargetSampleRate)
		l.logger.Debug("Resampled input", logging.Fields{
			"source_rate": w.SampleRate,
			"target_rate": opts.TargetSampleRate,
		})
	}

	if opts.TargetChannels > 0 && opts.TargetChannels != out.Channels {
		out = Remix(out, opts.TargetChannels)
		l.logger.Debug("Remixed input", logging.Fields{
			"source_channels": w.Channels,
			"target_channels": opts.TargetChannels,
		})
	}

	return out
}

// Resample converts a waveform to a new sample rate using linear
// interpolation. Linear quality is sufficient here: resampled audio is
// analyzed and mixed, not archived.
func Resample(w *Waveform, targetRate int) *Waveform {
	if targetRate <= 0 || targetRate == w.SampleRate || w.Len() == 0 {
		out := w.Clone()
		if targetRate > 0 {
			out.SampleRate = targetRate
		}
		return out
	}

	ratio := float64(w.SampleRate) / float64(targetRate)
	outLen := int(math.Round(float64(w.Len()) / ratio))
	if outLen < 1 {
		outLen = 1
	}

	samples := make([][]float64, len(w.Samples))
	for c, ch := range w.Samples {
		samples[c] = make([]float64, outLen)
		for i := range outLen {
			pos := float64(i) * ratio
			idx := int(pos)
			if idx >= len(ch)-1 {
				samples[c][i] = ch[len(ch)-1]
				continue
			}
			frac := pos - float64(idx)
			samples[c][i] = ch[idx]*(1-frac) + ch[idx+1]*frac
		}
	}

	return &Waveform{
		Samples:    samples,
		SampleRate: targetRate,
		Channels:   w.Channels,
	}
}

// Remix converts between channel layouts. Downmixing averages source
// channels; upmixing duplicates the mono fold into every target channel.
func Remix(w *Waveform, targetChannels int) *Waveform {
	if targetChannels <= 0 || targetChannels == w.Channels {
		return w.Clone()
	}

	mono := w.Mono()
	samples := make([][]float64, targetChannels)
	if targetChannels == 1 {
		samples[0] = mono
	} else if w.Channels == 1 {
		for c := range samples {
			samples[c] = make([]float64, len(mono))
			copy(samples[c], w.Samples[0])
		}
	} else {
		for c := range samples {
			if c < len(w.Samples) {
				samples[c] = make([]float64, len(w.Samples[c]))
				copy(samples[c], w.Samples[c])
			} else {
				samples[c] = make([]float64, len(mono))
				copy(samples[c], mono)
			}
		}
	}

	return &Waveform{
		Samples:    samples,
		SampleRate: w.SampleRate,
		Channels:   targetChannels,
	}
}
