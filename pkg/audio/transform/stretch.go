package transform

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/snr16/AI-mashup-generator/pkg/audio"
)

// ctxCheckInterval is the number of frames processed between
// cancellation checks.
const ctxCheckInterval = 64

// stretcher is a phase-vocoder time stretcher. It resynthesizes the
// signal at a new duration while keeping pitch, using phase
// propagation between analysis frames.
type stretcher struct {
	windowSize int
	hopSize    int // synthesis hop
}

func newStretcher(windowSize int) *stretcher {
	return &stretcher{
		windowSize: windowSize,
		hopSize:    windowSize / 4,
	}
}

// stretch time-stretches a waveform by ratio (output duration over
// input duration). Callers validate the ratio; signals shorter than one
// analysis window are returned duration-scaled by interpolation since
// the vocoder has nothing to lock phases onto.
func (st *stretcher) stretch(ctx context.Context, w *audio.Waveform, ratio float64) (*audio.Waveform, error) {
	if ratio == 1.0 {
		return w, nil
	}

	inLen := w.Len()
	outLen := int(math.Round(float64(inLen) * ratio))

	if inLen < st.windowSize*2 {
		return stretchLinear(w, outLen), nil
	}

	out := audio.NewWaveform(len(w.Samples), outLen, w.SampleRate)
	for c, ch := range w.Samples {
		stretched, err := st.stretchChannel(ctx, ch, outLen, ratio)
		if err != nil {
			return nil, err
		}
		out.Samples[c] = stretched
	}
	out.Channels = w.Channels

	return out, nil
}

func (st *stretcher) stretchChannel(ctx context.Context, signal []float64, outLen int, ratio float64) ([]float64, error) {
	n := st.windowSize
	bins := n/2 + 1
	analysisHop := float64(st.hopSize) / ratio

	numFrames := (outLen-n)/st.hopSize + 1
	if numFrames < 1 {
		numFrames = 1
	}

	win := window.Hann(n)
	out := make([]float64, outLen)
	winSum := make([]float64, outLen)

	prevPhase := make([]float64, bins)
	phaseAcc := make([]float64, bins)
	frame := make([]float64, n)
	spectrum := make([]complex128, n)

	for t := range numFrames {
		if t%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		inPos := int(math.Round(float64(t) * analysisHop))
		if inPos+n > len(signal) {
			inPos = len(signal) - n
		}

		for i := range n {
			frame[i] = signal[inPos+i] * win[i]
		}
		analyzed := fft.FFTReal(frame)

		for k := range bins {
			mag := cmplx.Abs(analyzed[k])
			phase := cmplx.Phase(analyzed[k])

			omega := 2 * math.Pi * float64(k) / float64(n)
			expected := omega * analysisHop
			delta := wrapPhase(phase - prevPhase[k] - expected)
			trueFreq := omega + delta/analysisHop

			prevPhase[k] = phase
			if t == 0 {
				phaseAcc[k] = phase
			} else {
				phaseAcc[k] += trueFreq * float64(st.hopSize)
			}

			spectrum[k] = cmplx.Rect(mag, phaseAcc[k])
		}
		// Rebuild the negative frequencies by conjugate symmetry.
		for k := bins; k < n; k++ {
			spectrum[k] = cmplx.Conj(spectrum[n-k])
		}

		resynth := fft.IFFT(spectrum)
		outPos := t * st.hopSize
		for i := range n {
			if outPos+i >= outLen {
				break
			}
			out[outPos+i] += real(resynth[i]) * win[i]
			winSum[outPos+i] += win[i] * win[i]
		}
	}

	// Normalize the overlap-add by the accumulated window energy.
	for i := range out {
		if winSum[i] > 1e-9 {
			out[i] /= winSum[i]
		}
	}

	return out, nil
}

// wrapPhase maps a phase difference into [-pi, pi].
func wrapPhase(p float64) float64 {
	p = math.Mod(p+math.Pi, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	return p - math.Pi
}

// stretchLinear rescales a waveform to a new length by linear
// interpolation. Used for signals too short for spectral processing.
func stretchLinear(w *audio.Waveform, outLen int) *audio.Waveform {
	if outLen < 1 {
		outLen = 1
	}
	out := audio.NewWaveform(len(w.Samples), outLen, w.SampleRate)
	out.Channels = w.Channels
	if w.Len() == 0 {
		return out
	}

	step := float64(w.Len()-1) / float64(max(outLen-1, 1))
	for c, ch := range w.Samples {
		for i := range outLen {
			pos := float64(i) * step
			idx := int(pos)
			if idx >= len(ch)-1 {
				out.Samples[c][i] = ch[len(ch)-1]
				continue
			}
			frac := pos - float64(idx)
			out.Samples[c][i] = ch[idx]*(1-frac) + ch[idx+1]*frac
		}
	}
	return out
}
