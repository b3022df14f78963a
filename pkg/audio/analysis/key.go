package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	if m == KeyModeMinor {
		return "minor"
	}
	return "major"
}

// Key is a musical key: a pitch class (0 = C .. 11 = B) plus a mode.
type Key struct {
	PitchClass int     `json:"pitch_class"`
	Mode       KeyMode `json:"mode"`
}

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (k Key) String() string {
	if k.PitchClass < 0 || k.PitchClass > 11 {
		return "?"
	}
	return pitchClassNames[k.PitchClass] + " " + k.Mode.String()
}

// RelativeMajor maps a minor key onto its relative major (A minor ->
// C major); major keys are returned unchanged. Harmonic distance is
// computed between relative-major equivalents.
func (k Key) RelativeMajor() Key {
	if k.Mode == KeyModeMajor {
		return k
	}
	return Key{PitchClass: (k.PitchClass + 3) % 12, Mode: KeyModeMajor}
}

// CircleOfFifthsDistance returns the number of steps between two keys
// on the circle of fifths, in [0, 6]. Minor keys are first mapped to
// their relative majors.
func CircleOfFifthsDistance(a, b Key) int {
	posA := a.RelativeMajor().PitchClass * 7 % 12
	posB := b.RelativeMajor().PitchClass * 7 % 12
	d := posA - posB
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return d
}

// KeyEstimate holds the result of key analysis
type KeyEstimate struct {
	Key        Key     `json:"key"`
	Confidence float64 `json:"confidence"` // profile clarity in [0, 1]
	Chroma     []float64
}

// Krumhansl-Schmuckler key profiles.
var (
	majorProfile = []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// Chroma accumulation range. Below 65 Hz pitch-class mapping gets too
// coarse for the FFT resolution; above 4 kHz harmonics dominate.
const (
	chromaMinFreq = 65.0
	chromaMaxFreq = 4000.0
	middleCFreq   = 261.63
)

// KeyEstimator estimates the musical key of a signal from an
// accumulated chroma vector correlated against key profiles.
type KeyEstimator struct{}

// NewKeyEstimator creates a new key estimator
func NewKeyEstimator() *KeyEstimator {
	return &KeyEstimator{}
}

// ComputeChroma accumulates a 12-bin chroma vector over every frame of
// the spectrogram. Each FFT bin inside the chroma range contributes its
// magnitude to the pitch class nearest its frequency.
func (ke *KeyEstimator) ComputeChroma(spectrogram *Spectrogram) []float64 {
	chroma := make([]float64, 12)

	for t := range spectrogram.TimeFrames {
		for f := 1; f < spectrogram.FreqBins; f++ {
			freq := spectrogram.BinFrequency(f)
			if freq < chromaMinFreq || freq > chromaMaxFreq {
				continue
			}
			semitones := 12 * math.Log2(freq/middleCFreq)
			pc := ((int(math.Round(semitones)) % 12) + 12) % 12
			chroma[pc] += spectrogram.Magnitude[t][f]
		}
	}

	return chroma
}

// Estimate correlates the chroma vector against all 24 rotated key
// profiles and returns the best match. A flat chroma (silence) returns
// C major with zero confidence.
func (ke *KeyEstimator) Estimate(chroma []float64) KeyEstimate {
	fallback := KeyEstimate{Key: Key{PitchClass: 0, Mode: KeyModeMajor}, Confidence: 0, Chroma: chroma}
	if len(chroma) != 12 {
		return fallback
	}

	flat := true
	for _, v := range chroma {
		if v != 0 {
			flat = false
			break
		}
	}
	if flat {
		return fallback
	}

	best := fallback.Key
	bestCorr := math.Inf(-1)
	secondCorr := math.Inf(-1)
	rolled := make([]float64, 12)

	for rot := range 12 {
		for j := range 12 {
			rolled[j] = chroma[(j+rot)%12]
		}

		for _, candidate := range []struct {
			profile []float64
			mode    KeyMode
		}{
			{majorProfile, KeyModeMajor},
			{minorProfile, KeyModeMinor},
		} {
			corr := stat.Correlation(rolled, candidate.profile, nil)
			if math.IsNaN(corr) {
				continue
			}
			if corr > bestCorr {
				secondCorr = bestCorr
				bestCorr = corr
				best = Key{PitchClass: rot, Mode: candidate.mode}
			} else if corr > secondCorr {
				secondCorr = corr
			}
		}
	}

	if math.IsInf(bestCorr, -1) {
		return fallback
	}

	// Clarity: separation between the winner and the runner-up.
	confidence := 0.0
	if bestCorr > 0 && !math.IsInf(secondCorr, -1) {
		confidence = (bestCorr - secondCorr) / bestCorr
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
	}

	return KeyEstimate{Key: best, Confidence: confidence, Chroma: chroma}
}
