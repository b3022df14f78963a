package analysis

import (
	"math"
)

// TempoEstimate holds the result of tempo analysis
type TempoEstimate struct {
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
}

// TempoEstimator estimates tempo from an onset-strength envelope by
// autocorrelation over the beat-period lag range.
type TempoEstimator struct {
	minBPM       float64
	maxBPM       float64
	referenceLow float64
	referenceHi  float64
	sampleRate   int
	hopSize      int
}

// NewTempoEstimator creates a tempo estimator for the given analysis
// geometry. The reference range biases octave-ambiguous candidates
// toward musically common tempi.
func NewTempoEstimator(sampleRate, hopSize int, minBPM, maxBPM, refLow, refHigh float64) *TempoEstimator {
	return &TempoEstimator{
		minBPM:       minBPM,
		maxBPM:       maxBPM,
		referenceLow: refLow,
		referenceHi:  refHigh,
		sampleRate:   sampleRate,
		hopSize:      hopSize,
	}
}

// Estimate runs autocorrelation tempo detection on an onset envelope.
// Degenerate input (too short, or flat) yields the reference-center
// tempo with zero confidence instead of an error.
func (te *TempoEstimator) Estimate(onset []float64) TempoEstimate {
	fallback := TempoEstimate{BPM: (te.referenceLow + te.referenceHi) / 2, Confidence: 0}

	minLag := int(float64(te.sampleRate) * 60.0 / (te.maxBPM * float64(te.hopSize)))
	maxLag := int(float64(te.sampleRate) * 60.0 / (te.minBPM * float64(te.hopSize)))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if maxLag <= minLag {
		return fallback
	}

	refCenter := (te.referenceLow + te.referenceHi) / 2

	bestLag := 0
	bestCorr := 0.0
	corrSum := 0.0
	corrCount := 0

	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		count := 0
		for i := 0; i+lag < len(onset); i++ {
			corr += onset[i] * onset[i+lag]
			count++
		}
		if count > 0 {
			corr /= float64(count)
		}
		corrSum += corr
		corrCount++

		// Perceptual weighting to resolve octave ambiguity toward the
		// reference tempo range.
		bpmApprox := 60.0 * float64(te.sampleRate) / (float64(lag) * float64(te.hopSize))
		weight := math.Exp(-0.5 * math.Pow((bpmApprox-refCenter)/40.0, 2))
		weighted := corr * (0.8 + 0.2*weight)

		if weighted > bestCorr {
			bestCorr = weighted
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr <= 0 {
		return fallback
	}

	bpm := 60.0 * float64(te.sampleRate) / (float64(bestLag) * float64(te.hopSize))
	bpm = te.foldToRange(bpm)

	meanCorr := corrSum / float64(corrCount)
	confidence := 0.0
	if bestCorr > 0 {
		confidence = (bestCorr - meanCorr) / bestCorr
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return TempoEstimate{
		BPM:        math.Round(bpm*10) / 10,
		Confidence: confidence,
	}
}

// foldToRange halves or doubles the estimate into the supported BPM
// range, then prefers the octave candidate nearest the reference range.
func (te *TempoEstimator) foldToRange(bpm float64) float64 {
	for bpm > te.maxBPM {
		bpm /= 2
	}
	for bpm < te.minBPM {
		bpm *= 2
	}

	best := bpm
	bestDist := te.referenceDistance(bpm)
	for _, candidate := range []float64{bpm * 2, bpm / 2} {
		if candidate < te.minBPM || candidate > te.maxBPM {
			continue
		}
		if d := te.referenceDistance(candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

func (te *TempoEstimator) referenceDistance(bpm float64) float64 {
	if bpm >= te.referenceLow && bpm <= te.referenceHi {
		return 0
	}
	if bpm < te.referenceLow {
		return te.referenceLow - bpm
	}
	return bpm - te.referenceHi
}
