package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Boundary marks a likely structural transition (verse to chorus,
// drop, breakdown) in seconds from the start of the waveform.
type Boundary struct {
	Time     float64 `json:"time"`
	Strength float64 `json:"strength"`
}

// Region is a half-open time interval [Start, End) in seconds.
type Region struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the region length in seconds.
func (r Region) Duration() float64 {
	return r.End - r.Start
}

// StructureDetector locates structural boundaries and high-energy
// regions from frame-level features.
type StructureDetector struct {
	smoothingFrames int
	peakThreshold   float64 // stddev multiplier above the mean
	minSpacingSec   float64
}

// NewStructureDetector creates a structure detector. smoothingFrames
// controls the novelty averaging window, peakThreshold the stddev
// multiplier for peak picking, minSpacing the minimum boundary gap.
func NewStructureDetector(smoothingFrames int, peakThreshold, minSpacingSec float64) *StructureDetector {
	if smoothingFrames < 1 {
		smoothingFrames = 1
	}
	return &StructureDetector{
		smoothingFrames: smoothingFrames,
		peakThreshold:   peakThreshold,
		minSpacingSec:   minSpacingSec,
	}
}

// DetectBoundaries finds peaks in the smoothed spectral-flux novelty
// curve. Returned boundary times are strictly increasing.
func (sd *StructureDetector) DetectBoundaries(flux []float64, timePerFrame float64) []Boundary {
	if len(flux) < 3 || timePerFrame <= 0 {
		return nil
	}

	novelty := sd.smooth(flux)

	mean, std := stat.MeanStdDev(novelty, nil)
	if math.IsNaN(std) || std == 0 {
		return nil
	}
	threshold := mean + sd.peakThreshold*std

	minSpacingFrames := int(sd.minSpacingSec / timePerFrame)
	if minSpacingFrames < 1 {
		minSpacingFrames = 1
	}

	var boundaries []Boundary
	lastFrame := -minSpacingFrames

	for i := 1; i < len(novelty)-1; i++ {
		if novelty[i] < threshold {
			continue
		}
		// Local maximum only.
		if novelty[i] < novelty[i-1] || novelty[i] < novelty[i+1] {
			continue
		}
		if i-lastFrame < minSpacingFrames {
			continue
		}
		boundaries = append(boundaries, Boundary{
			Time:     float64(i) * timePerFrame,
			Strength: (novelty[i] - mean) / std,
		})
		lastFrame = i
	}

	return boundaries
}

// smooth applies a centered moving average to the novelty curve.
func (sd *StructureDetector) smooth(values []float64) []float64 {
	if sd.smoothingFrames <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	half := sd.smoothingFrames / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		hi := i + half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(values) {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// HighEnergyRegions returns merged regions whose frame RMS exceeds
// mean + 0.5*stddev. Regions shorter than minDurationSec are dropped.
func (sd *StructureDetector) HighEnergyRegions(energies []float64, timePerFrame, minDurationSec float64) []Region {
	if len(energies) == 0 || timePerFrame <= 0 {
		return nil
	}

	mean, std := stat.MeanStdDev(energies, nil)
	if math.IsNaN(std) {
		std = 0
	}
	threshold := mean + 0.5*std

	var regions []Region
	start := -1

	flushRegion := func(endFrame int) {
		if start < 0 {
			return
		}
		r := Region{
			Start: float64(start) * timePerFrame,
			End:   float64(endFrame) * timePerFrame,
		}
		if r.Duration() >= minDurationSec {
			regions = append(regions, r)
		}
		start = -1
	}

	for i, e := range energies {
		if e >= threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		flushRegion(i)
	}
	flushRegion(len(energies))

	return regions
}
