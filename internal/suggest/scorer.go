package suggest

import (
	"math"

	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
)

// SegmentInfo carries the musical descriptors the scorer needs about
// one segment: the owning song's tempo and key plus the segment's own
// energy and duration.
type SegmentInfo struct {
	SegmentID string
	SongID    string
	BPM       float64
	Key       analysis.Key
	Energy    float64
	Duration  float64
}

// Score is a derived compatibility measure between two segments. All
// components and the combined value are in [0, 1]; higher is more
// compatible. Scores are recomputed on demand, never stored.
type Score struct {
	Combined float64 `json:"combined"`
	Tempo    float64 `json:"tempo"`
	KeyScore float64 `json:"key"`
	Energy   float64 `json:"energy"`
}

// ScorerConfig contains configuration for the compatibility scorer
type ScorerConfig struct {
	// TempoWeight, KeyWeight, and EnergyWeight control the combined
	// score. They are normalized internally, so only ratios matter.
	TempoWeight  float64
	KeyWeight    float64
	EnergyWeight float64
	// TempoLogTolerance is the absolute log2 tempo ratio at which the
	// tempo score reaches zero. One octave (1.0) by default.
	TempoLogTolerance float64
}

// DefaultScorerConfig weights the three components equally.
func DefaultScorerConfig() *ScorerConfig {
	return &ScorerConfig{
		TempoWeight:       1,
		KeyWeight:         1,
		EnergyWeight:      1,
		TempoLogTolerance: 1.0,
	}
}

// Scorer computes pairwise segment compatibility. Scoring is symmetric
// and deterministic.
type Scorer struct {
	config *ScorerConfig
}

// NewScorer creates a new compatibility scorer
func NewScorer(config *ScorerConfig) *Scorer {
	if config == nil {
		config = DefaultScorerConfig()
	}
	return &Scorer{config: config}
}

// Score computes the compatibility between two segments.
func (sc *Scorer) Score(a, b SegmentInfo) Score {
	tempo := sc.tempoScore(a.BPM, b.BPM)
	key := sc.keyScore(a.Key, b.Key)
	energy := sc.energyScore(a.Energy, b.Energy)

	totalWeight := sc.config.TempoWeight + sc.config.KeyWeight + sc.config.EnergyWeight
	combined := 0.0
	if totalWeight > 0 {
		combined = (tempo*sc.config.TempoWeight +
			key*sc.config.KeyWeight +
			energy*sc.config.EnergyWeight) / totalWeight
	}

	return Score{
		Combined: combined,
		Tempo:    tempo,
		KeyScore: key,
		Energy:   energy,
	}
}

// tempoScore maps the log tempo ratio onto [0, 1]: identical tempi
// score 1, a ratio at the tolerance (an octave by default) scores 0.
func (sc *Scorer) tempoScore(bpmA, bpmB float64) float64 {
	if bpmA <= 0 || bpmB <= 0 {
		return 0
	}
	distance := math.Abs(math.Log2(bpmA / bpmB))
	score := 1 - distance/sc.config.TempoLogTolerance
	if score < 0 {
		return 0
	}
	return score
}

// keyScore maps circle-of-fifths distance onto [0, 1]: same or
// relative keys score 1, the tritone-distant key scores 0.
func (sc *Scorer) keyScore(a, b analysis.Key) float64 {
	return 1 - float64(analysis.CircleOfFifthsDistance(a, b))/6.0
}

// energyScore compares RMS energies relative to the louder of the two.
func (sc *Scorer) energyScore(a, b float64) float64 {
	if a <= 0 && b <= 0 {
		return 1
	}
	hi := math.Max(a, b)
	if hi <= 0 {
		return 0
	}
	return 1 - math.Abs(a-b)/hi
}
