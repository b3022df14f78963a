package suggest

import (
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
)

// Suggestion engine defaults, matching the segment bounds a mashup
// works best with.
const (
	defaultTransitionDuration = 4.0
	minSegmentSeconds         = 20.0
	maxSegmentSeconds         = 50.0
	maxSuggestedSegments      = 6
	segmentsPerSong           = 3
)

// SegmentProposal is a suggested segment range within a song. It is
// advice only; nothing is added to the session until the caller
// creates the segment.
type SegmentProposal struct {
	SongID string  `json:"song_id"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Energy float64 `json:"energy"`
}

// MixSuggestion summarizes how two songs could be blended.
type MixSuggestion struct {
	TargetBPM          float64      `json:"target_bpm"`
	TargetKey          analysis.Key `json:"target_key"`
	TransitionType     string       `json:"transition_type"`
	TransitionDuration float64      `json:"transition_duration"`
	EnergyMatch        float64      `json:"energy_match"` // percent
	KeyMatch           float64      `json:"key_match"`    // percent
}

// Suggester produces segment, ordering, and transition suggestions
// from analyzed songs.
type Suggester struct {
	scorer   *Scorer
	analyzer *analysis.Analyzer
	strategy OrderingStrategy
	logger   logging.Logger
}

// NewSuggester creates a suggestion engine. A nil strategy selects
// greedy nearest-neighbor ordering.
func NewSuggester(scorer *Scorer, analyzer *analysis.Analyzer, strategy OrderingStrategy, logger logging.Logger) *Suggester {
	if scorer == nil {
		scorer = NewScorer(nil)
	}
	if strategy == nil {
		strategy = NewGreedyNearestNeighbor(scorer)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Suggester{
		scorer:   scorer,
		analyzer: analyzer,
		strategy: strategy,
		logger: logger.WithFields(logging.Fields{
			"component": "suggester",
		}),
	}
}

// Scorer exposes the underlying compatibility scorer.
func (sg *Suggester) Scorer() *Scorer {
	return sg.scorer
}

// SuggestOrder arranges segments for playback using the configured
// ordering strategy.
func (sg *Suggester) SuggestOrder(segments []SegmentInfo) []SegmentInfo {
	ordered := sg.strategy.Order(segments)

	sg.logger.Debug("Segment order suggested", logging.Fields{
		"strategy": sg.strategy.Name(),
		"segments": len(ordered),
	})
	return ordered
}

// SuggestTransition recommends crossfade durations for the boundary
// between two adjacent segments. The duration grows with
// compatibility and is bounded to half the shorter segment.
func (sg *Suggester) SuggestTransition(a, b SegmentInfo) (fadeOut, fadeIn float64) {
	score := sg.scorer.Score(a, b).Combined

	duration := defaultTransitionDuration * score
	limit := math.Min(a.Duration, b.Duration) / 2
	if duration > limit {
		duration = limit
	}
	if duration < 0 {
		duration = 0
	}

	return duration, duration
}

// SuggestMix summarizes how two songs fit together: a shared target
// tempo, the first song's key as the normalization target, and a
// crossfade transition sized by compatibility.
func (sg *Suggester) SuggestMix(a, b *analysis.Song) MixSuggestion {
	infoA := SegmentInfo{BPM: a.BPM, Key: a.Key, Energy: a.Energy, Duration: a.Duration}
	infoB := SegmentInfo{BPM: b.BPM, Key: b.Key, Energy: b.Energy, Duration: b.Duration}
	score := sg.scorer.Score(infoA, infoB)

	return MixSuggestion{
		TargetBPM:          (a.BPM + b.BPM) / 2,
		TargetKey:          a.Key,
		TransitionType:     "crossfade",
		TransitionDuration: defaultTransitionDuration,
		EnergyMatch:        math.Round(score.Energy * 100),
		KeyMatch:           math.Round(score.KeyScore * 100),
	}
}

// SuggestSegments proposes segments for a set of songs from their
// high-energy regions, interleaved across songs and capped. Songs with
// too few usable regions get evenly spaced filler segments so every
// song contributes to the mashup.
func (sg *Suggester) SuggestSegments(songs []*analysis.Song, targetLength float64) []SegmentProposal {
	if targetLength < minSegmentSeconds {
		targetLength = minSegmentSeconds
	}
	if targetLength > maxSegmentSeconds {
		targetLength = maxSegmentSeconds
	}

	perSong := make([][]SegmentProposal, len(songs))
	for i, song := range songs {
		perSong[i] = sg.proposalsForSong(song, targetLength)
	}

	// Interleave across songs so the mashup alternates sources.
	var out []SegmentProposal
	for round := 0; ; round++ {
		added := false
		for _, proposals := range perSong {
			if round < len(proposals) {
				out = append(out, proposals[round])
				added = true
				if len(out) >= maxSuggestedSegments {
					return out
				}
			}
		}
		if !added {
			break
		}
	}

	sg.logger.Info("Segment suggestions generated", logging.Fields{
		"songs":     len(songs),
		"proposals": len(out),
	})
	return out
}

// proposalsForSong builds up to segmentsPerSong proposals for one song.
func (sg *Suggester) proposalsForSong(song *analysis.Song, targetLength float64) []SegmentProposal {
	var proposals []SegmentProposal

	if sg.analyzer != nil && song.Waveform != nil {
		regions := sg.analyzer.HighEnergyRegions(song, 1.0)
		for _, region := range regions {
			proposal, ok := sg.fitRegion(song, region.Start, region.End, targetLength)
			if ok {
				proposals = append(proposals, proposal)
			}
			if len(proposals) >= segmentsPerSong {
				break
			}
		}
	}

	// Fill with evenly spaced segments when energy detection found too
	// little to work with.
	if len(proposals) < 2 {
		need := 2 - len(proposals)
		for i := range need {
			start := float64(i) * song.Duration / float64(need+1)
			end := math.Min(start+targetLength, song.Duration)
			if end-start >= minSegmentSeconds {
				proposals = append(proposals, SegmentProposal{
					SongID: song.ID,
					Start:  start,
					End:    end,
					Energy: song.Energy,
				})
			}
		}
	}

	return proposals
}

// fitRegion centers a proposal of the target length on a high-energy
// region, clamped to the song bounds. Regions that cannot reach the
// minimum usable length are discarded.
func (sg *Suggester) fitRegion(song *analysis.Song, start, end, targetLength float64) (SegmentProposal, bool) {
	if end-start < targetLength {
		extension := (targetLength - (end - start)) / 2
		start = math.Max(0, start-extension)
		end = math.Min(song.Duration, end+extension)
	}
	if end-start > targetLength {
		middle := (start + end) / 2
		start = middle - targetLength/2
		end = middle + targetLength/2
	}
	start = math.Max(0, start)
	end = math.Min(song.Duration, end)

	if end-start < minSegmentSeconds {
		return SegmentProposal{}, false
	}
	return SegmentProposal{
		SongID: song.ID,
		Start:  start,
		End:    end,
		Energy: song.Energy,
	}, true
}
