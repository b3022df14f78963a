package suggest

// OrderingStrategy arranges segments into a playback order. Strategies
// must be deterministic for a given input; they are heuristics and may
// be replaced wholesale by the caller.
type OrderingStrategy interface {
	// Name identifies the strategy in manifests and logs.
	Name() string
	// Order returns the segment infos arranged for playback. The input
	// slice is not modified.
	Order(segments []SegmentInfo) []SegmentInfo
}

// GreedyNearestNeighbor orders segments by repeatedly appending the
// segment most compatible with the current tail. It trades optimality
// for speed: the result is a good order, not the best one, and callers
// are free to rearrange it.
type GreedyNearestNeighbor struct {
	scorer *Scorer
	// AnchorID optionally fixes the first segment. When empty the
	// highest-energy segment anchors the chain.
	AnchorID string
}

// NewGreedyNearestNeighbor creates the default ordering strategy.
func NewGreedyNearestNeighbor(scorer *Scorer) *GreedyNearestNeighbor {
	return &GreedyNearestNeighbor{scorer: scorer}
}

// Name implements OrderingStrategy
func (g *GreedyNearestNeighbor) Name() string {
	return "greedy_nearest_neighbor"
}

// Order implements OrderingStrategy. Ties break toward earlier input
// position so the result is stable across runs.
func (g *GreedyNearestNeighbor) Order(segments []SegmentInfo) []SegmentInfo {
	if len(segments) <= 1 {
		out := make([]SegmentInfo, len(segments))
		copy(out, segments)
		return out
	}

	remaining := make([]SegmentInfo, len(segments))
	copy(remaining, segments)

	anchor := 0
	if g.AnchorID != "" {
		for i, s := range remaining {
			if s.SegmentID == g.AnchorID {
				anchor = i
				break
			}
		}
	} else {
		for i, s := range remaining {
			if s.Energy > remaining[anchor].Energy {
				anchor = i
			}
		}
	}

	ordered := make([]SegmentInfo, 0, len(segments))
	ordered = append(ordered, remaining[anchor])
	remaining = append(remaining[:anchor], remaining[anchor+1:]...)

	for len(remaining) > 0 {
		tail := ordered[len(ordered)-1]
		best := 0
		bestScore := -1.0
		for i, candidate := range remaining {
			score := g.scorer.Score(tail, candidate).Combined
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		ordered = append(ordered, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return ordered
}
