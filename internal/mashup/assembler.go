package mashup

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/snr16/AI-mashup-generator/internal/session"
	"github.com/snr16/AI-mashup-generator/pkg/audio"
	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
	"github.com/snr16/AI-mashup-generator/pkg/audio/transform"
)

// Options controls one render call.
type Options struct {
	// TargetBPM is the tempo every segment is normalized to. Zero
	// derives it from the first timeline segment's song.
	TargetBPM float64
	// TargetKey is the key every segment is normalized to. Nil derives
	// it from the first timeline segment's song.
	TargetKey *analysis.Key
	// SampleRate and Channels define the output format.
	SampleRate int
	Channels   int
	// PeakCeiling is the final normalization target as a linear
	// amplitude (0.89 is about -1 dBFS).
	PeakCeiling float64
	// SkipTempoNormalization and SkipKeyNormalization leave segments at
	// their native tempo or key.
	SkipTempoNormalization bool
	SkipKeyNormalization   bool
	// MaxConcurrency bounds the parallel segment transforms. Zero
	// means unbounded.
	MaxConcurrency int
}

// AssemblerConfig contains configuration for the mashup assembler
type AssemblerConfig struct {
	Transform *transform.Engine
	Logger    logging.Logger
}

// Assembler renders a timeline of segments into one continuous
// waveform. It works exclusively over an immutable session snapshot:
// edits made while a render runs do not affect it.
type Assembler struct {
	engine *transform.Engine
	logger logging.Logger
}

// NewAssembler creates a new mashup assembler
func NewAssembler(config *AssemblerConfig) *Assembler {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Assembler{
		engine: config.Transform,
		logger: logger.WithFields(logging.Fields{
			"component": "assembler",
		}),
	}
}

// renderedSegment is one segment after slicing and transformation,
// ready for mixdown.
type renderedSegment struct {
	segment  *session.Segment
	waveform *audio.Waveform
	entry    ManifestEntry
	excluded bool
	warning  string
}

// Render assembles the timeline into a single waveform.
func (a *Assembler) Render(ctx context.Context, snap *session.Snapshot, timeline session.Timeline, opts Options) (*RenderResult, error) {
	if len(timeline.SegmentIDs) == 0 {
		return nil, &EmptyTimelineError{}
	}

	segments, err := a.resolveTimeline(snap, timeline)
	if err != nil {
		return nil, err
	}

	targetBPM, targetKey := a.resolveTargets(snap, segments, opts)

	a.logger.Info("Starting render", logging.Fields{
		"segments":    len(segments),
		"target_bpm":  targetBPM,
		"target_key":  targetKey.String(),
		"sample_rate": opts.SampleRate,
		"channels":    opts.Channels,
	})

	rendered, err := a.transformSegments(ctx, snap, segments, targetBPM, targetKey, opts)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		TargetBPM:  targetBPM,
		TargetKey:  targetKey,
		SampleRate: opts.SampleRate,
		Channels:   opts.Channels,
	}

	var usable []*renderedSegment
	for _, r := range rendered {
		if r.excluded {
			manifest.Warnings = append(manifest.Warnings, r.warning)
			continue
		}
		usable = append(usable, r)
	}
	if len(usable) == 0 {
		return nil, &EmptyTimelineError{Reason: "all segments were excluded during normalization"}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := a.mixdown(usable, manifest, opts)

	normalized, gainDB := transform.PeakNormalize(out, opts.PeakCeiling)
	manifest.NormalizationGainDB = gainDB

	a.logger.Info("Render completed", logging.Fields{
		"duration_s":    normalized.Seconds(),
		"segments_used": len(usable),
		"warnings":      len(manifest.Warnings),
		"norm_gain_db":  gainDB,
	})

	return &RenderResult{Waveform: normalized, Manifest: manifest}, nil
}

// Preview renders a single segment with its transforms and its own
// crossfade durations applied as edge fades, so an edit auditions the
// way the segment will sound at a junction.
func (a *Assembler) Preview(ctx context.Context, snap *session.Snapshot, segmentID string, opts Options) (*RenderResult, error) {
	segments, err := a.resolveTimeline(snap, session.Timeline{SegmentIDs: []string{segmentID}})
	if err != nil {
		return nil, err
	}

	targetBPM, targetKey := a.resolveTargets(snap, segments, opts)

	r, err := a.transformSegment(ctx, snap, segments[0], targetBPM, targetKey, opts)
	if err != nil {
		return nil, err
	}
	if r.excluded {
		return nil, &EmptyTimelineError{Reason: r.warning}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := r.waveform.Seconds() / 2
	fadeIn := math.Min(r.segment.Effects.CrossfadeIn, limit)
	fadeOut := math.Min(r.segment.Effects.CrossfadeOut, limit)
	if fadeIn < r.segment.Effects.CrossfadeIn || fadeOut < r.segment.Effects.CrossfadeOut {
		r.entry.FadeClamped = true
	}
	r.entry.FadeIn = fadeIn
	r.entry.FadeOut = fadeOut

	out := audio.NewWaveform(opts.Channels, r.waveform.Len(), opts.SampleRate)
	addWithFades(out, r.waveform, 0,
		int(fadeIn*float64(opts.SampleRate)), int(fadeOut*float64(opts.SampleRate)))

	manifest := &Manifest{
		TargetBPM:  targetBPM,
		TargetKey:  targetKey,
		SampleRate: opts.SampleRate,
		Channels:   opts.Channels,
		Entries:    []ManifestEntry{r.entry},
	}

	normalized, gainDB := transform.PeakNormalize(out, opts.PeakCeiling)
	manifest.NormalizationGainDB = gainDB

	a.logger.Info("Preview completed", logging.Fields{
		"segment_id": segmentID,
		"duration_s": normalized.Seconds(),
		"fade_in":    fadeIn,
		"fade_out":   fadeOut,
	})

	return &RenderResult{Waveform: normalized, Manifest: manifest}, nil
}

// resolveTimeline maps timeline IDs to snapshot segments, rejecting
// unknown or duplicate entries.
func (a *Assembler) resolveTimeline(snap *session.Snapshot, timeline session.Timeline) ([]*session.Segment, error) {
	seen := make(map[string]bool, len(timeline.SegmentIDs))
	segments := make([]*session.Segment, 0, len(timeline.SegmentIDs))

	for _, id := range timeline.SegmentIDs {
		if seen[id] {
			return nil, &DuplicateSegmentError{SegmentID: id}
		}
		seen[id] = true

		seg, ok := snap.Segments[id]
		if !ok {
			return nil, &SegmentNotFoundError{SegmentID: id}
		}
		song, ok := snap.Songs[seg.SongID]
		if !ok || song.Waveform == nil {
			return nil, &SegmentNotFoundError{SegmentID: id}
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

// resolveTargets picks the normalization tempo and key, defaulting to
// the first timeline segment's song.
func (a *Assembler) resolveTargets(snap *session.Snapshot, segments []*session.Segment, opts Options) (float64, analysis.Key) {
	first := snap.Songs[segments[0].SongID]

	targetBPM := opts.TargetBPM
	if targetBPM <= 0 {
		targetBPM = first.BPM
	}

	var targetKey analysis.Key
	if opts.TargetKey != nil {
		targetKey = *opts.TargetKey
	} else {
		targetKey = first.Key
	}

	return targetBPM, targetKey
}

// transformSegments slices and transforms every segment concurrently.
// Results keep timeline order.
func (a *Assembler) transformSegments(ctx context.Context, snap *session.Snapshot, segments []*session.Segment, targetBPM float64, targetKey analysis.Key, opts Options) ([]*renderedSegment, error) {
	rendered := make([]*renderedSegment, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}

	for i, seg := range segments {
		g.Go(func() error {
			r, err := a.transformSegment(gctx, snap, seg, targetBPM, targetKey, opts)
			if err != nil {
				return err
			}
			rendered[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rendered, nil
}

// transformSegment prepares one segment: slice, conform to the output
// format, normalize tempo and key, apply user effects.
func (a *Assembler) transformSegment(ctx context.Context, snap *session.Snapshot, seg *session.Segment, targetBPM float64, targetKey analysis.Key, opts Options) (*renderedSegment, error) {
	song := snap.Songs[seg.SongID]

	w := song.Waveform.Slice(seg.Start, seg.End)
	if w.SampleRate != opts.SampleRate {
		w = audio.Resample(w, opts.SampleRate)
	}
	if w.Channels != opts.Channels {
		w = audio.Remix(w, opts.Channels)
	}

	stretchRatio := 1.0
	if !opts.SkipTempoNormalization && song.BPM > 0 && targetBPM > 0 {
		stretchRatio = song.BPM / targetBPM
	}

	if stretchRatio != 1.0 {
		stretched, err := a.engine.Stretch(ctx, w, stretchRatio)
		if err != nil {
			var ratioErr *transform.StretchRatioError
			if errors.As(err, &ratioErr) {
				// Local containment: drop the segment, keep the render.
				a.logger.Warn("Segment excluded: stretch ratio out of range", logging.Fields{
					"segment_id": seg.ID,
					"ratio":      stretchRatio,
				})
				return &renderedSegment{
					segment:  seg,
					excluded: true,
					warning: fmt.Sprintf("segment %s excluded: tempo normalization needs ratio %.3f",
						seg.ID, stretchRatio),
				}, nil
			}
			return nil, err
		}
		w = stretched
	}

	keyShift := 0.0
	if !opts.SkipKeyNormalization {
		keyShift = float64(semitoneDelta(song.Key, targetKey))
	}

	params := transform.Params{
		GainDB:         seg.Effects.VolumeDB,
		PitchSemitones: seg.Effects.PitchSemitones + keyShift,
		EQ: transform.EQParams{
			LowDB:  seg.Effects.EQ.LowDB,
			MidDB:  seg.Effects.EQ.MidDB,
			HighDB: seg.Effects.EQ.HighDB,
		},
	}

	transformed, report, err := a.engine.Apply(ctx, w, params)
	if err != nil {
		return nil, fmt.Errorf("transform failed for segment %s: %w", seg.ID, err)
	}

	return &renderedSegment{
		segment:  seg,
		waveform: transformed,
		entry: ManifestEntry{
			SegmentID:    seg.ID,
			SongID:       seg.SongID,
			Duration:     transformed.Seconds(),
			Params:       params,
			StretchRatio: stretchRatio,
			GainClamped:  report.GainClamped,
		},
	}, nil
}

// mixdown lays the rendered segments onto a single canvas with
// equal-power crossfades at every junction.
func (a *Assembler) mixdown(rendered []*renderedSegment, manifest *Manifest, opts Options) *audio.Waveform {
	n := len(rendered)
	sampleRate := opts.SampleRate

	// Junction overlaps: the outgoing segment's fade-out meets the
	// incoming segment's fade-in; the effective overlap is the smaller
	// request, clamped to half of each rendered segment.
	overlaps := make([]int, n) // overlaps[i]: junction before segment i
	for i := 1; i < n; i++ {
		prev := rendered[i-1]
		cur := rendered[i]

		requested := math.Min(prev.segment.Effects.CrossfadeOut, cur.segment.Effects.CrossfadeIn)
		limit := math.Min(prev.waveform.Seconds()/2, cur.waveform.Seconds()/2)
		effective := math.Min(requested, limit)
		if effective < 0 {
			effective = 0
		}

		if effective < requested {
			prev.entry.FadeClamped = true
			cur.entry.FadeClamped = true
		}
		overlaps[i] = int(effective * float64(sampleRate))

		prev.entry.FadeOut = effective
		cur.entry.FadeIn = effective
	}

	// Segment offsets and total length.
	offsets := make([]int, n)
	total := 0
	for i, r := range rendered {
		if i == 0 {
			offsets[i] = 0
		} else {
			offsets[i] = offsets[i-1] + rendered[i-1].waveform.Len() - overlaps[i]
		}
		if end := offsets[i] + r.waveform.Len(); end > total {
			total = end
		}
	}

	out := audio.NewWaveform(opts.Channels, total, sampleRate)

	for i, r := range rendered {
		fadeIn := overlaps[i]
		fadeOut := 0
		if i+1 < n {
			fadeOut = overlaps[i+1]
		}
		addWithFades(out, r.waveform, offsets[i], fadeIn, fadeOut)

		r.entry.StartOffset = float64(offsets[i]) / float64(sampleRate)
		manifest.Entries = append(manifest.Entries, r.entry)
	}

	return out
}

// addWithFades overlays a segment onto the canvas applying equal-power
// (sine/cosine) edge envelopes. Where two faded edges overlap the
// summed power stays constant.
func addWithFades(canvas, seg *audio.Waveform, offset, fadeIn, fadeOut int) {
	length := seg.Len()

	for c := 0; c < canvas.Channels; c++ {
		src := seg.Samples[c%len(seg.Samples)]
		dst := canvas.Samples[c]

		for i := 0; i < length; i++ {
			pos := offset + i
			if pos < 0 || pos >= len(dst) {
				continue
			}

			gain := 1.0
			if fadeIn > 0 && i < fadeIn {
				gain *= math.Sin(float64(i) / float64(fadeIn) * math.Pi / 2)
			}
			if fadeOut > 0 && i >= length-fadeOut {
				gain *= math.Cos(float64(i-(length-fadeOut)) / float64(fadeOut) * math.Pi / 2)
			}

			dst[pos] += src[i] * gain
		}
	}
}

// semitoneDelta returns the smallest signed pitch-class shift that
// moves key a onto key b, in [-6, 6].
func semitoneDelta(a, b analysis.Key) int {
	from := a.RelativeMajor().PitchClass
	to := b.RelativeMajor().PitchClass
	delta := ((to-from)%12 + 12) % 12
	if delta > 6 {
		delta -= 12
	}
	return delta
}
