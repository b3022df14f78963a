package mashup

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snr16/AI-mashup-generator/internal/session"
	"github.com/snr16/AI-mashup-generator/pkg/audio"
	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
	"github.com/snr16/AI-mashup-generator/pkg/audio/transform"
)

func testAssembler() *Assembler {
	engine := transform.NewEngine(&transform.EngineConfig{
		StretchWindowSize: 2048,
		EQLowFreq:         250,
		EQHighFreq:        4000,
		PeakCeiling:       0.89,
	})
	return NewAssembler(&AssemblerConfig{Transform: engine})
}

func testOptions() Options {
	return Options{
		SampleRate:  44100,
		Channels:    1,
		PeakCeiling: 0.89,
	}
}

func toneSong(title string, freq float64, seconds float64, bpm float64) *analysis.Song {
	w := audio.NewWaveform(1, int(seconds*44100), 44100)
	for i := range w.Samples[0] {
		w.Samples[0][i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/44100)
	}
	return &analysis.Song{
		ID:       title + "-id",
		Title:    title,
		Waveform: w,
		BPM:      bpm,
		Key:      analysis.Key{PitchClass: 0, Mode: analysis.KeyModeMajor},
		Duration: seconds,
		Energy:   0.35,
	}
}

// buildSession wires songs and segments, returning the session plus
// segment IDs in creation order.
func buildSession(t *testing.T, songs []*analysis.Song, ranges [][2]float64) (*session.Session, []string) {
	t.Helper()
	s := session.New(nil)
	var ids []string
	for i, song := range songs {
		s.AddSong(song)
		seg, err := s.CreateSegment(song.ID, ranges[i][0], ranges[i][1])
		require.NoError(t, err)
		ids = append(ids, seg.ID)
	}
	return s, ids
}

func TestRenderEmptyTimeline(t *testing.T) {
	a := testAssembler()
	s := session.New(nil)

	_, err := a.Render(context.Background(), s.Snapshot(), session.Timeline{}, testOptions())

	var emptyErr *EmptyTimelineError
	require.ErrorAs(t, err, &emptyErr)
}

func TestRenderUnknownSegment(t *testing.T) {
	a := testAssembler()
	s := session.New(nil)

	timeline := session.Timeline{SegmentIDs: []string{"ghost"}}
	_, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())

	var notFound *SegmentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.SegmentID)
}

func TestRenderDuplicateSegmentRejected(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 30, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 10}})

	timeline := session.Timeline{SegmentIDs: []string{ids[0], ids[0]}}
	_, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())

	var dupErr *DuplicateSegmentError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, ids[0], dupErr.SegmentID)
}

func TestRenderCrossfadeDuration(t *testing.T) {
	a := testAssembler()
	songA := toneSong("a", 440, 12, 120)
	songB := toneSong("b", 330, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{songA, songB},
		[][2]float64{{0, 10}, {0, 10}})

	// Both junction edges request 2 seconds.
	fade := 2.0
	_, err := s.UpdateEffects(ids[0], session.EffectUpdate{CrossfadeOut: &fade})
	require.NoError(t, err)
	_, err = s.UpdateEffects(ids[1], session.EffectUpdate{CrossfadeIn: &fade})
	require.NoError(t, err)

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)

	// Output duration is durA + durB - overlap, within one sample.
	wantSamples := 10*44100 + 10*44100 - 2*44100
	assert.InDelta(t, wantSamples, result.Waveform.Len(), 1)

	require.Len(t, result.Manifest.Entries, 2)
	assert.InDelta(t, 2.0, result.Manifest.Entries[0].FadeOut, 1e-6)
	assert.InDelta(t, 2.0, result.Manifest.Entries[1].FadeIn, 1e-6)
	assert.False(t, result.Manifest.Entries[0].FadeClamped)
}

func TestRenderClampsOversizedCrossfade(t *testing.T) {
	a := testAssembler()
	songA := toneSong("a", 440, 12, 120)
	songB := toneSong("b", 330, 12, 120)
	// Second segment is only one second long.
	s, ids := buildSession(t, []*analysis.Song{songA, songB},
		[][2]float64{{0, 10}, {0, 1}})

	fade := 3.0
	_, err := s.UpdateEffects(ids[0], session.EffectUpdate{CrossfadeOut: &fade})
	require.NoError(t, err)
	_, err = s.UpdateEffects(ids[1], session.EffectUpdate{CrossfadeIn: &fade})
	require.NoError(t, err)

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)

	// The junction can use at most half the shorter segment: 0.5s.
	entry := result.Manifest.Entries[1]
	assert.LessOrEqual(t, entry.FadeIn, 0.5+1e-6)
	assert.True(t, entry.FadeClamped)
}

func TestRenderPeakNormalized(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 10}})

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)

	peak := result.Waveform.Peak()
	assert.InDelta(t, 0.89, peak, 0.01, "output must be normalized to the ceiling")
}

func TestRenderTempoNormalization(t *testing.T) {
	a := testAssembler()
	// Second song is slower; normalizing to the first song's 120 BPM
	// shrinks its segment by 100/120.
	songA := toneSong("a", 440, 12, 120)
	songB := toneSong("b", 330, 12, 100)
	s, ids := buildSession(t, []*analysis.Song{songA, songB},
		[][2]float64{{0, 6}, {0, 6}})

	// No crossfades, to make durations easy to verify.
	zero := 0.0
	for _, id := range ids {
		_, err := s.UpdateEffects(id, session.EffectUpdate{CrossfadeIn: &zero, CrossfadeOut: &zero})
		require.NoError(t, err)
	}

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)

	require.Len(t, result.Manifest.Entries, 2)
	assert.InDelta(t, 1.0, result.Manifest.Entries[0].StretchRatio, 1e-9)
	assert.InDelta(t, 100.0/120.0, result.Manifest.Entries[1].StretchRatio, 1e-9)

	wantSeconds := 6 + 6*100.0/120.0
	assert.InDelta(t, wantSeconds, result.Waveform.Seconds(), 0.05)
}

func TestRenderExcludesImpossibleStretch(t *testing.T) {
	a := testAssembler()
	// 40 BPM against a 220 BPM target needs ratio 0.18: impossible.
	songA := toneSong("a", 440, 12, 220)
	songB := toneSong("b", 330, 12, 40)
	s, ids := buildSession(t, []*analysis.Song{songA, songB},
		[][2]float64{{0, 6}, {0, 6}})

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)

	// The render survives with the remaining segment and a warning.
	require.Len(t, result.Manifest.Entries, 1)
	assert.Equal(t, ids[0], result.Manifest.Entries[0].SegmentID)
	require.Len(t, result.Manifest.Warnings, 1)
}

func TestRenderAllExcludedIsEmptyTimeline(t *testing.T) {
	a := testAssembler()
	songB := toneSong("b", 330, 12, 40)
	s, ids := buildSession(t, []*analysis.Song{songB}, [][2]float64{{0, 6}})

	opts := testOptions()
	opts.TargetBPM = 220

	timeline := session.Timeline{SegmentIDs: ids}
	_, err := a.Render(context.Background(), s.Snapshot(), timeline, opts)

	var emptyErr *EmptyTimelineError
	require.ErrorAs(t, err, &emptyErr)
}

func TestRenderSnapshotConsistency(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 10}})

	snap := s.Snapshot()

	// Concurrent edits after the snapshot must not affect the render.
	require.NoError(t, s.RemoveSegment(ids[0]))

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), snap, timeline, testOptions())
	require.NoError(t, err)
	require.Len(t, result.Manifest.Entries, 1)
}

func TestRenderCancellation(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 10}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	timeline := session.Timeline{SegmentIDs: ids}
	_, err := a.Render(ctx, s.Snapshot(), timeline, testOptions())
	require.Error(t, err)
}

func TestPreviewSingleSegment(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{2, 8}})

	result, err := a.Preview(context.Background(), s.Snapshot(), ids[0], testOptions())
	require.NoError(t, err)

	assert.InDelta(t, 6.0, result.Waveform.Seconds(), 0.01)
	require.Len(t, result.Manifest.Entries, 1)
}

// rmsWindow measures signal level over [from, to) of the first channel.
func rmsWindow(w *audio.Waveform, from, to int) float64 {
	var sum float64
	for i := from; i < to; i++ {
		sum += w.Samples[0][i] * w.Samples[0][i]
	}
	return math.Sqrt(sum / float64(to-from))
}

func TestPreviewAppliesEdgeFades(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 10}})

	fade := 2.0
	_, err := s.UpdateEffects(ids[0], session.EffectUpdate{CrossfadeIn: &fade, CrossfadeOut: &fade})
	require.NoError(t, err)

	result, err := a.Preview(context.Background(), s.Snapshot(), ids[0], testOptions())
	require.NoError(t, err)

	require.Len(t, result.Manifest.Entries, 1)
	entry := result.Manifest.Entries[0]
	assert.InDelta(t, 2.0, entry.FadeIn, 1e-6)
	assert.InDelta(t, 2.0, entry.FadeOut, 1e-6)

	// Inside the fade ramps the level must be well below the steady
	// middle of the segment.
	w := result.Waveform
	rate := w.SampleRate
	head := rmsWindow(w, 0, rate/2)
	tail := rmsWindow(w, w.Len()-rate/2, w.Len())
	mid := rmsWindow(w, 5*rate, 5*rate+rate/2)

	assert.Less(t, head, 0.5*mid)
	assert.Less(t, tail, 0.5*mid)
}

func TestPreviewClampsOversizedFades(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 1}})

	fade := 3.0
	_, err := s.UpdateEffects(ids[0], session.EffectUpdate{CrossfadeIn: &fade, CrossfadeOut: &fade})
	require.NoError(t, err)

	result, err := a.Preview(context.Background(), s.Snapshot(), ids[0], testOptions())
	require.NoError(t, err)

	entry := result.Manifest.Entries[0]
	assert.LessOrEqual(t, entry.FadeIn, 0.5+1e-6)
	assert.LessOrEqual(t, entry.FadeOut, 0.5+1e-6)
	assert.True(t, entry.FadeClamped)
}

func TestRenderVolumeGainInDecibels(t *testing.T) {
	a := testAssembler()
	song := toneSong("a", 440, 12, 120)
	s, ids := buildSession(t, []*analysis.Song{song}, [][2]float64{{0, 10}})

	// Zero dB must pass through as unity gain, not a silence floor.
	zero := 0.0
	_, err := s.UpdateEffects(ids[0], session.EffectUpdate{VolumeDB: &zero})
	require.NoError(t, err)

	timeline := session.Timeline{SegmentIDs: ids}
	result, err := a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)

	require.Len(t, result.Manifest.Entries, 1)
	assert.Equal(t, 0.0, result.Manifest.Entries[0].Params.GainDB)

	// A set attenuation lands in the transform parameters unchanged.
	cut := -6.0
	_, err = s.UpdateEffects(ids[0], session.EffectUpdate{VolumeDB: &cut})
	require.NoError(t, err)

	result, err = a.Render(context.Background(), s.Snapshot(), timeline, testOptions())
	require.NoError(t, err)
	assert.Equal(t, -6.0, result.Manifest.Entries[0].Params.GainDB)
}
