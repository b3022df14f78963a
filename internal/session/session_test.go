package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
)

func testSong(title string, duration float64) *analysis.Song {
	return &analysis.Song{
		ID:       title + "-id",
		Title:    title,
		BPM:      120,
		Key:      analysis.Key{PitchClass: 0, Mode: analysis.KeyModeMajor},
		Duration: duration,
		Energy:   0.2,
	}
}

func TestCreateSegmentValidation(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		end     float64
		wantErr bool
	}{
		{name: "valid range", start: 10, end: 40, wantErr: false},
		{name: "full song", start: 0, end: 180, wantErr: false},
		{name: "negative start", start: -1, end: 30, wantErr: true},
		{name: "zero length", start: 30, end: 30, wantErr: true},
		{name: "inverted", start: 40, end: 10, wantErr: true},
		{name: "past song end", start: 100, end: 181, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil)
			song := testSong("a", 180)
			s.AddSong(song)

			_, err := s.CreateSegment(song.ID, tt.start, tt.end)
			if tt.wantErr {
				var rangeErr *InvalidRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected *InvalidRangeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateSegmentUnknownSong(t *testing.T) {
	s := New(nil)

	_, err := s.CreateSegment("missing", 0, 10)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "song", notFound.Kind)
}

func TestSegmentsKeepInsertionOrder(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	first, err := s.CreateSegment(song.ID, 0, 20)
	require.NoError(t, err)
	second, err := s.CreateSegment(song.ID, 50, 70)
	require.NoError(t, err)
	third, err := s.CreateSegment(song.ID, 20, 40)
	require.NoError(t, err)

	require.NoError(t, s.RemoveSegment(second.ID))

	got := s.Segments(song.ID)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, third.ID, got[1].ID)
}

func TestUpdateEffectsPartialMerge(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	seg, err := s.CreateSegment(song.ID, 0, 30)
	require.NoError(t, err)

	pitch := 3.0
	updated, err := s.UpdateEffects(seg.ID, EffectUpdate{PitchSemitones: &pitch})
	require.NoError(t, err)

	assert.Equal(t, 3.0, updated.Effects.PitchSemitones)
	// Untouched fields keep their defaults.
	assert.Equal(t, -1.94, updated.Effects.VolumeDB)
	assert.Equal(t, 0.5, updated.Effects.CrossfadeIn)
}

func TestUpdateEffectsVolumeInDecibels(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	seg, err := s.CreateSegment(song.ID, 0, 30)
	require.NoError(t, err)

	// Zero is unity gain, not silence, and deep attenuation is allowed.
	for _, db := range []float64{0, -30, 6} {
		updated, uerr := s.UpdateEffects(seg.ID, EffectUpdate{VolumeDB: &db})
		require.NoError(t, uerr)
		assert.Equal(t, db, updated.Effects.VolumeDB)
	}

	boost := 6.1
	_, err = s.UpdateEffects(seg.ID, EffectUpdate{VolumeDB: &boost})
	var effectErr *InvalidEffectError
	require.ErrorAs(t, err, &effectErr)
	assert.Equal(t, "volume_db", effectErr.Field)
}

func TestUpdateEffectsAllOrNothing(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	seg, err := s.CreateSegment(song.ID, 0, 30)
	require.NoError(t, err)

	volume := 3.0
	pitch := 99.0 // out of range
	_, err = s.UpdateEffects(seg.ID, EffectUpdate{VolumeDB: &volume, PitchSemitones: &pitch})

	var effectErr *InvalidEffectError
	require.ErrorAs(t, err, &effectErr)
	assert.Equal(t, "pitch_semitones", effectErr.Field)

	// The valid field must not have been applied either.
	current, err := s.Segment(seg.ID)
	require.NoError(t, err)
	assert.Equal(t, -1.94, current.Effects.VolumeDB)
	assert.Equal(t, 0.0, current.Effects.PitchSemitones)
}

func TestRemoveSongCascades(t *testing.T) {
	s := New(nil)
	songA := testSong("a", 180)
	songB := testSong("b", 120)
	s.AddSong(songA)
	s.AddSong(songB)

	_, err := s.CreateSegment(songA.ID, 0, 30)
	require.NoError(t, err)
	segB, err := s.CreateSegment(songB.ID, 0, 30)
	require.NoError(t, err)

	require.NoError(t, s.RemoveSong(songA.ID))

	remaining := s.Segments("")
	require.Len(t, remaining, 1)
	assert.Equal(t, segB.ID, remaining[0].ID)
}

func TestDisallowOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisallowOverlap = true
	s := New(cfg)
	song := testSong("a", 180)
	s.AddSong(song)

	_, err := s.CreateSegment(song.ID, 10, 40)
	require.NoError(t, err)

	_, err = s.CreateSegment(song.ID, 30, 60)
	var rangeErr *InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)

	// Adjacent ranges share only the boundary and are fine.
	_, err = s.CreateSegment(song.ID, 40, 60)
	require.NoError(t, err)
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	seg, err := s.CreateSegment(song.ID, 0, 30)
	require.NoError(t, err)

	snap := s.Snapshot()

	// Mutations after the snapshot must not show up in it.
	volume := 1.2
	_, err = s.UpdateEffects(seg.ID, EffectUpdate{VolumeDB: &volume})
	require.NoError(t, err)
	require.NoError(t, s.RemoveSegment(seg.ID))

	require.Len(t, snap.Order, 1)
	assert.Equal(t, -1.94, snap.Segments[seg.ID].Effects.VolumeDB)
}

func TestSegmentYAMLRoundTrip(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	segA, err := s.CreateSegment(song.ID, 0, 30)
	require.NoError(t, err)
	segB, err := s.CreateSegment(song.ID, 60, 90)
	require.NoError(t, err)

	pitch := -2.0
	_, err = s.UpdateEffects(segA.ID, EffectUpdate{PitchSemitones: &pitch})
	require.NoError(t, err)

	data, err := s.ExportSegments()
	require.NoError(t, err)

	restored := New(nil)
	restored.AddSong(song)
	require.NoError(t, restored.ImportSegments(data))

	got := restored.Segments("")
	require.Len(t, got, 2)
	assert.Equal(t, segA.ID, got[0].ID)
	assert.Equal(t, -2.0, got[0].Effects.PitchSemitones)
	assert.Equal(t, segB.ID, got[1].ID)
}

func TestStoreRoundTrip(t *testing.T) {
	s := New(nil)
	song := testSong("a", 180)
	s.AddSong(song)

	seg, err := s.CreateSegment(song.ID, 15, 45)
	require.NoError(t, err)

	store, err := OpenStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(s.Snapshot()))

	restored, err := store.Load(nil)
	require.NoError(t, err)

	songs := restored.Songs()
	require.Len(t, songs, 1)
	assert.Equal(t, song.ID, songs[0].ID)
	assert.Equal(t, song.BPM, songs[0].BPM)
	assert.Equal(t, song.Key, songs[0].Key)

	got := restored.Segments("")
	require.Len(t, got, 1)
	assert.Equal(t, seg.ID, got[0].ID)
	assert.Equal(t, 15.0, got[0].Start)
	assert.Equal(t, 45.0, got[0].End)
}

func TestStoreSaveUsesSnapshotSongOrder(t *testing.T) {
	s := New(nil)
	songA := testSong("a", 180)
	songB := testSong("b", 120)
	songC := testSong("c", 200)
	s.AddSong(songA)
	s.AddSong(songB)
	s.AddSong(songC)

	snap := s.Snapshot()

	// Edits between taking the snapshot and saving it must not shift
	// the persisted positions.
	require.NoError(t, s.RemoveSong(songA.ID))
	s.AddSong(testSong("d", 90))

	store, err := OpenStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(snap))

	restored, err := store.Load(nil)
	require.NoError(t, err)

	songs := restored.Songs()
	require.Len(t, songs, 3)
	assert.Equal(t, songA.ID, songs[0].ID)
	assert.Equal(t, songB.ID, songs[1].ID)
	assert.Equal(t, songC.ID, songs[2].ID)
}
