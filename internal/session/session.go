package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
)

// Config contains configuration for a session
type Config struct {
	// DisallowOverlap rejects segments whose ranges overlap an
	// existing segment of the same song.
	DisallowOverlap bool
	// MaxPitchSemitones bounds the pitch shift effect in both
	// directions.
	MaxPitchSemitones float64
	// MaxEQGainDB bounds each EQ band gain in both directions.
	MaxEQGainDB float64
	// MaxVolumeDB bounds the volume boost; attenuation is unbounded.
	MaxVolumeDB float64
	Logger      logging.Logger
}

// DefaultConfig returns session limits matching the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		DisallowOverlap:   false,
		MaxPitchSemitones: 12,
		MaxEQGainDB:       12,
		MaxVolumeDB:       6.0,
	}
}

// Session owns the songs and the segment table of one mashup project.
// It is the only mutable shared state in the engine; every method is
// safe for concurrent use. The session never touches waveform samples.
type Session struct {
	mu sync.Mutex

	songs     map[string]*analysis.Song
	songOrder []string

	segments     map[string]*Segment
	segmentOrder []string

	config *Config
	logger logging.Logger
}

// New creates an empty session
func New(config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Session{
		songs:    make(map[string]*analysis.Song),
		segments: make(map[string]*Segment),
		config:   config,
		logger: logger.WithFields(logging.Fields{
			"component": "session",
		}),
	}
}

// AddSong registers an analyzed song with the session.
func (s *Session) AddSong(song *analysis.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.songs[song.ID]; !exists {
		s.songOrder = append(s.songOrder, song.ID)
	}
	s.songs[song.ID] = song

	s.logger.Info("Song added to session", logging.Fields{
		"song_id":  song.ID,
		"title":    song.Title,
		"bpm":      song.BPM,
		"key":      song.Key.String(),
		"duration": song.Duration,
	})
}

// Song returns a song by ID.
func (s *Session) Song(id string) (*analysis.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, &NotFoundError{Kind: "song", ID: id}
	}
	return song, nil
}

// Songs returns all songs in insertion order.
func (s *Session) Songs() []*analysis.Song {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*analysis.Song, 0, len(s.songOrder))
	for _, id := range s.songOrder {
		out = append(out, s.songs[id])
	}
	return out
}

// RemoveSong removes a song and every segment that references it.
func (s *Session) RemoveSong(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[id]; !ok {
		return &NotFoundError{Kind: "song", ID: id}
	}

	delete(s.songs, id)
	s.songOrder = removeString(s.songOrder, id)

	removed := 0
	for segID, seg := range s.segments {
		if seg.SongID == id {
			delete(s.segments, segID)
			s.segmentOrder = removeString(s.segmentOrder, segID)
			removed++
		}
	}

	s.logger.Info("Song removed from session", logging.Fields{
		"song_id":          id,
		"segments_removed": removed,
	})
	return nil
}

// CreateSegment adds a segment over [start, end) of a song with
// default effect parameters. Bounds outside the song duration return
// an *InvalidRangeError.
func (s *Session) CreateSegment(songID string, start, end float64) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[songID]
	if !ok {
		return nil, &NotFoundError{Kind: "song", ID: songID}
	}

	if err := s.validateRange(song, start, end); err != nil {
		return nil, err
	}

	seg := &Segment{
		ID:        uuid.NewString(),
		SongID:    songID,
		Start:     start,
		End:       end,
		Effects:   DefaultEffectParams(),
		CreatedAt: time.Now().UTC(),
	}
	s.segments[seg.ID] = seg
	s.segmentOrder = append(s.segmentOrder, seg.ID)

	s.logger.Debug("Segment created", logging.Fields{
		"segment_id": seg.ID,
		"song_id":    songID,
		"start":      start,
		"end":        end,
	})

	return seg.clone(), nil
}

// validateRange checks segment bounds against the song. Callers hold
// the lock.
func (s *Session) validateRange(song *analysis.Song, start, end float64) error {
	if start < 0 {
		return &InvalidRangeError{SongID: song.ID, Start: start, End: end,
			Message: "start must not be negative"}
	}
	if end <= start {
		return &InvalidRangeError{SongID: song.ID, Start: start, End: end,
			Message: "end must be greater than start"}
	}
	if end > song.Duration {
		return &InvalidRangeError{SongID: song.ID, Start: start, End: end,
			Message: "end exceeds song duration"}
	}

	if s.config.DisallowOverlap {
		for _, id := range s.segmentOrder {
			other := s.segments[id]
			if other.SongID != song.ID {
				continue
			}
			if start < other.End && other.Start < end {
				return &InvalidRangeError{SongID: song.ID, Start: start, End: end,
					Message: "range overlaps segment " + other.ID}
			}
		}
	}

	return nil
}

// Segment returns a copy of a segment by ID.
func (s *Session) Segment(id string) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[id]
	if !ok {
		return nil, &NotFoundError{Kind: "segment", ID: id}
	}
	return seg.clone(), nil
}

// Segments returns copies of all segments in insertion order. With a
// non-empty songID only that song's segments are returned.
func (s *Session) Segments(songID string) []*Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Segment
	for _, id := range s.segmentOrder {
		seg := s.segments[id]
		if songID != "" && seg.SongID != songID {
			continue
		}
		out = append(out, seg.clone())
	}
	return out
}

// UpdateEffects applies a partial effect update to a segment. The
// update is all-or-nothing: any out-of-range field rejects the whole
// update and leaves the segment untouched.
func (s *Session) UpdateEffects(segmentID string, update EffectUpdate) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[segmentID]
	if !ok {
		return nil, &NotFoundError{Kind: "segment", ID: segmentID}
	}

	merged := seg.Effects
	if update.VolumeDB != nil {
		merged.VolumeDB = *update.VolumeDB
	}
	if update.PitchSemitones != nil {
		merged.PitchSemitones = *update.PitchSemitones
	}
	if update.EQLowDB != nil {
		merged.EQ.LowDB = *update.EQLowDB
	}
	if update.EQMidDB != nil {
		merged.EQ.MidDB = *update.EQMidDB
	}
	if update.EQHighDB != nil {
		merged.EQ.HighDB = *update.EQHighDB
	}
	if update.CrossfadeIn != nil {
		merged.CrossfadeIn = *update.CrossfadeIn
	}
	if update.CrossfadeOut != nil {
		merged.CrossfadeOut = *update.CrossfadeOut
	}

	if err := s.validateEffects(merged); err != nil {
		return nil, err
	}

	seg.Effects = merged

	s.logger.Debug("Segment effects updated", logging.Fields{
		"segment_id": segmentID,
		"volume_db":  merged.VolumeDB,
		"pitch":      merged.PitchSemitones,
	})

	return seg.clone(), nil
}

// validateEffects checks a fully merged parameter set.
func (s *Session) validateEffects(p EffectParams) error {
	if p.VolumeDB > s.config.MaxVolumeDB {
		return &InvalidEffectError{Field: "volume_db", Value: p.VolumeDB,
			Message: "exceeds the configured maximum boost"}
	}
	if p.PitchSemitones < -s.config.MaxPitchSemitones || p.PitchSemitones > s.config.MaxPitchSemitones {
		return &InvalidEffectError{Field: "pitch_semitones", Value: p.PitchSemitones,
			Message: "outside the supported shift range"}
	}
	for _, band := range []struct {
		name string
		gain float64
	}{
		{"eq_low_db", p.EQ.LowDB},
		{"eq_mid_db", p.EQ.MidDB},
		{"eq_high_db", p.EQ.HighDB},
	} {
		if band.gain < -s.config.MaxEQGainDB || band.gain > s.config.MaxEQGainDB {
			return &InvalidEffectError{Field: band.name, Value: band.gain,
				Message: "outside the supported EQ gain range"}
		}
	}
	if p.CrossfadeIn < 0 {
		return &InvalidEffectError{Field: "crossfade_in", Value: p.CrossfadeIn,
			Message: "must not be negative"}
	}
	if p.CrossfadeOut < 0 {
		return &InvalidEffectError{Field: "crossfade_out", Value: p.CrossfadeOut,
			Message: "must not be negative"}
	}
	return nil
}

// RemoveSegment deletes a segment.
func (s *Session) RemoveSegment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.segments[id]; !ok {
		return &NotFoundError{Kind: "segment", ID: id}
	}
	delete(s.segments, id)
	s.segmentOrder = removeString(s.segmentOrder, id)

	s.logger.Debug("Segment removed", logging.Fields{"segment_id": id})
	return nil
}

// Snapshot is an immutable view of the session for rendering and
// persistence. Segments are copies; songs are shared but never mutated
// after analysis. SongOrder and Order record insertion order for songs
// and segments, captured under the same lock as the maps.
type Snapshot struct {
	Songs     map[string]*analysis.Song
	SongOrder []string
	Segments  map[string]*Segment
	Order     []string
}

// Snapshot captures the current session state. Renders run against the
// snapshot, so concurrent edits cannot produce a half-updated mix.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Songs:     make(map[string]*analysis.Song, len(s.songs)),
		SongOrder: make([]string, len(s.songOrder)),
		Segments:  make(map[string]*Segment, len(s.segments)),
		Order:     make([]string, len(s.segmentOrder)),
	}
	for id, song := range s.songs {
		snap.Songs[id] = song
	}
	for id, seg := range s.segments {
		snap.Segments[id] = seg.clone()
	}
	copy(snap.SongOrder, s.songOrder)
	copy(snap.Order, s.segmentOrder)
	return snap
}

func removeString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
