package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
)

// Store persists session metadata (songs and segments, not waveforms)
// to a SQLite database so a project can be reopened later.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates a session database at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS songs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		bpm REAL NOT NULL,
		key_pitch_class INTEGER NOT NULL,
		key_mode INTEGER NOT NULL,
		tempo_confidence REAL NOT NULL,
		key_confidence REAL NOT NULL,
		low_confidence BOOLEAN NOT NULL,
		energy REAL NOT NULL,
		duration REAL NOT NULL,
		position INTEGER NOT NULL,
		analyzed_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS segments (
		id TEXT PRIMARY KEY,
		song_id TEXT NOT NULL REFERENCES songs(id),
		start_sec REAL NOT NULL,
		end_sec REAL NOT NULL,
		volume_db REAL NOT NULL,
		pitch_semitones REAL NOT NULL,
		eq_low_db REAL NOT NULL,
		eq_mid_db REAL NOT NULL,
		eq_high_db REAL NOT NULL,
		crossfade_in REAL NOT NULL,
		crossfade_out REAL NOT NULL,
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (st *Store) Close() error {
	return st.db.Close()
}

// Save replaces the stored state with a session snapshot. Taking the
// snapshot as the argument keeps the write atomic with respect to
// concurrent session edits.
func (st *Store) Save(snap *Snapshot) error {
	tx, err := st.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM segments"); err != nil {
		return fmt.Errorf("failed to clear segments: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM songs"); err != nil {
		return fmt.Errorf("failed to clear songs: %w", err)
	}

	// Positions come from the snapshot's own order: songs removed since
	// the snapshot still save, songs added since do not.
	for i, id := range snap.SongOrder {
		song := snap.Songs[id]
		_, err := tx.Exec(`INSERT INTO songs
			(id, title, source_path, bpm, key_pitch_class, key_mode, tempo_confidence,
			 key_confidence, low_confidence, energy, duration, position, analyzed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, song.Title, song.SourcePath, song.BPM, song.Key.PitchClass, int(song.Key.Mode),
			song.TempoConfidence, song.KeyConfidence, song.LowConfidence,
			song.Energy, song.Duration, i, song.AnalyzedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to store song %s: %w", id, err)
		}
	}

	for i, id := range snap.Order {
		seg := snap.Segments[id]
		_, err := tx.Exec(`INSERT INTO segments
			(id, song_id, start_sec, end_sec, volume_db, pitch_semitones,
			 eq_low_db, eq_mid_db, eq_high_db, crossfade_in, crossfade_out,
			 position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seg.ID, seg.SongID, seg.Start, seg.End,
			seg.Effects.VolumeDB, seg.Effects.PitchSemitones,
			seg.Effects.EQ.LowDB, seg.Effects.EQ.MidDB, seg.Effects.EQ.HighDB,
			seg.Effects.CrossfadeIn, seg.Effects.CrossfadeOut,
			i, seg.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to store segment %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Load restores songs and segments into a fresh session. Waveform
// data is left nil on the restored songs.
func (st *Store) Load(config *Config) (*Session, error) {
	s := New(config)

	songRows, err := st.db.Query(`SELECT id, title, source_path, bpm, key_pitch_class, key_mode,
		tempo_confidence, key_confidence, low_confidence, energy, duration, analyzed_at
		FROM songs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}
	defer songRows.Close()

	for songRows.Next() {
		song := &analysis.Song{}
		var mode int
		var analyzedAt int64
		if err := songRows.Scan(&song.ID, &song.Title, &song.SourcePath, &song.BPM,
			&song.Key.PitchClass, &mode, &song.TempoConfidence,
			&song.KeyConfidence, &song.LowConfidence, &song.Energy,
			&song.Duration, &analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		song.Key.Mode = analysis.KeyMode(mode)
		song.AnalyzedAt = time.Unix(analyzedAt, 0).UTC()
		s.AddSong(song)
	}
	if err := songRows.Err(); err != nil {
		return nil, fmt.Errorf("song iteration failed: %w", err)
	}

	segRows, err := st.db.Query(`SELECT id, song_id, start_sec, end_sec, volume_db,
		pitch_semitones, eq_low_db, eq_mid_db, eq_high_db,
		crossfade_in, crossfade_out, created_at
		FROM segments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	defer segRows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for segRows.Next() {
		seg := &Segment{}
		var createdAt int64
		if err := segRows.Scan(&seg.ID, &seg.SongID, &seg.Start, &seg.End,
			&seg.Effects.VolumeDB, &seg.Effects.PitchSemitones,
			&seg.Effects.EQ.LowDB, &seg.Effects.EQ.MidDB, &seg.Effects.EQ.HighDB,
			&seg.Effects.CrossfadeIn, &seg.Effects.CrossfadeOut,
			&createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		seg.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.segments[seg.ID] = seg
		s.segmentOrder = append(s.segmentOrder, seg.ID)
	}
	if err := segRows.Err(); err != nil {
		return nil, fmt.Errorf("segment iteration failed: %w", err)
	}

	return s, nil
}
