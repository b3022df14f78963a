package session

import (
	"time"
)

// EQSettings holds the per-band EQ gains of a segment in dB.
type EQSettings struct {
	LowDB  float64 `json:"low_db" yaml:"low_db"`
	MidDB  float64 `json:"mid_db" yaml:"mid_db"`
	HighDB float64 `json:"high_db" yaml:"high_db"`
}

// EffectParams holds the user-controlled transform parameters of a
// segment. Zero volume, zero pitch, and flat EQ mean the audio passes
// through untouched; VolumeDB is a gain in decibels.
type EffectParams struct {
	VolumeDB       float64    `json:"volume_db" yaml:"volume_db"`
	PitchSemitones float64    `json:"pitch_semitones" yaml:"pitch_semitones"`
	EQ             EQSettings `json:"eq" yaml:"eq"`
	CrossfadeIn    float64    `json:"crossfade_in" yaml:"crossfade_in"`
	CrossfadeOut   float64    `json:"crossfade_out" yaml:"crossfade_out"`
}

// DefaultEffectParams returns the parameters a new segment starts with.
func DefaultEffectParams() EffectParams {
	return EffectParams{
		// About 0.8 linear, so the mix retains headroom before the
		// final normalization.
		VolumeDB:     -1.94,
		CrossfadeIn:  0.5,
		CrossfadeOut: 0.5,
	}
}

// EffectUpdate is a partial update of EffectParams. Nil fields keep
// their current values.
type EffectUpdate struct {
	VolumeDB       *float64 `json:"volume_db,omitempty"`
	PitchSemitones *float64 `json:"pitch_semitones,omitempty"`
	EQLowDB        *float64 `json:"eq_low_db,omitempty"`
	EQMidDB        *float64 `json:"eq_mid_db,omitempty"`
	EQHighDB       *float64 `json:"eq_high_db,omitempty"`
	CrossfadeIn    *float64 `json:"crossfade_in,omitempty"`
	CrossfadeOut   *float64 `json:"crossfade_out,omitempty"`
}

// Segment is a user-selected time range of a song plus its effect
// parameters. Start and End are seconds from the beginning of the
// song; the range is half-open [Start, End).
type Segment struct {
	ID        string       `json:"id" yaml:"id"`
	SongID    string       `json:"song_id" yaml:"song_id"`
	Start     float64      `json:"start" yaml:"start"`
	End       float64      `json:"end" yaml:"end"`
	Effects   EffectParams `json:"effects" yaml:"effects"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
}

// Duration returns the segment length in seconds.
func (s *Segment) Duration() float64 {
	return s.End - s.Start
}

// clone returns a copy safe to hand outside the lock.
func (s *Segment) clone() *Segment {
	c := *s
	return &c
}

// Timeline is an ordered sequence of segment IDs to assemble. A
// segment may appear at most once.
type Timeline struct {
	SegmentIDs []string `json:"segment_ids" yaml:"segment_ids"`
}
