package session

import "fmt"

// InvalidRangeError reports segment bounds or effect parameters that
// fall outside what the owning song allows.
type InvalidRangeError struct {
	SongID  string  `json:"song_id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Message string  `json:"message"`
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid segment range [%.3f, %.3f) for song %s: %s",
		e.Start, e.End, e.SongID, e.Message)
}

// NotFoundError reports a lookup of an unknown song or segment.
type NotFoundError struct {
	Kind string `json:"kind"` // "song" or "segment"
	ID   string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvalidEffectError reports an effect parameter outside its allowed
// range. The update that carried it is rejected as a whole.
type InvalidEffectError struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

func (e *InvalidEffectError) Error() string {
	return fmt.Sprintf("invalid effect parameter %s=%.3f: %s", e.Field, e.Value, e.Message)
}
