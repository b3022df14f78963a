package mashup

import "fmt"

// EmptyTimelineError reports a render request with nothing to
// assemble, either because the timeline was empty or because every
// segment was excluded during normalization.
type EmptyTimelineError struct {
	Reason string `json:"reason"`
}

func (e *EmptyTimelineError) Error() string {
	if e.Reason == "" {
		return "timeline is empty"
	}
	return "timeline is empty: " + e.Reason
}

// SegmentNotFoundError reports a timeline entry that does not resolve
// to a segment in the render snapshot.
type SegmentNotFoundError struct {
	SegmentID string `json:"segment_id"`
}

func (e *SegmentNotFoundError) Error() string {
	return fmt.Sprintf("timeline references unknown segment %s", e.SegmentID)
}

// DuplicateSegmentError reports a segment listed more than once in a
// timeline.
type DuplicateSegmentError struct {
	SegmentID string `json:"segment_id"`
}

func (e *DuplicateSegmentError) Error() string {
	return fmt.Sprintf("segment %s appears more than once in the timeline", e.SegmentID)
}
