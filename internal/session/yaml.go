package session

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// segmentTable is the YAML document shape for segment import/export.
type segmentTable struct {
	Segments []*Segment `yaml:"segments"`
}

// ExportSegments serializes the segment table to YAML in insertion
// order, for handing a session to another tool or checking it into a
// project directory.
func (s *Session) ExportSegments() ([]byte, error) {
	table := &segmentTable{Segments: s.Segments("")}

	data, err := yaml.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal segment table: %w", err)
	}
	return data, nil
}

// ImportSegments loads a YAML segment table into the session. Each
// segment is validated against its song; the import is all-or-nothing.
func (s *Session) ImportSegments(data []byte) error {
	var table segmentTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("failed to parse segment table: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before touching the table.
	for _, seg := range table.Segments {
		song, ok := s.songs[seg.SongID]
		if !ok {
			return &NotFoundError{Kind: "song", ID: seg.SongID}
		}
		if err := s.validateRange(song, seg.Start, seg.End); err != nil {
			return err
		}
		if err := s.validateEffects(seg.Effects); err != nil {
			return err
		}
		if seg.ID == "" {
			return fmt.Errorf("segment table entry missing id")
		}
	}

	for _, seg := range table.Segments {
		if _, exists := s.segments[seg.ID]; !exists {
			s.segmentOrder = append(s.segmentOrder, seg.ID)
		}
		s.segments[seg.ID] = seg.clone()
	}

	s.logger.Info("Segment table imported", logging.Fields{
		"segments": len(table.Segments),
	})
	return nil
}
