package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/snr16/AI-mashup-generator/internal/session"
)

var (
	// Segment update flags
	segmentVolume  float64
	segmentPitch   float64
	segmentEQLow   float64
	segmentEQMid   float64
	segmentEQHigh  float64
	segmentFadeIn  float64
	segmentFadeOut float64

	// Segment list flags
	segmentSongFilter string
)

// segmentsCmd groups the segment table operations
var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Manage the session's segment table",
	Long: `Create, edit, list, and exchange segments.

A segment is a time range within an analyzed song plus its effect
settings (volume, pitch shift, three-band EQ, crossfades). Segments
keep their creation order; that order is the default render timeline.`,
}

var segmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List segments in creation order",
	RunE:  runSegmentsList,
}

var segmentsAddCmd = &cobra.Command{
	Use:   "add <song-id> <start-seconds> <end-seconds>",
	Short: "Create a segment within a song",
	Args:  cobra.ExactArgs(3),
	RunE:  runSegmentsAdd,
}

var segmentsUpdateCmd = &cobra.Command{
	Use:   "update <segment-id>",
	Short: "Update a segment's effect settings",
	Long: `Update effect settings on an existing segment. Only the flags you
pass change; everything else keeps its current value. If any value is
out of range the whole update is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runSegmentsUpdate,
}

var segmentsRemoveCmd = &cobra.Command{
	Use:   "remove <segment-id>",
	Short: "Remove a segment",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegmentsRemove,
}

var segmentsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the segment table as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegmentsExport,
}

var segmentsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML segment table",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegmentsImport,
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.AddCommand(segmentsListCmd)
	segmentsCmd.AddCommand(segmentsAddCmd)
	segmentsCmd.AddCommand(segmentsUpdateCmd)
	segmentsCmd.AddCommand(segmentsRemoveCmd)
	segmentsCmd.AddCommand(segmentsExportCmd)
	segmentsCmd.AddCommand(segmentsImportCmd)

	segmentsListCmd.Flags().StringVar(&segmentSongFilter, "song", "",
		"only list segments of this song")

	segmentsUpdateCmd.Flags().Float64Var(&segmentVolume, "volume", 0,
		"volume gain in dB (0 is unity)")
	segmentsUpdateCmd.Flags().Float64Var(&segmentPitch, "pitch", 0,
		"pitch shift in semitones")
	segmentsUpdateCmd.Flags().Float64Var(&segmentEQLow, "eq-low", 0,
		"low band gain in dB")
	segmentsUpdateCmd.Flags().Float64Var(&segmentEQMid, "eq-mid", 0,
		"mid band gain in dB")
	segmentsUpdateCmd.Flags().Float64Var(&segmentEQHigh, "eq-high", 0,
		"high band gain in dB")
	segmentsUpdateCmd.Flags().Float64Var(&segmentFadeIn, "fade-in", 0,
		"crossfade-in duration in seconds")
	segmentsUpdateCmd.Flags().Float64Var(&segmentFadeOut, "fade-out", 0,
		"crossfade-out duration in seconds")
}

func runSegmentsList(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	segments := application.Session().Segments(segmentSongFilter)
	results := make([]map[string]any, 0, len(segments))
	for _, seg := range segments {
		results = append(results, segmentSummary(seg))
	}

	return application.OutputResults(map[string]any{"segments": results})
}

func runSegmentsAdd(cmd *cobra.Command, args []string) error {
	start, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", args[1], err)
	}
	end, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid end time %q: %w", args[2], err)
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	seg, err := application.Session().CreateSegment(args[0], start, end)
	if err != nil {
		return err
	}

	return application.OutputResults(segmentSummary(seg))
}

func runSegmentsUpdate(cmd *cobra.Command, args []string) error {
	update := session.EffectUpdate{}
	if cmd.Flags().Changed("volume") {
		update.VolumeDB = &segmentVolume
	}
	if cmd.Flags().Changed("pitch") {
		update.PitchSemitones = &segmentPitch
	}
	if cmd.Flags().Changed("eq-low") {
		update.EQLowDB = &segmentEQLow
	}
	if cmd.Flags().Changed("eq-mid") {
		update.EQMidDB = &segmentEQMid
	}
	if cmd.Flags().Changed("eq-high") {
		update.EQHighDB = &segmentEQHigh
	}
	if cmd.Flags().Changed("fade-in") {
		update.CrossfadeIn = &segmentFadeIn
	}
	if cmd.Flags().Changed("fade-out") {
		update.CrossfadeOut = &segmentFadeOut
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	seg, err := application.Session().UpdateEffects(args[0], update)
	if err != nil {
		return err
	}

	return application.OutputResults(segmentSummary(seg))
}

func runSegmentsRemove(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Session().RemoveSegment(args[0]); err != nil {
		return err
	}

	return application.OutputResults(map[string]any{"removed": args[0]})
}

func runSegmentsExport(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	data, err := application.Session().ExportSegments()
	if err != nil {
		return err
	}

	return os.WriteFile(args[0], data, 0644)
}

func runSegmentsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read segment table: %w", err)
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Session().ImportSegments(data); err != nil {
		return err
	}

	return application.OutputResults(map[string]any{
		"imported": len(application.Session().Segments("")),
	})
}

// segmentSummary flattens a segment for output formatting.
func segmentSummary(seg *session.Segment) map[string]any {
	return map[string]any{
		"id":        seg.ID,
		"song_id":   seg.SongID,
		"start":     seg.Start,
		"end":       seg.End,
		"duration":  seg.Duration(),
		"volume_db": seg.Effects.VolumeDB,
		"pitch":     seg.Effects.PitchSemitones,
		"eq_low":    seg.Effects.EQ.LowDB,
		"eq_mid":    seg.Effects.EQ.MidDB,
		"eq_high":   seg.Effects.EQ.HighDB,
		"fade_in":   seg.Effects.CrossfadeIn,
		"fade_out":  seg.Effects.CrossfadeOut,
	}
}
