package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snr16/AI-mashup-generator/internal/app"
	"github.com/snr16/AI-mashup-generator/internal/mashup"
	"github.com/snr16/AI-mashup-generator/internal/session"
)

var (
	renderOutput      string
	renderBPM         float64
	renderSuggested   bool
	renderNoTempoSync bool
	renderNoKeySync   bool
	renderPreviewID   string
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render [segment-ids...]",
	Short: "Render the timeline into a mashup WAV file",
	Long: `Assemble segments into one continuous waveform and write it as WAV.

Without arguments the timeline is every segment in creation order;
pass segment IDs to choose an explicit order, or --suggested to use
the compatibility-ordered chain. Every segment is tempo- and
key-matched to the first segment's song unless overridden or disabled.
The render manifest (applied parameters, fades, warnings) is printed
in the configured output format.

Examples:
  # Render all segments in creation order
  mashup render --out mix.wav

  # Render an explicit timeline at 124 BPM
  mashup render --out mix.wav --bpm 124 seg-1 seg-2 seg-3

  # Audition one segment with its effects
  mashup render --out check.wav --preview seg-2`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderOutput, "out", "mashup.wav",
		"output WAV file path")
	renderCmd.Flags().Float64Var(&renderBPM, "bpm", 0,
		"target tempo (default: first segment's song)")
	renderCmd.Flags().BoolVar(&renderSuggested, "suggested", false,
		"use the suggested compatibility ordering")
	renderCmd.Flags().BoolVar(&renderNoTempoSync, "no-tempo-sync", false,
		"keep every segment at its native tempo")
	renderCmd.Flags().BoolVar(&renderNoKeySync, "no-key-sync", false,
		"keep every segment in its native key")
	renderCmd.Flags().StringVar(&renderPreviewID, "preview", "",
		"render just this segment")
}

func runRender(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	timeline, err := buildTimeline(application, args)
	if err != nil {
		return err
	}

	config := application.Config()
	opts := mashup.Options{
		TargetBPM:              renderBPM,
		SampleRate:             config.Audio.SampleRate,
		Channels:               config.Audio.Channels,
		PeakCeiling:            config.Render.PeakCeiling,
		SkipTempoNormalization: renderNoTempoSync || config.Render.SkipTempoSync,
		SkipKeyNormalization:   renderNoKeySync || config.Render.SkipKeySync,
		MaxConcurrency:         config.Render.MaxConcurrency,
	}

	manifest, err := application.Render(cmd.Context(), timeline, renderOutput, opts)
	if err != nil {
		return err
	}

	return application.OutputResults(map[string]any{
		"output_file": renderOutput,
		"manifest":    manifest,
	})
}

// buildTimeline resolves the segment order for this render: an explicit
// preview, explicit IDs, the suggested ordering, or creation order.
func buildTimeline(application *app.MashupApp, args []string) (session.Timeline, error) {
	if renderPreviewID != "" {
		if len(args) > 0 || renderSuggested {
			return session.Timeline{}, fmt.Errorf("--preview cannot be combined with a timeline")
		}
		return session.Timeline{SegmentIDs: []string{renderPreviewID}}, nil
	}

	if len(args) > 0 {
		if renderSuggested {
			return session.Timeline{}, fmt.Errorf("--suggested cannot be combined with explicit segment IDs")
		}
		return session.Timeline{SegmentIDs: args}, nil
	}

	if renderSuggested {
		infos := application.Suggester().SuggestOrder(application.SegmentInfos())
		ids := make([]string, 0, len(infos))
		for _, info := range infos {
			ids = append(ids, info.SegmentID)
		}
		return session.Timeline{SegmentIDs: ids}, nil
	}

	segments := application.Session().Segments("")
	ids := make([]string, 0, len(segments))
	for _, seg := range segments {
		ids = append(ids, seg.ID)
	}
	return session.Timeline{SegmentIDs: ids}, nil
}
