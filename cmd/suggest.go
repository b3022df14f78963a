package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snr16/AI-mashup-generator/internal/suggest"
)

var (
	suggestLength float64
	suggestAnchor string
)

// suggestCmd groups the suggestion engine operations
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest segments, orderings, and transitions",
	Long: `Generate advice from the analyzed songs: candidate segments around
high-energy regions, a playback order that chains compatible segments,
and transition settings for adjacent pairs. Suggestions never modify
the session.`,
}

var suggestSegmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Propose segment ranges from high-energy regions",
	RunE:  runSuggestSegments,
}

var suggestOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Suggest a playback order for the session's segments",
	Long: `Arrange the session's segments so adjacent pairs score well together.
The chain starts from the highest-energy segment unless --anchor names
a different one. Transition durations for each junction are included.`,
	RunE: runSuggestOrder,
}

var suggestMixCmd = &cobra.Command{
	Use:   "mix <song-id-a> <song-id-b>",
	Short: "Suggest mix parameters for a pair of songs",
	Args:  cobra.ExactArgs(2),
	RunE:  runSuggestMix,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.AddCommand(suggestSegmentsCmd)
	suggestCmd.AddCommand(suggestOrderCmd)
	suggestCmd.AddCommand(suggestMixCmd)

	suggestSegmentsCmd.Flags().Float64Var(&suggestLength, "length", 30,
		"target segment length in seconds (clamped to 20-50)")
	suggestOrderCmd.Flags().StringVar(&suggestAnchor, "anchor", "",
		"segment ID to start the chain from")
}

func runSuggestSegments(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	songs := application.Session().Songs()
	if len(songs) == 0 {
		return fmt.Errorf("no analyzed songs in the session")
	}

	proposals := application.Suggester().SuggestSegments(songs, suggestLength)
	return application.OutputResults(map[string]any{"proposals": proposals})
}

func runSuggestOrder(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	infos := application.SegmentInfos()
	if len(infos) == 0 {
		return fmt.Errorf("no segments in the session")
	}

	suggester := application.Suggester()
	if suggestAnchor != "" {
		strategy := suggest.NewGreedyNearestNeighbor(suggester.Scorer())
		strategy.AnchorID = suggestAnchor
		infos = strategy.Order(infos)
	} else {
		infos = suggester.SuggestOrder(infos)
	}

	ordered := make([]map[string]any, 0, len(infos))
	for i, info := range infos {
		entry := map[string]any{
			"position":   i,
			"segment_id": info.SegmentID,
			"song_id":    info.SongID,
			"bpm":        info.BPM,
			"key":        info.Key.String(),
		}
		if i+1 < len(infos) {
			fadeOut, fadeIn := suggester.SuggestTransition(info, infos[i+1])
			entry["transition_out"] = fadeOut
			entry["next_transition_in"] = fadeIn
		}
		ordered = append(ordered, entry)
	}

	return application.OutputResults(map[string]any{"order": ordered})
}

func runSuggestMix(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	songA, err := application.Session().Song(args[0])
	if err != nil {
		return err
	}
	songB, err := application.Session().Song(args[1])
	if err != nil {
		return err
	}

	mix := application.Suggester().SuggestMix(songA, songB)
	return application.OutputResults(mix)
}
