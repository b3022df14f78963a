package cmd

import (
	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <audio-files...>",
	Short: "Analyze audio files and add them to the session",
	Long: `Decode WAV files, extract tempo, key, energy, and structural
boundaries, and register the songs in the session.

Songs flagged with low_confidence had ambiguous tempo or key content;
their estimates are usable but should be double-checked by ear.

Examples:
  # Analyze two tracks
  mashup analyze trackA.wav trackB.wav

  # Analyze and emit the results as JSON
  mashup analyze -o json track.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	songs, err := application.AnalyzeFiles(cmd.Context(), args)
	if err != nil {
		return err
	}

	results := make([]map[string]any, 0, len(songs))
	for _, song := range songs {
		results = append(results, map[string]any{
			"id":               song.ID,
			"title":            song.Title,
			"bpm":              song.BPM,
			"key":              song.Key.String(),
			"tempo_confidence": song.TempoConfidence,
			"key_confidence":   song.KeyConfidence,
			"low_confidence":   song.LowConfidence,
			"duration_seconds": song.Duration,
			"boundaries":       len(song.Boundaries),
		})
	}

	return application.OutputResults(map[string]any{"songs": results})
}
