package cmd

import (
	"github.com/spf13/cobra"
)

// songsCmd groups the song registry operations
var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "Manage the session's analyzed songs",
}

var songsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analyzed songs",
	RunE:  runSongsList,
}

var songsRemoveCmd = &cobra.Command{
	Use:   "remove <song-id>",
	Short: "Remove a song and all of its segments",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongsRemove,
}

func init() {
	rootCmd.AddCommand(songsCmd)
	songsCmd.AddCommand(songsListCmd)
	songsCmd.AddCommand(songsRemoveCmd)
}

func runSongsList(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	songs := application.Session().Songs()
	results := make([]map[string]any, 0, len(songs))
	for _, song := range songs {
		results = append(results, map[string]any{
			"id":               song.ID,
			"title":            song.Title,
			"bpm":              song.BPM,
			"key":              song.Key.String(),
			"low_confidence":   song.LowConfidence,
			"duration_seconds": song.Duration,
			"segments":         len(application.Session().Segments(song.ID)),
			"source_path":      song.SourcePath,
			"audio_loaded":     song.Waveform != nil,
		})
	}

	return application.OutputResults(map[string]any{"songs": results})
}

func runSongsRemove(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Session().RemoveSong(args[0]); err != nil {
		return err
	}

	return application.OutputResults(map[string]any{"removed": args[0]})
}
