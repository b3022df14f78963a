package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snr16/AI-mashup-generator/internal/app"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write an example config file with default values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.GenerateExampleConfig(args[0]); err != nil {
			return err
		}
		fmt.Printf("Example configuration written to %s\n", args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.ValidateConfigFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("Configuration %s is valid\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}
