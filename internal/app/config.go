package app

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/snr16/AI-mashup-generator/configs"
)

// loadAndMergeConfig loads the base configuration and applies CLI
// overrides from the context.
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load base configuration: %w", err)
	}

	if ctx.Verbose {
		config.Verbose = true
	}
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if ctx.StorePath != "" {
		config.Session.StorePath = ctx.StorePath
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GenerateExampleConfig writes a YAML config file populated with the
// default values, as a starting point for customization.
func GenerateExampleConfig(outputFile string) error {
	config := configs.GetDefaultConfig()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal example configuration: %w", err)
	}

	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write example configuration: %w", err)
	}

	return nil
}

// ValidateConfigFile checks that a config file parses and passes
// validation without loading it into the running application.
func ValidateConfigFile(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	config := configs.GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse configuration file: %w", err)
	}

	return configs.ValidateConfig(config)
}
