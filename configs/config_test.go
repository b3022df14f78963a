package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := GetDefaultConfig()
	require.NoError(t, ValidateConfig(config))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "zero sample rate",
			mutate: func(c *Config) { c.Audio.SampleRate = 0 },
		},
		{
			name:   "unsupported bit depth",
			mutate: func(c *Config) { c.Audio.BitDepth = 12 },
		},
		{
			name:   "window size not a power of two",
			mutate: func(c *Config) { c.Analysis.WindowSize = 1000 },
		},
		{
			name:   "hop larger than window",
			mutate: func(c *Config) { c.Analysis.HopSize = c.Analysis.WindowSize * 2 },
		},
		{
			name:   "inverted BPM range",
			mutate: func(c *Config) { c.Analysis.MinBPM = 200; c.Analysis.MaxBPM = 100 },
		},
		{
			name:   "negative scoring weight",
			mutate: func(c *Config) { c.Scoring.KeyWeight = -1 },
		},
		{
			name: "all weights zero",
			mutate: func(c *Config) {
				c.Scoring.TempoWeight = 0
				c.Scoring.KeyWeight = 0
				c.Scoring.EnergyWeight = 0
			},
		},
		{
			name:   "inverted EQ band edges",
			mutate: func(c *Config) { c.Transform.EQLowFreq = 5000 },
		},
		{
			name:   "peak ceiling above full scale",
			mutate: func(c *Config) { c.Render.PeakCeiling = 1.5 },
		},
		{
			name:   "negative crossfade default",
			mutate: func(c *Config) { c.Render.DefaultCrossfade = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := GetDefaultConfig()
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}
}
