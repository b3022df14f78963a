package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"

	"github.com/snr16/AI-mashup-generator/configs"
	"github.com/snr16/AI-mashup-generator/internal/mashup"
	"github.com/snr16/AI-mashup-generator/internal/session"
	"github.com/snr16/AI-mashup-generator/internal/suggest"
	"github.com/snr16/AI-mashup-generator/pkg/audio"
	"github.com/snr16/AI-mashup-generator/pkg/audio/analysis"
	"github.com/snr16/AI-mashup-generator/pkg/audio/transform"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile   string
	StorePath    string
	OutputFile   string
	OutputFormat string
	Verbose      bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// MashupApp wires the session, analysis, and rendering components
// together for the CLI.
type MashupApp struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger

	store     *session.Store
	session   *session.Session
	loader    *audio.Loader
	analyzer  *analysis.Analyzer
	engine    *transform.Engine
	assembler *mashup.Assembler
	suggester *suggest.Suggester
}

// NewMashupApp creates the application: it loads configuration, opens
// the session store, restores the previous session, and reloads song
// waveforms from their recorded source paths.
func NewMashupApp(ctx *Context) (*MashupApp, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	app := &MashupApp{
		ctx:    ctx,
		config: config,
		logger: logger,
	}

	app.loader = audio.NewLoader(logger)
	app.analyzer = analysis.NewAnalyzer(&analysis.AnalyzerConfig{
		WindowSize:          config.Analysis.WindowSize,
		HopSize:             config.Analysis.HopSize,
		MinBPM:              config.Analysis.MinBPM,
		MaxBPM:              config.Analysis.MaxBPM,
		ReferenceBPMLow:     config.Analysis.ReferenceBPMLow,
		ReferenceBPMHigh:    config.Analysis.ReferenceBPMHigh,
		BoundaryThreshold:   config.Analysis.BoundaryThreshold,
		BoundaryMinSpacing:  config.Analysis.BoundaryMinSpacing,
		SmoothingFrames:     config.Analysis.SmoothingFrames,
		ConfidenceThreshold: config.Analysis.ConfidenceThreshold,
		MaxConcurrency:      config.Analysis.MaxConcurrency,
		Logger:              logger,
	})
	app.engine = transform.NewEngine(&transform.EngineConfig{
		StretchWindowSize: config.Transform.StretchWindowSize,
		EQLowFreq:         config.Transform.EQLowFreq,
		EQHighFreq:        config.Transform.EQHighFreq,
		PeakCeiling:       config.Transform.PeakCeiling,
		Logger:            logger,
	})
	app.assembler = mashup.NewAssembler(&mashup.AssemblerConfig{
		Transform: app.engine,
		Logger:    logger,
	})

	scorer := suggest.NewScorer(&suggest.ScorerConfig{
		TempoWeight:       config.Scoring.TempoWeight,
		KeyWeight:         config.Scoring.KeyWeight,
		EnergyWeight:      config.Scoring.EnergyWeight,
		TempoLogTolerance: config.Scoring.TempoLogTolerance,
	})
	app.suggester = suggest.NewSuggester(
		scorer, app.analyzer, suggest.NewGreedyNearestNeighbor(scorer), logger)

	if err := app.openSession(); err != nil {
		return nil, err
	}

	logger.Debug("Application initialized", logging.Fields{
		"config_file": ctx.ConfigFile,
		"store_path":  app.storePath(),
		"songs":       len(app.session.Songs()),
		"segments":    len(app.session.Segments("")),
	})

	return app, nil
}

// Session returns the active session.
func (app *MashupApp) Session() *session.Session {
	return app.session
}

// Analyzer returns the feature analyzer.
func (app *MashupApp) Analyzer() *analysis.Analyzer {
	return app.analyzer
}

// Assembler returns the mashup assembler.
func (app *MashupApp) Assembler() *mashup.Assembler {
	return app.assembler
}

// Suggester returns the suggestion engine.
func (app *MashupApp) Suggester() *suggest.Suggester {
	return app.suggester
}

// Logger returns the application logger.
func (app *MashupApp) Logger() logging.Logger {
	return app.logger
}

// Config returns the merged configuration.
func (app *MashupApp) Config() *configs.Config {
	return app.config
}

func (app *MashupApp) storePath() string {
	if app.ctx.StorePath != "" {
		return app.ctx.StorePath
	}
	return app.config.Session.StorePath
}

// openSession opens the store and restores the saved session. Songs
// with a recorded source path get their waveforms reloaded so they can
// be rendered without re-analysis.
func (app *MashupApp) openSession() error {
	path := app.storePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	store, err := session.OpenStore(path)
	if err != nil {
		return err
	}
	app.store = store

	sessionConfig := &session.Config{
		DisallowOverlap:   app.config.Session.DisallowOverlap,
		MaxPitchSemitones: app.config.Session.MaxPitchShift,
		MaxEQGainDB:       app.config.Session.MaxEQGainDB,
		MaxVolumeDB:       app.config.Session.MaxVolumeDB,
		Logger:            app.logger,
	}

	restored, err := store.Load(sessionConfig)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to restore session: %w", err)
	}
	app.session = restored

	for _, song := range restored.Songs() {
		if song.SourcePath == "" {
			continue
		}
		if err := app.reloadWaveform(song); err != nil {
			app.logger.Warn("Could not reload song audio", logging.Fields{
				"song_id":     song.ID,
				"source_path": song.SourcePath,
				"error":       err.Error(),
			})
		}
	}

	return nil
}

// reloadWaveform re-decodes a song's audio file and attaches it to the
// in-memory song.
func (app *MashupApp) reloadWaveform(song *analysis.Song) error {
	data, err := os.ReadFile(song.SourcePath)
	if err != nil {
		return err
	}

	w, err := app.loader.Load(data, audio.LoadOptions{})
	if err != nil {
		return err
	}
	song.Waveform = w
	return nil
}

// AnalyzeFiles decodes and analyzes the given audio files, adds the
// resulting songs to the session, and persists the session.
func (app *MashupApp) AnalyzeFiles(ctx context.Context, paths []string) ([]*analysis.Song, error) {
	inputs := make([]analysis.AnalyzeInput, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		w, err := app.loader.Load(data, audio.LoadOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}

		title := filepath.Base(path)
		title = title[:len(title)-len(filepath.Ext(title))]
		inputs = append(inputs, analysis.AnalyzeInput{Title: title, Waveform: w})
	}

	songs, err := app.analyzer.AnalyzeAll(ctx, inputs)
	if err != nil {
		return nil, err
	}

	for i, song := range songs {
		abs, err := filepath.Abs(paths[i])
		if err != nil {
			abs = paths[i]
		}
		song.SourcePath = abs
		app.session.AddSong(song)
	}

	if err := app.Save(); err != nil {
		return nil, err
	}
	return songs, nil
}

// Render assembles the given timeline and writes the result as a WAV
// file, returning the manifest.
func (app *MashupApp) Render(ctx context.Context, timeline session.Timeline, outputPath string, opts mashup.Options) (*mashup.Manifest, error) {
	result, err := app.assembler.Render(ctx, app.session.Snapshot(), timeline, opts)
	if err != nil {
		return nil, err
	}

	encoded, err := audio.Encode(result.Waveform, app.config.Audio.BitDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rendered audio: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Info("Mashup written", logging.Fields{
		"output_file": outputPath,
		"duration_s":  result.Waveform.Seconds(),
		"size_bytes":  len(encoded),
	})

	return result.Manifest, nil
}

// SegmentInfos maps the session's segments to scorer inputs, pulling
// tempo and key from each owning song.
func (app *MashupApp) SegmentInfos() []suggest.SegmentInfo {
	segments := app.session.Segments("")
	infos := make([]suggest.SegmentInfo, 0, len(segments))

	for _, seg := range segments {
		song, err := app.session.Song(seg.SongID)
		if err != nil {
			continue
		}
		infos = append(infos, suggest.SegmentInfo{
			SegmentID: seg.ID,
			SongID:    song.ID,
			BPM:       song.BPM,
			Key:       song.Key,
			Energy:    song.Energy,
			Duration:  seg.Duration(),
		})
	}
	return infos
}

// Save persists the current session to the store.
func (app *MashupApp) Save() error {
	return app.store.Save(app.session.Snapshot())
}

// Close saves and releases the session store.
func (app *MashupApp) Close() error {
	if err := app.Save(); err != nil {
		app.store.Close()
		return err
	}
	return app.store.Close()
}

// OutputResults formats data per the configured output format and
// writes it to the output file or stdout.
func (app *MashupApp) OutputResults(data any) error {
	var formatter output.Formatter
	switch app.ctx.OutputFormat {
	case "json":
		formatter = &output.JSONFormatter{}
	case "yaml":
		formatter = &output.YAMLFormatter{}
	case "csv":
		formatter = &output.CSVFormatter{}
	case "table":
		formatter = &output.TableFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	formatted, err := formatter.Format(data, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	if app.ctx.OutputFile != "" {
		return app.writeToFile(formatted)
	}

	_, err = os.Stdout.Write(formatted)
	return err
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	return logging.NewDefaultLogger()
}

// writeToFile writes data to the specified output file
func (app *MashupApp) writeToFile(data []byte) error {
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}
