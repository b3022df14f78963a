package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/snr16/AI-mashup-generator/pkg/audio"
)

func testConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		WindowSize:          2048,
		HopSize:             512,
		MinBPM:              40,
		MaxBPM:              220,
		ReferenceBPMLow:     90,
		ReferenceBPMHigh:    150,
		BoundaryThreshold:   1.5,
		BoundaryMinSpacing:  2.0,
		SmoothingFrames:     8,
		ConfidenceThreshold: 0.1,
	}
}

// clickTrack synthesizes short tone bursts at the given tempo.
func clickTrack(bpm float64, seconds float64, sampleRate int) *audio.Waveform {
	w := audio.NewWaveform(1, int(seconds*float64(sampleRate)), sampleRate)
	interval := 60.0 / bpm
	burstLen := sampleRate / 100 // 10ms click

	for beat := 0.0; beat < seconds; beat += interval {
		start := int(beat * float64(sampleRate))
		for i := range burstLen {
			idx := start + i
			if idx >= w.Len() {
				break
			}
			decay := 1.0 - float64(i)/float64(burstLen)
			w.Samples[0][idx] = 0.9 * decay * math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate))
		}
	}
	return w
}

// triad synthesizes a sustained chord from the given frequencies.
func triad(freqs []float64, seconds float64, sampleRate int) *audio.Waveform {
	w := audio.NewWaveform(1, int(seconds*float64(sampleRate)), sampleRate)
	for i := range w.Samples[0] {
		t := float64(i) / float64(sampleRate)
		s := 0.0
		for _, f := range freqs {
			s += math.Sin(2 * math.Pi * f * t)
		}
		w.Samples[0][i] = 0.3 * s / float64(len(freqs))
	}
	return w
}

func TestAnalyzeEmptyWaveform(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	_, err := analyzer.Analyze(context.Background(), "empty", audio.NewWaveform(1, 0, 44100))
	if err == nil {
		t.Fatal("expected error for empty waveform")
	}
}

func TestAnalyzeClickTrackTempo(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())
	w := clickTrack(120, 10, 44100)

	song, err := analyzer.Analyze(context.Background(), "click-120", w)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if math.Abs(song.BPM-120) > 1.0 {
		t.Errorf("expected 120 BPM +/- 1, got %f", song.BPM)
	}
	if song.TempoConfidence <= 0 {
		t.Errorf("expected positive tempo confidence, got %f", song.TempoConfidence)
	}
}

func TestAnalyzeCMajorTriadKey(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())
	// C4, E4, G4
	w := triad([]float64{261.63, 329.63, 392.00}, 5, 44100)

	song, err := analyzer.Analyze(context.Background(), "c-major", w)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if song.Key.PitchClass != 0 {
		t.Errorf("expected pitch class C (0), got %d (%s)", song.Key.PitchClass, song.Key)
	}
	if song.Key.Mode != KeyModeMajor {
		t.Errorf("expected major mode, got %s", song.Key)
	}
}

func TestAnalyzeSilenceIsLowConfidenceNotError(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())
	w := audio.NewWaveform(1, 44100*3, 44100)

	song, err := analyzer.Analyze(context.Background(), "silence", w)
	if err != nil {
		t.Fatalf("silence must not fail analysis: %v", err)
	}

	if !song.LowConfidence {
		t.Error("expected low confidence flag for silence")
	}
	if song.BPM <= 0 {
		t.Errorf("expected a fallback BPM, got %f", song.BPM)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())
	w := clickTrack(100, 8, 44100)

	first, err := analyzer.Analyze(context.Background(), "det", w)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	second, err := analyzer.Analyze(context.Background(), "det", w)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if first.BPM != second.BPM {
		t.Errorf("BPM not deterministic: %f vs %f", first.BPM, second.BPM)
	}
	if first.Key != second.Key {
		t.Errorf("key not deterministic: %s vs %s", first.Key, second.Key)
	}
	if first.TempoConfidence != second.TempoConfidence {
		t.Errorf("tempo confidence not deterministic: %f vs %f",
			first.TempoConfidence, second.TempoConfidence)
	}
	if len(first.Boundaries) != len(second.Boundaries) {
		t.Errorf("boundaries not deterministic: %d vs %d",
			len(first.Boundaries), len(second.Boundaries))
	}
}

func TestAnalyzeCancellation(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())
	w := clickTrack(120, 5, 44100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := analyzer.Analyze(ctx, "cancelled", w); err == nil {
		t.Fatal("expected context error")
	}
}

func TestBoundariesStrictlyIncreasing(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	// Quiet first half, loud second half forces at least one boundary.
	w := audio.NewWaveform(1, 44100*8, 44100)
	for i := range w.Samples[0] {
		t := float64(i) / 44100.0
		amp := 0.05
		if i >= w.Len()/2 {
			amp = 0.8
		}
		w.Samples[0][i] = amp * math.Sin(2*math.Pi*440*t)
	}

	song, err := analyzer.Analyze(context.Background(), "step", w)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	for i := 1; i < len(song.Boundaries); i++ {
		if song.Boundaries[i].Time <= song.Boundaries[i-1].Time {
			t.Fatalf("boundaries not strictly increasing at %d: %f <= %f",
				i, song.Boundaries[i].Time, song.Boundaries[i-1].Time)
		}
	}
}

func TestCircleOfFifthsDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		want int
	}{
		{
			name: "same key",
			a:    Key{PitchClass: 0, Mode: KeyModeMajor},
			b:    Key{PitchClass: 0, Mode: KeyModeMajor},
			want: 0,
		},
		{
			name: "C to G is one fifth",
			a:    Key{PitchClass: 0, Mode: KeyModeMajor},
			b:    Key{PitchClass: 7, Mode: KeyModeMajor},
			want: 1,
		},
		{
			name: "C major to A minor are relative",
			a:    Key{PitchClass: 0, Mode: KeyModeMajor},
			b:    Key{PitchClass: 9, Mode: KeyModeMinor},
			want: 0,
		},
		{
			name: "C to F# is maximally distant",
			a:    Key{PitchClass: 0, Mode: KeyModeMajor},
			b:    Key{PitchClass: 6, Mode: KeyModeMajor},
			want: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CircleOfFifthsDistance(tt.a, tt.b); got != tt.want {
				t.Errorf("distance(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestAnalyzeAll(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	inputs := []AnalyzeInput{
		{Title: "a", Waveform: clickTrack(100, 4, 44100)},
		{Title: "b", Waveform: clickTrack(130, 4, 44100)},
	}

	songs, err := analyzer.AnalyzeAll(context.Background(), inputs)
	if err != nil {
		t.Fatalf("batch analysis failed: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}
	if songs[0].Title != "a" || songs[1].Title != "b" {
		t.Error("batch results must keep input order")
	}
}
