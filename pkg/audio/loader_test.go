package audio

import (
	"errors"
	"math"
	"testing"
)

func sineWaveform(freq float64, seconds float64, sampleRate, channels int) *Waveform {
	length := int(seconds * float64(sampleRate))
	w := NewWaveform(channels, length, sampleRate)
	for c := range w.Samples {
		for i := range w.Samples[c] {
			w.Samples[c][i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		}
	}
	return w
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		code string
	}{
		{
			name: "empty input",
			data: nil,
			code: ErrCodeEmptyInput,
		},
		{
			name: "garbage bytes",
			data: []byte("definitely not a wav file"),
			code: ErrCodeInvalidFormat,
		},
		{
			name: "truncated riff header",
			data: []byte{'R', 'I', 'F', 'F'},
			code: ErrCodeInvalidFormat,
		},
	}

	loader := NewLoader(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(tt.data, LoadOptions{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if decodeErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, decodeErr.Code)
			}
		})
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	loader := NewLoader(nil)
	original := sineWaveform(440, 0.5, 44100, 2)

	data, err := Encode(original, 16)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := loader.Load(data, LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if decoded.SampleRate != original.SampleRate {
		t.Errorf("sample rate mismatch: got %d, want %d", decoded.SampleRate, original.SampleRate)
	}
	if decoded.Channels != original.Channels {
		t.Errorf("channel mismatch: got %d, want %d", decoded.Channels, original.Channels)
	}
	if decoded.Len() != original.Len() {
		t.Fatalf("length mismatch: got %d, want %d", decoded.Len(), original.Len())
	}

	// 16-bit quantization bounds the round-trip error.
	tolerance := 1.0 / 32768.0 * 2
	for i := 0; i < decoded.Len(); i += 1000 {
		diff := math.Abs(decoded.Samples[0][i] - original.Samples[0][i])
		if diff > tolerance {
			t.Fatalf("sample %d differs by %f, tolerance %f", i, diff, tolerance)
		}
	}
}

func TestLoadNormalizes(t *testing.T) {
	loader := NewLoader(nil)
	original := sineWaveform(440, 0.25, 48000, 2)

	data, err := Encode(original, 16)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := loader.Load(data, LoadOptions{
		Normalize:        true,
		TargetSampleRate: 44100,
		TargetChannels:   1,
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if decoded.SampleRate != 44100 {
		t.Errorf("expected 44100 Hz, got %d", decoded.SampleRate)
	}
	if decoded.Channels != 1 {
		t.Errorf("expected mono, got %d channels", decoded.Channels)
	}

	// Duration must survive resampling within a frame or two.
	wantLen := int(0.25 * 44100)
	if diff := decoded.Len() - wantLen; diff < -2 || diff > 2 {
		t.Errorf("expected about %d frames, got %d", wantLen, decoded.Len())
	}
}

func TestEncodeRejectsBadBitDepth(t *testing.T) {
	w := sineWaveform(440, 0.1, 44100, 1)
	if _, err := Encode(w, 12); err == nil {
		t.Fatal("expected error for unsupported bit depth")
	}
}

func TestResamplePreservesDuration(t *testing.T) {
	tests := []struct {
		name       string
		sourceRate int
		targetRate int
	}{
		{name: "downsample", sourceRate: 48000, targetRate: 44100},
		{name: "upsample", sourceRate: 22050, targetRate: 44100},
		{name: "identity", sourceRate: 44100, targetRate: 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sineWaveform(220, 1.0, tt.sourceRate, 1)
			out := Resample(w, tt.targetRate)

			if out.SampleRate != tt.targetRate {
				t.Errorf("expected rate %d, got %d", tt.targetRate, out.SampleRate)
			}
			if diff := math.Abs(out.Seconds() - w.Seconds()); diff > 0.001 {
				t.Errorf("duration drifted by %fs", diff)
			}
		})
	}
}

func TestRemix(t *testing.T) {
	stereo := sineWaveform(440, 0.1, 44100, 2)
	stereo.Samples[1] = make([]float64, stereo.Len()) // silent right channel

	mono := Remix(stereo, 1)
	if mono.Channels != 1 {
		t.Fatalf("expected 1 channel, got %d", mono.Channels)
	}

	// Downmix averages channels, so a silent right halves the level.
	wantPeak := stereo.Samples[0][len(stereo.Samples[0])/4] / 2
	gotPeak := mono.Samples[0][len(mono.Samples[0])/4]
	if math.Abs(gotPeak-wantPeak) > 1e-9 {
		t.Errorf("downmix level wrong: got %f, want %f", gotPeak, wantPeak)
	}

	back := Remix(mono, 2)
	if back.Channels != 2 {
		t.Fatalf("expected 2 channels, got %d", back.Channels)
	}
	if back.Samples[0][100] != back.Samples[1][100] {
		t.Error("upmix should duplicate the mono channel")
	}
}
