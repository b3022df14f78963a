package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Encode renders a waveform to WAV PCM bytes, the inverse of Load.
// Samples outside [-1, 1] are clamped rather than wrapped.
func Encode(w *Waveform, bitDepth int) ([]byte, error) {
	if w == nil || w.Len() == 0 {
		return nil, NewDecodeError("wav", ErrCodeEmptyInput, "empty waveform", nil)
	}
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, NewDecodeError("wav", ErrCodeUnsupported, "unsupported bit depth", nil)
	}

	scale := float64(int64(1)<<(bitDepth-1)) - 1

	frames := w.Len()
	channels := len(w.Samples)
	data := make([]int, frames*channels)
	for i := range frames {
		for c := range channels {
			s := w.Samples[c][i]
			if s > 1.0 {
				s = 1.0
			} else if s < -1.0 {
				s = -1.0
			}
			data[i*channels+c] = int(s * scale)
		}
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  w.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	// wav.NewEncoder wants an io.WriteSeeker so it can patch the RIFF
	// header after the data chunk is written.
	ws := &memWriteSeeker{}
	encoder := wav.NewEncoder(ws, w.SampleRate, bitDepth, channels, 1)
	if err := encoder.Write(buf); err != nil {
		return nil, NewDecodeError("wav", ErrCodeEncoding, "failed to encode PCM data", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, NewDecodeError("wav", ErrCodeEncoding, "failed to finalize WAV container", err)
	}

	return ws.Bytes(), nil
}

// memWriteSeeker is an in-memory io.WriteSeeker backing the WAV encoder.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		if need > cap(m.buf) {
			grown := make([]byte, need, need*2)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:need]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position: %d", next)
	}
	m.pos = next
	return int64(next), nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
