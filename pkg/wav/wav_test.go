package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE byte stream.
func buildWAV(channels, sampleRate, bits int, dataBytes int, extraChunk bool) []byte {
	var buf bytes.Buffer
	u16 := func(v int) {
		_ = binary.Write(&buf, binary.LittleEndian, uint16(v))
	}
	u32 := func(v int) {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(v))
	}

	buf.WriteString("RIFF")
	u32(36 + dataBytes)
	buf.WriteString("WAVE")

	if extraChunk {
		buf.WriteString("LIST")
		u32(4)
		buf.WriteString("INFO")
	}

	buf.WriteString("fmt ")
	u32(16)
	u16(1) // PCM
	u16(channels)
	u32(sampleRate)
	u32(sampleRate * channels * bits / 8)
	u16(channels * bits / 8)
	u16(bits)

	buf.WriteString("data")
	u32(dataBytes)
	buf.Write(make([]byte, dataBytes))

	return buf.Bytes()
}

func TestRead(t *testing.T) {
	tests := []struct {
		name        string
		channels    int
		sampleRate  int
		bits        int
		dataBytes   int
		extraChunk  bool
		wantSamples int
	}{
		{"mono 16-bit", 1, 44100, 16, 88200, false, 44100},
		{"stereo 16-bit", 2, 44100, 16, 176400, false, 44100},
		{"stereo 24-bit 48k", 2, 48000, 24, 288000, false, 48000},
		{"leading metadata chunk", 1, 44100, 16, 44100, true, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildWAV(tt.channels, tt.sampleRate, tt.bits, tt.dataBytes, tt.extraChunk)
			info, err := Read(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}

			if info.Channels != tt.channels {
				t.Errorf("Channels = %d, want %d", info.Channels, tt.channels)
			}
			if info.SampleRateHz != tt.sampleRate {
				t.Errorf("SampleRateHz = %d, want %d", info.SampleRateHz, tt.sampleRate)
			}
			if info.BitsPerSample != tt.bits {
				t.Errorf("BitsPerSample = %d, want %d", info.BitsPerSample, tt.bits)
			}
			if info.LengthSamples != tt.wantSamples {
				t.Errorf("LengthSamples = %d, want %d", info.LengthSamples, tt.wantSamples)
			}
		})
	}
}

func TestReadDuration(t *testing.T) {
	data := buildWAV(2, 44100, 16, 176400, false)
	info, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.DurationSeconds != 1.0 {
		t.Errorf("DurationSeconds = %v, want 1.0", info.DurationSeconds)
	}
}

func TestReadNotWAV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"random bytes", []byte("this is definitely not audio")},
		{"riff but not wave", append([]byte("RIFF\x00\x00\x00\x00AVI "), make([]byte, 16)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNotWAV) {
				t.Errorf("Read() error = %v, want ErrNotWAV", err)
			}
		})
	}
}

func TestReadTruncated(t *testing.T) {
	data := buildWAV(1, 44100, 16, 1000, false)
	// Drop the data chunk entirely.
	_, err := Read(bytes.NewReader(data[:20]))
	if err == nil {
		t.Fatal("Read() on truncated stream should fail")
	}
}
