// Package wav reads WAV headers to obtain sample length, rate and
// duration without decoding audio.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Info holds the header fields relevant to pad setup.
type Info struct {
	LengthSamples   int
	SampleRateHz    int
	Channels        int
	BitsPerSample   int
	DurationSeconds float64
}

var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// ReadFile opens a file and parses its WAV header.
func ReadFile(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses a WAV header from a stream, walking the chunk list until
// both the fmt and data chunks are seen.
func Read(r io.Reader) (*Info, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	info := &Info{}
	haveFmt := false

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errors.New("wav: no data chunk found")
			}
			return nil, err
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(r, fmtChunk[:]); err != nil {
				return nil, fmt.Errorf("reading fmt chunk: %w", err)
			}
			info.Channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			info.SampleRateHz = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			haveFmt = true
			if size > 16 {
				if err := skip(r, int64(size)-16); err != nil {
					return nil, err
				}
			}

		case "data":
			if !haveFmt {
				return nil, errors.New("wav: data chunk before fmt chunk")
			}
			bytesPerFrame := info.Channels * info.BitsPerSample / 8
			if bytesPerFrame <= 0 || info.SampleRateHz <= 0 {
				return nil, errors.New("wav: invalid fmt chunk")
			}
			info.LengthSamples = int(size) / bytesPerFrame
			info.DurationSeconds = float64(info.LengthSamples) / float64(info.SampleRateHz)
			return info, nil

		default:
			if err := skip(r, int64(size)); err != nil {
				return nil, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
