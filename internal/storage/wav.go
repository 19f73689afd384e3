package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

var (
	ErrEmptyReference = errors.New("reference audio is empty")
	ErrBadWAV         = errors.New("reference audio is not a decodable WAV file")
)

var riffMagic = []byte("RIFF")

// ReadReference loads a reference sample from disk and validates it.
func ReadReference(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference %s: %w", path, err)
	}
	if err := ValidateReference(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ValidateReference rejects empty samples and RIFF payloads that do not
// decode as WAV. Other containers (mp3, flac, ...) are left to the engine.
func ValidateReference(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyReference
	}
	if !bytes.HasPrefix(data, riffMagic) {
		return nil
	}
	return checkWAV(bytes.NewReader(data))
}

func checkWAV(r io.ReadSeeker) error {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return ErrBadWAV
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return fmt.Errorf("%w: missing format information", ErrBadWAV)
	}
	return nil
}

// WAVDuration returns the playback length of the WAV file at path.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, ErrBadWAV
	}
	return dec.Duration()
}
