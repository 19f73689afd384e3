package enginetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV returns a silent mono 16-bit PCM WAV file of the given sample count at 16 kHz.
func WAV(t testing.TB, samples int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ref.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}

	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalize wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close wav: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read wav: %v", err)
	}
	return data
}
