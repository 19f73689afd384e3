package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/storage"
)

func TestNewArtifact(t *testing.T) {
	a := NewArtifact(storage.Artifact{
		Path:     "out/output_1.wav",
		Name:     "output_1.wav",
		Bytes:    32044,
		Duration: 1500 * time.Millisecond,
	})

	if a.URL != "/files/output_1.wav" {
		t.Errorf("expected url=/files/output_1.wav, got %s", a.URL)
	}

	if a.DurationSeconds != 1.5 {
		t.Errorf("expected duration_seconds=1.5, got %v", a.DurationSeconds)
	}
}

func TestSeveralResponseEmptyEncodesAsArray(t *testing.T) {
	data, err := json.Marshal(NewSeveralResponse(nil))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	files, ok := result["files"].([]interface{})
	if !ok {
		t.Fatalf("expected files to be an array, got %v", result["files"])
	}

	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestSeveralResponseKeepsOrder(t *testing.T) {
	resp := NewSeveralResponse([]storage.Artifact{
		{Path: "output_0.wav", Name: "output_0.wav"},
		{Path: "output_1.wav", Name: "output_1.wav"},
	})

	if len(resp.Files) != 2 || resp.Files[0] != "output_0.wav" || resp.Files[1] != "output_1.wav" {
		t.Errorf("unexpected files: %v", resp.Files)
	}
}

func TestSingleResponseIsFlat(t *testing.T) {
	data, err := json.Marshal(SingleResponse{Artifact: Artifact{File: "output.wav", Name: "output.wav"}})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if result["file"] != "output.wav" {
		t.Errorf("expected file=output.wav, got %v", result["file"])
	}
}

func TestStatusValues(t *testing.T) {
	statuses := []engine.Status{
		engine.StatusLoaded,
		engine.StatusUnloaded,
	}

	for _, status := range statuses {
		data, err := json.Marshal(StatusResponse{Status: status})
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if string(data) != `{"status":"`+string(status)+`"}` {
			t.Errorf("unexpected encoding %s", data)
		}
	}
}
