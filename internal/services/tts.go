package services

// ---------------------------------------------------------------------------
// Inference worker wire types
// The worker is a local HTTP server that keeps the F5-TTS model resident.
// It is started by internal/worker and addressed on 127.0.0.1 only.
// ---------------------------------------------------------------------------

const (
	pathHealth  = "/health"
	pathTTS     = "/v1/tts"
	pathRelease = "/v1/release"

	contentTypeJSON = "application/json"
	contentTypeWAV  = "audio/wav"
)

// TTSRequest asks the worker to clone the reference voice and speak Text.
// Exactly one of ReferencePath / ReferenceAudio is expected; the worker
// prefers ReferenceAudio when both are present.
type TTSRequest struct {
	Text           string `json:"text"`
	ReferencePath  string `json:"reference_path,omitempty"`
	ReferenceAudio []byte `json:"reference_audio,omitempty"` // base64 on the wire
}

// workerError is the JSON body the worker sends with non-200 responses.
type workerError struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}
