package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bobarin/voiceclone/internal/logger"
)

// ---------------------------------------------------------------------------
// F5-TTS worker client
// Talks to the resident inference worker: synthesize speech, check health,
// and ask it to drop accelerator caches before it is stopped.
// ---------------------------------------------------------------------------

const (
	healthCheckTimeout = 5 * time.Second
	releaseTimeout     = 30 * time.Second
)

var ErrEmptyAudio = errors.New("worker returned empty audio")

// F5Client is an HTTP client bound to one worker instance.
type F5Client struct {
	baseURL string
	client  *http.Client
}

// NewF5Client creates a client for the worker at baseURL (e.g. http://127.0.0.1:40123).
// timeout bounds every synthesis call.
func NewF5Client(baseURL string, timeout time.Duration) *F5Client {
	return &F5Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the worker address this client talks to.
func (c *F5Client) BaseURL() string {
	return c.baseURL
}

// Synthesize returns WAV bytes for req.
func (c *F5Client) Synthesize(ctx context.Context, req TTSRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal worker request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathTTS, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeWAV)

	logger.Debugf("[F5] Generating speech (textLen=%d, refBytes=%d, refPath=%q)",
		len(req.Text), len(req.ReferenceAudio), req.ReferencePath)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseWorkerError(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read worker audio response: %w", err)
	}
	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	logger.Debugf("[F5] Speech generated (%d bytes)", len(audioData))
	return audioData, nil
}

// HealthCheck succeeds once the worker has its weights loaded.
func (c *F5Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// Release asks the worker to free cached accelerator memory. Workers that do
// not implement the endpoint (404) are treated as having nothing to free.
func (c *F5Client) Release(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, releaseTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathRelease, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create release request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("release request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return parseWorkerError(resp)
	}
}

func parseWorkerError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var werr workerError
	if err := json.Unmarshal(body, &werr); err == nil && werr.Detail != "" {
		if werr.ErrorCode != "" {
			return fmt.Errorf("worker returned status %d: %s (code: %s)", resp.StatusCode, werr.Detail, werr.ErrorCode)
		}
		return fmt.Errorf("worker returned status %d: %s", resp.StatusCode, werr.Detail)
	}
	return fmt.Errorf("worker returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
}

// truncate limits a string to maxLen characters for log output
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
