package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"API_PORT", "OUTPUT_DIR", "ENGINE_COMMAND", "ENGINE_ARGS",
		"ENGINE_STARTUP_TIMEOUT", "ENGINE_REQUEST_TIMEOUT", "MAX_UPLOAD_MB",
		"METRICS_ENABLED", "LOG_LEVEL", "LOG_FILE", "BACKEND_API_KEY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7860", cfg.APIPort)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "f5-tts-worker", cfg.EngineCommand)
	assert.Empty(t, cfg.EngineArgs)
	assert.Equal(t, 10*time.Minute, cfg.EngineStartupTimeout)
	assert.Equal(t, 5*time.Minute, cfg.EngineRequestTimeout)
	assert.Equal(t, 32, cfg.MaxUploadMB)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("ENGINE_ARGS", "--model F5TTS_v1_Base  --device cuda")
	t.Setenv("ENGINE_REQUEST_TIMEOUT", "90s")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.APIPort)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, []string{"--model", "F5TTS_v1_Base", "--device", "cuda"}, cfg.EngineArgs)
	assert.Equal(t, 90*time.Second, cfg.EngineRequestTimeout)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("ENGINE_STARTUP_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.MaxUploadMB)
	assert.Equal(t, 10*time.Minute, cfg.EngineStartupTimeout)
}

func TestValidate(t *testing.T) {
	valid := Config{
		EngineCommand:        "f5-tts-worker",
		OutputDir:            ".",
		MaxUploadMB:          1,
		EngineStartupTimeout: time.Second,
		EngineRequestTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	noCommand := valid
	noCommand.EngineCommand = ""
	assert.Error(t, noCommand.Validate())

	noUpload := valid
	noUpload.MaxUploadMB = 0
	assert.Error(t, noUpload.Validate())

	noTimeout := valid
	noTimeout.EngineRequestTimeout = 0
	assert.Error(t, noTimeout.Validate())
}
