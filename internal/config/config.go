package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)
	MaxUploadMB        int    // Upper bound for multipart bodies on /single and /several
	MetricsEnabled     bool

	// Output
	OutputDir string // Where output.wav / output_{i}.wav are written

	// Inference worker
	EngineCommand        string        // Executable that serves the model over HTTP
	EngineArgs           []string      // Extra args; --addr is appended by the supervisor
	EngineStartupTimeout time.Duration // How long to wait for /health after launch
	EngineRequestTimeout time.Duration // Per synthesis call

	// Logging
	LogLevel string
	LogFile  string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:              getEnv("API_PORT", "7860"),
		BackendAPIKey:        getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", ""),
		MaxUploadMB:          getEnvInt("MAX_UPLOAD_MB", 32),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		OutputDir:            getEnv("OUTPUT_DIR", "."),
		EngineCommand:        getEnv("ENGINE_COMMAND", "f5-tts-worker"),
		EngineArgs:           strings.Fields(getEnv("ENGINE_ARGS", "")),
		EngineStartupTimeout: getEnvDuration("ENGINE_STARTUP_TIMEOUT", 10*time.Minute),
		EngineRequestTimeout: getEnvDuration("ENGINE_REQUEST_TIMEOUT", 5*time.Minute),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks fields that have no usable zero value.
func (c *Config) Validate() error {
	if c.EngineCommand == "" {
		return fmt.Errorf("ENGINE_COMMAND is required")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}

	if c.EngineStartupTimeout <= 0 || c.EngineRequestTimeout <= 0 {
		return fmt.Errorf("ENGINE_STARTUP_TIMEOUT and ENGINE_REQUEST_TIMEOUT must be positive")
	}

	return nil
}

// MaxUploadBytes converts MaxUploadMB to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
