package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Intake    IntakeConfig
	Transfer  TransferConfig
	Simulator SimulatorConfig
	Notify    NotifyConfig
}

// ServerConfig holds the daemon's HTTP configuration
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
}

// IntakeConfig holds upload acceptance policy
type IntakeConfig struct {
	MaxFileBytes int64
}

// TransferConfig holds the orchestrator's client-side settings
type TransferConfig struct {
	PipelineURL   string
	UploadTimeout time.Duration
	GraceInterval time.Duration
}

// SimulatorConfig holds the fallback narrative settings
type SimulatorConfig struct {
	StageCadence time.Duration
}

// NotifyConfig holds user-facing notification settings
type NotifyConfig struct {
	VisibleFor time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":5000"),
			RequestTimeout: getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		},
		Intake: IntakeConfig{
			MaxFileBytes: getEnvAsInt64("MAX_FILE_BYTES", 10*1024*1024),
		},
		Transfer: TransferConfig{
			PipelineURL:   getEnv("PIPELINE_URL", "http://localhost:5000"),
			UploadTimeout: getEnvAsDuration("UPLOAD_TIMEOUT", 45*time.Second),
			GraceInterval: getEnvAsDuration("FALLBACK_GRACE", 1500*time.Millisecond),
		},
		Simulator: SimulatorConfig{
			StageCadence: getEnvAsDuration("SIMULATOR_CADENCE", 350*time.Millisecond),
		},
		Notify: NotifyConfig{
			VisibleFor: getEnvAsDuration("NOTIFY_VISIBLE_FOR", 3*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Transfer.PipelineURL == "" {
		return NewAppError("CONFIG_ERROR", "PIPELINE_URL is required", ErrInvalidInput)
	}
	if c.Intake.MaxFileBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_FILE_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}
