package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Upload     UploadConfig
	Review     ReviewConfig
	Progress   ProgressConfig
	CORS       CORSConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// ExtractionConfig holds settings for the AI extraction service.
type ExtractionConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api".
	BaseURL string `mapstructure:"base_url"`
	// AssetBaseURL is where uploaded documents are served from for preview.
	AssetBaseURL string `mapstructure:"asset_base_url"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// UploadConfig holds document upload constraints and the extraction call
// budget.
type UploadConfig struct {
	MaxFileSizeMB int64         `mapstructure:"max_file_size_mb"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// ReviewConfig holds review session settings.
type ReviewConfig struct {
	// ConfidenceThreshold marks fields at or below it as needing review,
	// in addition to the paths the extraction service flags itself.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// ProgressConfig drives the simulated upload progress shown while an
// extraction call is in flight.
type ProgressConfig struct {
	Tick    time.Duration `mapstructure:"tick"`
	Start   int           `mapstructure:"start"`
	Step    int           `mapstructure:"step"`
	Ceiling int           `mapstructure:"ceiling"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	uploadTimeoutMin = 60 * time.Second
	uploadTimeoutMax = 180 * time.Second
)

// Load reads configuration from environment variables with the INVOICEVIEW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Extraction service defaults
	v.SetDefault("extraction.base_url", "http://localhost:8000/api")
	v.SetDefault("extraction.asset_base_url", "http://localhost:8000")
	v.SetDefault("extraction.timeout_secs", 120)

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.timeout", "90s")
	v.SetDefault("upload.submit_timeout", "30s")
	v.SetDefault("upload.health_timeout", "5s")

	// Review defaults
	v.SetDefault("review.confidence_threshold", 0.5)

	// Progress defaults
	v.SetDefault("progress.tick", "300ms")
	v.SetDefault("progress.start", 10)
	v.SetDefault("progress.step", 10)
	v.SetDefault("progress.ceiling", 90)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "INVOICEVIEW_SERVER_PORT",
		"server.read_timeout":         "INVOICEVIEW_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "INVOICEVIEW_SERVER_WRITE_TIMEOUT",
		"server.environment":          "INVOICEVIEW_SERVER_ENVIRONMENT",
		"extraction.base_url":         "INVOICEVIEW_EXTRACTION_BASE_URL",
		"extraction.asset_base_url":   "INVOICEVIEW_EXTRACTION_ASSET_BASE_URL",
		"extraction.timeout_secs":     "INVOICEVIEW_EXTRACTION_TIMEOUT_SECS",
		"upload.max_file_size_mb":     "INVOICEVIEW_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.timeout":              "INVOICEVIEW_UPLOAD_TIMEOUT",
		"upload.submit_timeout":       "INVOICEVIEW_UPLOAD_SUBMIT_TIMEOUT",
		"upload.health_timeout":       "INVOICEVIEW_UPLOAD_HEALTH_TIMEOUT",
		"review.confidence_threshold": "INVOICEVIEW_REVIEW_CONFIDENCE_THRESHOLD",
		"progress.tick":               "INVOICEVIEW_PROGRESS_TICK",
		"progress.start":              "INVOICEVIEW_PROGRESS_START",
		"progress.step":               "INVOICEVIEW_PROGRESS_STEP",
		"progress.ceiling":            "INVOICEVIEW_PROGRESS_CEILING",
		"log.level":                   "INVOICEVIEW_LOG_LEVEL",
		"log.format":                  "INVOICEVIEW_LOG_FORMAT",
		"cors.allowed_origins":        "INVOICEVIEW_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEVIEW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEVIEW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Extraction = ExtractionConfig{
		BaseURL:      v.GetString("extraction.base_url"),
		AssetBaseURL: v.GetString("extraction.asset_base_url"),
		TimeoutSecs:  v.GetInt("extraction.timeout_secs"),
	}

	// The extraction call budget is clamped so a typo cannot make uploads
	// give up instantly or hang for an hour.
	uploadTimeout := v.GetDuration("upload.timeout")
	if uploadTimeout < uploadTimeoutMin {
		uploadTimeout = uploadTimeoutMin
	}
	if uploadTimeout > uploadTimeoutMax {
		uploadTimeout = uploadTimeoutMax
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		Timeout:       uploadTimeout,
		SubmitTimeout: v.GetDuration("upload.submit_timeout"),
		HealthTimeout: v.GetDuration("upload.health_timeout"),
	}
	cfg.Review = ReviewConfig{
		ConfidenceThreshold: v.GetFloat64("review.confidence_threshold"),
	}
	cfg.Progress = ProgressConfig{
		Tick:    v.GetDuration("progress.tick"),
		Start:   v.GetInt("progress.start"),
		Step:    v.GetInt("progress.step"),
		Ceiling: v.GetInt("progress.ceiling"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
