package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "development", cfg.Server.Environment)

	assert.Equal(t, "http://localhost:8000/api", cfg.Extraction.BaseURL)
	assert.Equal(t, "http://localhost:8000", cfg.Extraction.AssetBaseURL)
	assert.Equal(t, 120, cfg.Extraction.TimeoutSecs)

	assert.Equal(t, int64(10), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxFileSizeBytes())
	assert.Equal(t, 90*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Upload.SubmitTimeout)

	assert.Equal(t, 0.5, cfg.Review.ConfidenceThreshold)

	assert.Equal(t, 300*time.Millisecond, cfg.Progress.Tick)
	assert.Equal(t, 10, cfg.Progress.Start)
	assert.Equal(t, 10, cfg.Progress.Step)
	assert.Equal(t, 90, cfg.Progress.Ceiling)

	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVOICEVIEW_SERVER_PORT", ":9090")
	t.Setenv("INVOICEVIEW_EXTRACTION_BASE_URL", "http://extractor:8000/api")
	t.Setenv("INVOICEVIEW_UPLOAD_MAX_FILE_SIZE_MB", "25")
	t.Setenv("INVOICEVIEW_REVIEW_CONFIDENCE_THRESHOLD", "0.7")
	t.Setenv("INVOICEVIEW_CORS_ALLOWED_ORIGINS", "https://review.example.com, https://staging.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "http://extractor:8000/api", cfg.Extraction.BaseURL)
	assert.Equal(t, int64(25), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 0.7, cfg.Review.ConfidenceThreshold)
	assert.Equal(t, []string{"https://review.example.com", "https://staging.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_UploadTimeoutClamped(t *testing.T) {
	t.Setenv("INVOICEVIEW_UPLOAD_TIMEOUT", "5s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Upload.Timeout)

	t.Setenv("INVOICEVIEW_UPLOAD_TIMEOUT", "1h")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 180*time.Second, cfg.Upload.Timeout)

	t.Setenv("INVOICEVIEW_UPLOAD_TIMEOUT", "120s")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, cfg.Upload.Timeout)
}

func TestLoad_PaaSPortFallback(t *testing.T) {
	t.Setenv("PORT", "7777")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Port)

	// an explicit setting wins over the platform variable
	t.Setenv("INVOICEVIEW_SERVER_PORT", ":9090")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}
