package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas/internal/engine"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 40.0, cfg.Layout.Gap)
	assert.Empty(t, cfg.Layout.ServiceURL)
	assert.Equal(t, engine.DefaultOptions(), cfg.Stage.EngineOptions())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LAYOUT_GAP", "16")
	t.Setenv("LAYOUT_SERVICE_URL", "http://layout:7000/solve")
	t.Setenv("STAGE_ZOOM_DURATION", "0s")
	t.Setenv("STAGE_FIT_PADDING", "10")
	t.Setenv("STAGE_SMOOTH_WHEEL_ZOOM", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 16.0, cfg.Layout.Gap)
	assert.Equal(t, "http://layout:7000/solve", cfg.Layout.ServiceURL)

	opts := cfg.Stage.EngineOptions()
	assert.Equal(t, time.Duration(0), opts.ZoomDuration)
	assert.Equal(t, 400*time.Millisecond, opts.FitDuration)
	assert.Equal(t, 10.0, opts.FitPadding)
	assert.False(t, opts.SmoothWheelZoom)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}
