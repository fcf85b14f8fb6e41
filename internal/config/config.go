package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/canvas/internal/engine"
)

type Config struct {
	Port           int      `envconfig:"PORT" default:"8080"`
	JWTSecret      string   `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`

	Layout LayoutConfig `envconfig:"LAYOUT"`
	Stage  StageConfig  `envconfig:"STAGE"`
}

// LayoutConfig picks the auto-layout solver. An empty ServiceURL selects
// the built-in grid solver.
type LayoutConfig struct {
	Gap          float64 `envconfig:"GAP" default:"40"`
	RowWidth     float64 `envconfig:"ROW_WIDTH" default:"1200"`
	ServiceURL   string  `envconfig:"SERVICE_URL"`
	ServiceToken string  `envconfig:"SERVICE_TOKEN"`
}

// StageConfig overrides the engine's transition timings.
type StageConfig struct {
	ZoomDuration    time.Duration `envconfig:"ZOOM_DURATION" default:"200ms"`
	FitDuration     time.Duration `envconfig:"FIT_DURATION" default:"400ms"`
	LayoutDuration  time.Duration `envconfig:"LAYOUT_DURATION" default:"500ms"`
	FitPadding      float64       `envconfig:"FIT_PADDING" default:"50"`
	SmoothWheelZoom bool          `envconfig:"SMOOTH_WHEEL_ZOOM" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EngineOptions applies the stage overrides on top of the engine defaults.
func (c StageConfig) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.ZoomDuration = c.ZoomDuration
	opts.FitDuration = c.FitDuration
	opts.LayoutDuration = c.LayoutDuration
	opts.FitPadding = c.FitPadding
	opts.SmoothWheelZoom = c.SmoothWheelZoom
	return opts
}
