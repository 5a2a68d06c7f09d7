package config

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

// Validate checks the configuration for errors
func Validate(cfg *Config) error {
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}

	if cfg.Frames.InFlight < 2 || cfg.Frames.InFlight > 3 {
		return errors.Newf("frames.in_flight must be 2 or 3, got %d", cfg.Frames.InFlight)
	}
	if cfg.Frames.FenceTimeout <= 0 {
		return errors.Newf("frames.fence_timeout must be positive, got %s", cfg.Frames.FenceTimeout)
	}

	if _, ok := formats[strings.ToUpper(cfg.Surface.Format)]; !ok {
		return errors.Newf("unknown surface format %q", cfg.Surface.Format)
	}
	if _, ok := colorSpaces[strings.ToUpper(cfg.Surface.ColorSpace)]; !ok {
		return errors.Newf("unknown color space %q", cfg.Surface.ColorSpace)
	}
	if _, ok := presentModes[strings.ToLower(cfg.Surface.PresentMode)]; !ok {
		return errors.Newf("unknown present mode %q", cfg.Surface.PresentMode)
	}

	for i, c := range cfg.Render.ClearColor {
		if c < 0 || c > 1 {
			return errors.Newf("render.clear_color[%d] out of range [0,1]: %g", i, c)
		}
	}

	if cfg.Assets.VertexShader == "" || cfg.Assets.FragmentShader == "" {
		return errors.New("assets.vertex_shader and assets.fragment_shader are required")
	}

	var level slog.Level
	err := level.UnmarshalText([]byte(cfg.LogLevel))
	if err != nil {
		return errors.Wrapf(err, "log_level")
	}

	return nil
}
