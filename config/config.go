// Package config loads the renderer's YAML configuration.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/vkngwrapper/texturedquad/gpu"
)

// Config is the complete renderer configuration
type Config struct {
	Window     WindowConfig  `yaml:"window"`
	Frames     FramesConfig  `yaml:"frames"`
	Surface    SurfaceConfig `yaml:"surface"`
	Render     RenderConfig  `yaml:"render"`
	Assets     AssetsConfig  `yaml:"assets"`
	Validation bool          `yaml:"validation"` // enable VK_LAYER_KHRONOS_validation and the debug messenger
	LogLevel   string        `yaml:"log_level"`  // debug, info, warn, error
}

type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
}

type FramesConfig struct {
	InFlight     int           `yaml:"in_flight"`     // 2 or 3
	FenceTimeout time.Duration `yaml:"fence_timeout"` // bounds fence waits and image acquisition
}

// SurfaceConfig holds presentation preferences. Each falls back when the
// surface does not support it.
type SurfaceConfig struct {
	Format      string `yaml:"format"`       // B8G8R8A8_SRGB, B8G8R8A8_UNORM, R8G8B8A8_SRGB, R8G8B8A8_UNORM
	ColorSpace  string `yaml:"color_space"`  // SRGB_NONLINEAR
	PresentMode string `yaml:"present_mode"` // immediate, mailbox, fifo, fifo_relaxed
}

type RenderConfig struct {
	ClearColor [4]float32 `yaml:"clear_color"`
}

type AssetsConfig struct {
	VertexShader   string `yaml:"vertex_shader"`   // SPIR-V
	FragmentShader string `yaml:"fragment_shader"` // SPIR-V
	Texture        string `yaml:"texture"`         // png, jpeg, gif, bmp or webp; empty draws a checkerboard
}

var formats = map[string]gpu.Format{
	"B8G8R8A8_SRGB":  gpu.FormatB8G8R8A8SRGB,
	"B8G8R8A8_UNORM": gpu.FormatB8G8R8A8UNorm,
	"R8G8B8A8_SRGB":  gpu.FormatR8G8B8A8SRGB,
	"R8G8B8A8_UNORM": gpu.FormatR8G8B8A8UNorm,
}

var colorSpaces = map[string]gpu.ColorSpace{
	"SRGB_NONLINEAR": gpu.ColorSpaceSRGBNonlinear,
}

var presentModes = map[string]gpu.PresentMode{
	"immediate":    gpu.PresentModeImmediate,
	"mailbox":      gpu.PresentModeMailbox,
	"fifo":         gpu.PresentModeFIFO,
	"fifo_relaxed": gpu.PresentModeFIFORelaxed,
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:     "Textured Quad",
			Width:     800,
			Height:    600,
			Resizable: true,
		},
		Frames: FramesConfig{
			InFlight:     2,
			FenceTimeout: 10 * time.Second,
		},
		Surface: SurfaceConfig{
			Format:      "B8G8R8A8_SRGB",
			ColorSpace:  "SRGB_NONLINEAR",
			PresentMode: "mailbox",
		},
		Render: RenderConfig{
			ClearColor: [4]float32{0, 0, 0, 1},
		},
		Assets: AssetsConfig{
			VertexShader:   "textured_quad/shaders/vert.spv",
			FragmentShader: "textured_quad/shaders/frag.spv",
		},
		Validation: true,
		LogLevel:   "info",
	}
}

// Load reads a YAML file over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	err = Validate(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in %s", path)
	}

	return cfg, nil
}

// SurfaceFormat is the preferred format and color space. Call after Validate.
func (c *Config) SurfaceFormat() gpu.SurfaceFormat {
	return gpu.SurfaceFormat{
		Format:     formats[strings.ToUpper(c.Surface.Format)],
		ColorSpace: colorSpaces[strings.ToUpper(c.Surface.ColorSpace)],
	}
}

// PresentMode is the preferred present mode. Call after Validate.
func (c *Config) PresentMode() gpu.PresentMode {
	return presentModes[strings.ToLower(c.Surface.PresentMode)]
}

func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}

func (c *Config) WindowExtent() gpu.Extent2D {
	return gpu.Extent2D{Width: c.Window.Width, Height: c.Window.Height}
}
