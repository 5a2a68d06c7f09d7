package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/texturedquad/gpu"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.Equal(t, gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear}, cfg.SurfaceFormat())
	require.Equal(t, gpu.PresentModeMailbox, cfg.PresentMode())
	require.Equal(t, slog.LevelInfo, cfg.Level())
	require.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, cfg.WindowExtent())
	require.Equal(t, 10*time.Second, cfg.Frames.FenceTimeout)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
window:
  width: 1280
  height: 720
frames:
  in_flight: 3
  fence_timeout: 2s
surface:
  present_mode: fifo
log_level: debug
validation: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 1280, cfg.Window.Width)
	require.Equal(t, "Textured Quad", cfg.Window.Title)
	require.Equal(t, 3, cfg.Frames.InFlight)
	require.Equal(t, 2*time.Second, cfg.Frames.FenceTimeout)
	require.Equal(t, gpu.PresentModeFIFO, cfg.PresentMode())
	require.Equal(t, gpu.FormatB8G8R8A8SRGB, cfg.SurfaceFormat().Format)
	require.Equal(t, slog.LevelDebug, cfg.Level())
	require.False(t, cfg.Validation)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "one frame in flight", body: "frames:\n  in_flight: 1\n"},
		{name: "four frames in flight", body: "frames:\n  in_flight: 4\n"},
		{name: "unknown present mode", body: "surface:\n  present_mode: vsync\n"},
		{name: "unknown format", body: "surface:\n  format: RGB565\n"},
		{name: "zero window", body: "window:\n  width: 0\n"},
		{name: "negative timeout", body: "frames:\n  fence_timeout: -1s\n"},
		{name: "clear color out of range", body: "render:\n  clear_color: [0, 0, 2, 1]\n"},
		{name: "bad log level", body: "log_level: loud\n"},
		{name: "missing shader", body: "assets:\n  vertex_shader: \"\"\n"},
		{name: "not yaml", body: "window: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "textured_quad", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
