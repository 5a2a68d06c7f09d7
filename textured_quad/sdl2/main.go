package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/texturedquad/config"
	"github.com/vkngwrapper/texturedquad/gpu"
	"github.com/vkngwrapper/texturedquad/quad"
	"github.com/vkngwrapper/texturedquad/renderer"
	"github.com/vkngwrapper/texturedquad/swapchain"
	"github.com/vkngwrapper/texturedquad/vulkan"
	"github.com/vkngwrapper/texturedquad/window"
)

func main() {
	// SDL and the Vulkan surface must stay on the main thread
	runtime.LockOSThread()

	configPath := flag.String("config", "", "path to a YAML config file")
	validation := flag.Bool("validation", true, "enable the Khronos validation layer")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "validation":
			cfg.Validation = *validation
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	err = config.Validate(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	gpu.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, cfg)
	if err != nil {
		logger.Error("renderer failed", "error", err, "fatal", gpu.IsFatal(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	win, err := window.New(window.Options{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Resizable: cfg.Window.Resizable,
	})
	if err != nil {
		return err
	}
	cleanup = append(cleanup, win.Destroy)

	instance, err := vulkan.NewInstance(win.SDL(), vulkan.InstanceOptions{
		ApplicationName: cfg.Window.Title,
		Validation:      cfg.Validation,
	})
	if err != nil {
		return err
	}
	cleanup = append(cleanup, instance.Destroy)

	device, err := vulkan.NewDevice(instance)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, device.Destroy)
	surface := vulkan.NewSurface(device)

	assets, err := quad.LoadAssets(ctx, cfg.Assets.VertexShader, cfg.Assets.FragmentShader, cfg.Assets.Texture)
	if err != nil {
		return errors.Wrap(err, "load assets")
	}

	prefs := swapchain.Preferences{
		Format:      cfg.SurfaceFormat(),
		PresentMode: cfg.PresentMode(),
	}
	format, err := swapchain.SelectFormat(surface, prefs)
	if err != nil {
		return err
	}

	pipeline, err := vulkan.NewPipeline(device, format.Format, assets.VertexShader, assets.FragmentShader)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, pipeline.Destroy)

	content, err := vulkan.NewQuadContent(device, pipeline, assets.Texture, cfg.Frames.InFlight, quad.NewClock())
	if err != nil {
		return err
	}
	cleanup = append(cleanup, content.Destroy)

	rc, err := renderer.New(device, surface, device, win, pipeline, content, renderer.Options{
		FramesInFlight: cfg.Frames.InFlight,
		FenceTimeout:   cfg.Frames.FenceTimeout,
		Preferences:    prefs,
		ClearColor:     gpu.ClearColor(cfg.Render.ClearColor),
	})
	if err != nil {
		return err
	}

	// From here the render session owns teardown, idle-waiting first.
	rc.Own(win, instance, device, pipeline, content)
	cleanup = nil

	runErr := rc.Run(ctx)
	closeErr := rc.Close()
	gpu.Logger().Info("frame statistics", "session", rc.ID(), "stats", rc.Stats())
	if runErr != nil {
		return runErr
	}
	return closeErr
}
