// autonate-server: HTTP/WebSocket API over animation scenes
// Serves frames and render jobs, and hot-reloads scene files
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-autonate/internal/config"
	"github.com/teslashibe/go-autonate/internal/log"
	"github.com/teslashibe/go-autonate/pkg/hub"
	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
	"github.com/teslashibe/go-autonate/pkg/voiceover"
	"github.com/teslashibe/go-autonate/pkg/web"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to autonate.toml")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging and access logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *debug {
		cfg.Log.Level = "debug"
		cfg.Server.AccessLog = true
	}

	log.Init(cfg.Log.Level)
	logger := log.With("app", "autonate-server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("starting", "version", version, "addr", cfg.Server.Addr, "workers", cfg.Render.Workers)

	prober := voiceover.NewProber(cfg.Assets.Dir)
	scenes := scene.NewRegistry(logger, scene.WithDurationSource(prober))

	if cfg.Scenes.BuiltIn {
		if err := scenes.LoadBuiltIn(); err != nil {
			return fmt.Errorf("load built-in scenes: %w", err)
		}
	}
	if cfg.Scenes.Dir != "" {
		if err := scenes.LoadDir(cfg.Scenes.Dir); err != nil {
			logger.Warn("some scenes failed to load", "dir", cfg.Scenes.Dir, "error", err)
		}
	}
	logger.Info("scenes loaded", "count", scenes.Count())

	preview := hub.New("preview", logger)
	scenes.SetCallback(web.SceneNotifier(preview))

	farm := render.NewFarm(
		render.WithWorkers(cfg.Render.Workers),
		render.WithChunkSize(cfg.Render.ChunkSize),
		render.WithLogger(logger),
	)

	jobOpts := []render.JobsOption{
		render.WithUpdateFunc(web.JobNotifier(preview)),
		render.WithMaxConcurrent(cfg.Render.MaxJobs),
		render.WithJobsLogger(logger),
	}
	if cfg.Render.OutputDir != "" {
		if err := os.MkdirAll(cfg.Render.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		jobOpts = append(jobOpts, render.WithOutputDir(cfg.Render.OutputDir))
	}
	if cfg.Render.StoreFile != "" {
		store, err := render.NewJSONStore(cfg.Render.StoreFile)
		if err != nil {
			return fmt.Errorf("open job store: %w", err)
		}
		jobOpts = append(jobOpts, render.WithStore(store))
	}
	jobs := render.NewJobs(farm, jobOpts...)
	defer jobs.Close()

	if cfg.Scenes.Watch && cfg.Scenes.Dir != "" {
		w, err := scene.NewWatcher(cfg.Scenes.Dir)
		if err != nil {
			return fmt.Errorf("watch scenes: %w", err)
		}
		defer w.Close()
		go scenes.Watch(ctx, w)
		logger.Info("watching scenes", "dir", cfg.Scenes.Dir)
	}

	srv := web.NewServer(web.Config{
		Addr:      cfg.Server.Addr,
		MaxFrames: cfg.Server.MaxFrames,
		StaticDir: cfg.Server.StaticDir,
		AccessLog: cfg.Server.AccessLog,
	}, scenes, jobs,
		web.WithFarm(farm),
		web.WithHub(preview),
		web.WithLogger(logger),
	)

	return srv.Start(ctx)
}
