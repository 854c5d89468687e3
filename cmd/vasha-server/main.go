package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/models"
	"github.com/vasha-ai/vasha/internal/pipeline"
	"github.com/vasha-ai/vasha/internal/server"
)

const shutdownTimeout = 30 * time.Second

func slogReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}
	return a
}

func main() {
	var (
		configPath = pflag.String("config", "", "path to a YAML config file; environment variables apply otherwise")
		addr       = pflag.String("addr", "", "listen address, e.g. :5000")
		debug      = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			slog.Error("failed to load config", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	cfg.SetDefaults()
	if err := cfg.IsValid(); err != nil {
		slog.Error("invalid config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if cfg.Server.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Server.LogFile,
			MaxSize:    cfg.Server.LogMaxSizeMB,
			MaxBackups: cfg.Server.LogMaxBackups,
			Compress:   true,
		})
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		AddSource:   true,
		Level:       level,
		ReplaceAttr: slogReplaceAttr,
	}))
	slog.SetDefault(logger)

	registry := models.NewRegistry(cfg)
	defer registry.Close()

	coordinator, err := pipeline.NewCoordinator(cfg, registry)
	if err != nil {
		slog.Error("failed to create pipeline", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srv := server.New(cfg.Server, coordinator)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	slog.Info("server stopped")
}
