package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/models"
	"github.com/vasha-ai/vasha/internal/pipeline"
)

func slogReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}
	return a
}

func main() {
	var (
		inputPath  = pflag.String("input", "", "path to the input audio or video file")
		configPath = pflag.String("config", "", "path to a YAML config file; environment variables apply otherwise")
		sourceLang = pflag.String("source-lang", "", "source language ISO code; detected from the audio when empty")
		targetLang = pflag.String("target-lang", "", "target language ISO code; enables translation")
		asrBackend = pflag.String("asr-backend", "", "pin one speech recognition engine (whisper, faster_whisper, conformer)")
		mtBackend  = pflag.String("mt-backend", "", "pin one translation engine (nllb, indic, google)")
		withTTS    = pflag.Bool("tts", false, "synthesize the translation to speech")
		ttsEngine  = pflag.String("tts-engine", "", "pin one synthesis engine (xtts, indic, gtts)")
		refAudio   = pflag.String("tts-speaker-wav", "", "reference speaker recording for voice cloning")
		voiceDesc  = pflag.String("tts-desc", "", "natural-language voice description for prompt-driven synthesis")
		sessionDir = pflag.String("sessions", "", "root directory for session artifacts")
		debug      = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       level,
		ReplaceAttr: slogReplaceAttr,
	}))
	slog.SetDefault(logger)

	if *inputPath == "" {
		slog.Error("missing required flag --input")
		pflag.Usage()
		os.Exit(1)
	}

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			slog.Error("failed to load config", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}
	if *asrBackend != "" {
		cfg.ASR.Backend = *asrBackend
	}
	if *mtBackend != "" {
		cfg.MT.Backend = *mtBackend
	}
	if *ttsEngine != "" {
		cfg.TTS.Engine = *ttsEngine
	}
	if *sessionDir != "" {
		cfg.SessionDir = *sessionDir
	}
	cfg.SetDefaults()
	if err := cfg.IsValid(); err != nil {
		slog.Error("invalid config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	registry := models.NewRegistry(cfg)
	defer registry.Close()

	coordinator, err := pipeline.NewCoordinator(cfg, registry)
	if err != nil {
		slog.Error("failed to create pipeline", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := coordinator.Run(ctx, *inputPath, pipeline.Options{
		SourceLang: *sourceLang,
		TargetLang: *targetLang,
		WithTTS:    *withTTS,
		RefAudio:   *refAudio,
		VoiceDesc:  *voiceDesc,
	})
	if err != nil {
		slog.Error("pipeline run failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Session folder: %s\n", session.Dir)
	fmt.Printf("Transcript (%s): %s\n", session.SourceLang, session.TranscriptFile)
	if session.TranslationFile != "" {
		fmt.Printf("Translation (%s -> %s): %s\n", session.SourceLang, session.TargetLang, session.TranslationFile)
	}
	if session.AudioArtifact != "" {
		fmt.Printf("Synthesized audio: %s\n", session.AudioArtifact)
	}
}
