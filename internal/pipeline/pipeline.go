// Package pipeline coordinates the full speech-to-speech run: language
// identification, speech recognition, translation and synthesis, with
// per-session artifact persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vasha-ai/vasha/internal/asr"
	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/lang"
	"github.com/vasha-ai/vasha/internal/media"
	"github.com/vasha-ai/vasha/internal/metrics"
	"github.com/vasha-ai/vasha/internal/models"
	"github.com/vasha-ai/vasha/internal/mt"
	"github.com/vasha-ai/vasha/internal/tts"
)

// Options parametrize one pipeline run.
type Options struct {
	// SourceLang skips language identification when set.
	SourceLang string
	// DefaultSourceLang substitutes for a failed identification instead of
	// aborting the run. Empty makes identification failures fatal.
	DefaultSourceLang string
	// TargetLang enables translation (and synthesis) when set.
	TargetLang string
	// ASRBackend pins one recognition engine for this run, overriding the
	// configured pin. Empty keeps the configured behavior.
	ASRBackend string

	WithTTS   bool
	RefAudio  string
	VoiceDesc string
}

// Coordinator drives sessions through the pipeline stages. Recognition and
// translation failures abort a session; translation chunk errors and
// synthesis failures only degrade it.
type Coordinator struct {
	cfg      config.Config
	registry *models.Registry
	asr      *asr.Service
	mt       *mt.Service
	tts      *tts.Service
}

func NewCoordinator(cfg config.Config, registry *models.Registry) (*Coordinator, error) {
	lock := registry.InferenceLock()

	mtSvc, err := mt.NewService(registry.Translators(), cfg.MT, lock)
	if err != nil {
		return nil, err
	}
	ttsSvc, err := tts.NewService(registry.Synthesizers(), cfg.TTS, lock)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		cfg:      cfg,
		registry: registry,
		asr:      asr.NewService(registry.Transcribers(), cfg.ASR, lock),
		mt:       mtSvc,
		tts:      ttsSvc,
	}, nil
}

// Run processes one media file end to end and returns the session, which
// carries the produced artifacts. The session is returned even on error so
// callers can inspect partial results.
func (c *Coordinator) Run(ctx context.Context, mediaPath string, opts Options) (*Session, error) {
	session, err := newSession(c.cfg.SessionDir)
	if err != nil {
		return nil, err
	}

	slog.Info("session started", slog.String("session", session.ID),
		slog.String("input", filepath.Base(mediaPath)))

	if err := c.run(ctx, session, mediaPath, opts); err != nil {
		session.State = StateFailed
		metrics.RecordSession(string(StateFailed))
		slog.Error("session failed", slog.String("session", session.ID),
			slog.String("err", err.Error()))
		return session, err
	}

	metrics.RecordSession(string(session.State))
	slog.Info("session finished", slog.String("session", session.ID),
		slog.String("state", string(session.State)))
	return session, nil
}

func (c *Coordinator) run(ctx context.Context, session *Session, mediaPath string, opts Options) error {
	// Selectors and voice templates key on bare ISO codes; FLORES-tagged
	// targets are reduced here and re-expanded by the MT adapters.
	opts.TargetLang = lang.ToISO(opts.TargetLang)
	session.TargetLang = opts.TargetLang

	// Normalize any container the user hands us into the 16 kHz mono WAV
	// the recognition engines expect. WAV input is taken as-is.
	wavPath := mediaPath
	var err error
	if !strings.EqualFold(filepath.Ext(mediaPath), ".wav") {
		wavPath, err = media.ExtractAudio(ctx, mediaPath, session.Dir)
		if err != nil {
			return fmt.Errorf("failed to prepare audio: %w", err)
		}
	}

	session.SourceLang, session.SourceConfidence, err = c.identify(ctx, wavPath, opts)
	if err != nil {
		return err
	}
	session.State = StateLIDDone

	session.Segments, session.Transcript, err = c.asr.RunWithBackend(ctx, wavPath, session.SourceLang, opts.ASRBackend, session.Dir)
	if err != nil {
		return fmt.Errorf("speech recognition failed: %w", err)
	}
	session.ASRBackend = opts.ASRBackend
	if session.ASRBackend == "" {
		session.ASRBackend = c.cfg.ASR.Backend
	}
	if session.ASRBackend == "" {
		session.ASRBackend = "auto"
	}
	if err := session.saveTranscript(session.ASRBackend); err != nil {
		return err
	}
	session.State = StateASRDone

	if opts.TargetLang == "" {
		return nil
	}

	translation, err := c.mt.Run(ctx, session.Transcript, session.SourceLang, opts.TargetLang)
	if err != nil {
		// Keep the transcript: a missing translation degrades the session,
		// it does not void the recognition work.
		slog.Warn("translation unavailable, keeping transcript only",
			slog.String("session", session.ID), slog.String("err", err.Error()))
		return nil
	}
	session.Translation = translation
	if err := session.saveTranslation(); err != nil {
		return err
	}
	session.State = StateMTDone

	if !opts.WithTTS || strings.TrimSpace(translation) == "" {
		return nil
	}

	artifact, err := c.tts.Run(ctx, tts.Request{
		Text:      translation,
		Language:  opts.TargetLang,
		RefAudio:  opts.RefAudio,
		VoiceDesc: opts.VoiceDesc,
	}, session.Dir)
	if err != nil {
		slog.Warn("synthesis unavailable, keeping text artifacts",
			slog.String("session", session.ID), slog.String("err", err.Error()))
		return nil
	}
	session.AudioArtifact = artifact
	session.State = StateTTSDone

	return nil
}

func (c *Coordinator) identify(ctx context.Context, wavPath string, opts Options) (string, float64, error) {
	if opts.SourceLang != "" {
		return opts.SourceLang, 0, nil
	}

	detector, err := c.registry.Detector()
	if err != nil {
		if opts.DefaultSourceLang != "" {
			return opts.DefaultSourceLang, 0, nil
		}
		return "", 0, err
	}

	res, err := detector.Detect(ctx, wavPath)
	if err != nil {
		if opts.DefaultSourceLang != "" && !errors.Is(err, context.Canceled) {
			slog.Warn("language identification failed, using default",
				slog.String("default", opts.DefaultSourceLang),
				slog.String("err", err.Error()))
			return opts.DefaultSourceLang, 0, nil
		}
		return "", 0, fmt.Errorf("language identification failed: %w", err)
	}
	return res.Language, res.Probability, nil
}
