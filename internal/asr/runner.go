package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/fallback"
	"github.com/vasha-ai/vasha/internal/media"
	"github.com/vasha-ai/vasha/internal/metrics"
	"github.com/vasha-ai/vasha/internal/segment"
	"github.com/vasha-ai/vasha/internal/stitch"
)

// ErrNoSpeech is returned when every window transcribed to an empty string.
var ErrNoSpeech = errors.New("no speech recognized")

// Service runs chunked speech recognition across the configured engines.
type Service struct {
	transcribers map[string]Transcriber
	cfg          config.ASRConfig
	lock         sync.Locker
}

func NewService(transcribers map[string]Transcriber, cfg config.ASRConfig, lock sync.Locker) *Service {
	return &Service{
		transcribers: transcribers,
		cfg:          cfg,
		lock:         lock,
	}
}

func (s *Service) backends(language, pinned string) ([]string, error) {
	var names []string
	if pinned != "" {
		names = []string{pinned}
	} else {
		names = SelectBackends(language)
	}

	var avail []string
	for _, name := range names {
		if _, ok := s.transcribers[name]; ok {
			avail = append(avail, name)
		}
	}
	if len(avail) == 0 {
		return nil, fmt.Errorf("no speech recognition engine available for language %q", language)
	}
	return avail, nil
}

// Run transcribes audioPath in the given ISO 639-1 language. Long inputs are
// split into overlapping windows, recognized window by window with fallback
// across engines, and stitched back into a single transcript. A window whose
// engines all fail contributes nothing rather than failing the run.
func (s *Service) Run(ctx context.Context, audioPath, language, workDir string) ([]stitch.Segment, string, error) {
	return s.run(ctx, audioPath, language, s.cfg.Backend, workDir)
}

// RunWithBackend is Run with the engine pinned for this call only,
// overriding any configured pin.
func (s *Service) RunWithBackend(ctx context.Context, audioPath, language, backend, workDir string) ([]stitch.Segment, string, error) {
	if backend == "" {
		backend = s.cfg.Backend
	}
	return s.run(ctx, audioPath, language, backend, workDir)
}

func (s *Service) run(ctx context.Context, audioPath, language, pinned, workDir string) ([]stitch.Segment, string, error) {
	defer metrics.ObserveStage("asr", time.Now())

	names, err := s.backends(language, pinned)
	if err != nil {
		return nil, "", err
	}

	duration := media.Duration(ctx, audioPath)
	windows := segment.Windows(duration, s.cfg.ChunkLen, s.cfg.Overlap)

	slog.Info("starting speech recognition",
		slog.Float64("duration", duration),
		slog.Int("windows", len(windows)),
		slog.Any("backends", names))

	results := make([]stitch.WindowResult, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, w := range windows {
		w := w
		g.Go(func() error {
			path := audioPath
			if len(windows) > 1 {
				path = filepath.Join(workDir, fmt.Sprintf("chunk_%03d.wav", w.Index))
				if err := media.ExtractWindow(gctx, audioPath, w.ExtractStart(), w.ExtractDuration(), path); err != nil {
					return fmt.Errorf("failed to extract window %d: %w", w.Index, err)
				}
			}

			res, name, _, err := fallback.Run(gctx, "asr", names,
				func(ctx context.Context, name string) (Result, error) {
					s.lock.Lock()
					defer s.lock.Unlock()
					return s.transcribers[name].Transcribe(ctx, path, language)
				})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// Degrade to an empty window instead of failing the run.
				slog.Error("all engines failed for window, dropping it",
					slog.Int("window", w.Index), slog.String("err", err.Error()))
				metrics.RecordChunk("asr", true)
				results[w.Index] = stitch.WindowResult{Offset: w.ExtractStart()}
				return nil
			}

			slog.Debug("window transcribed", slog.Int("window", w.Index),
				slog.String("backend", name), slog.Int("segments", len(res.Segments)))
			metrics.RecordChunk("asr", false)
			results[w.Index] = stitch.WindowResult{
				Segments: res.Segments,
				Offset:   w.ExtractStart(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	segments := stitch.Segments(results, s.cfg.OverlapGuard)
	text := stitch.Transcript(results, s.cfg.OverlapGuard)
	if text == "" {
		return nil, "", ErrNoSpeech
	}

	return segments, text, nil
}
