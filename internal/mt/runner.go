package mt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/fallback"
	"github.com/vasha-ai/vasha/internal/metrics"
	"github.com/vasha-ai/vasha/internal/segment"
)

// Service runs chunked translation across the configured engines, memoizing
// recent chunk translations.
type Service struct {
	translators map[string]Translator
	cfg         config.MTConfig
	lock        sync.Locker
	memo        *lru.Cache[string, string]
}

func NewService(translators map[string]Translator, cfg config.MTConfig, lock sync.Locker) (*Service, error) {
	memo, err := lru.New[string, string](cfg.MemoCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo cache: %w", err)
	}
	return &Service{
		translators: translators,
		cfg:         cfg,
		lock:        lock,
		memo:        memo,
	}, nil
}

func (s *Service) backends(source, target string) ([]string, error) {
	names := SelectBackends(source, target, s.cfg.Backend)

	var avail []string
	for _, name := range names {
		if _, ok := s.translators[name]; ok {
			avail = append(avail, name)
		}
	}
	if len(avail) == 0 {
		return nil, fmt.Errorf("no translation engine available for %s->%s", source, target)
	}
	return avail, nil
}

// Run translates text from source to target language. The text is split
// into sentence-aligned chunks; a chunk whose engines all fail is replaced
// by a placeholder so the surrounding translation survives.
func (s *Service) Run(ctx context.Context, text, source, target string) (string, error) {
	defer metrics.ObserveStage("mt", time.Now())

	if source == target {
		return text, nil
	}

	names, err := s.backends(source, target)
	if err != nil {
		return "", err
	}

	chunks := segment.Chunks(text, s.cfg.MaxChunkChars)
	slog.Info("starting translation",
		slog.String("source", source), slog.String("target", target),
		slog.Int("chunks", len(chunks)), slog.Any("backends", names))

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		key := source + "|" + target + "|" + chunk.Text
		if cached, ok := s.memo.Get(key); ok {
			parts = append(parts, cached)
			continue
		}

		translated, name, _, err := fallback.Run(ctx, "mt", names,
			func(ctx context.Context, name string) (string, error) {
				s.lock.Lock()
				defer s.lock.Unlock()
				return s.translators[name].Translate(ctx, chunk.Text, source, target)
			})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			slog.Error("all engines failed for chunk, inserting placeholder",
				slog.Int("chunk", chunk.Index), slog.String("err", err.Error()))
			metrics.RecordChunk("mt", true)
			parts = append(parts, PlaceholderText)
			continue
		}

		slog.Debug("chunk translated", slog.Int("chunk", chunk.Index),
			slog.String("backend", name))
		metrics.RecordChunk("mt", false)
		s.memo.Add(key, translated)
		parts = append(parts, translated)
	}

	return strings.TrimSpace(segment.Join(parts)), nil
}
