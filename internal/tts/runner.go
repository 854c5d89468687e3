package tts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/vasha-ai/vasha/internal/cache"
	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/fallback"
	"github.com/vasha-ai/vasha/internal/media"
	"github.com/vasha-ai/vasha/internal/metrics"
	"github.com/vasha-ai/vasha/internal/segment"
)

// ArtifactBase is the stem of the assembled output file. The extension
// depends on which engine produced the parts.
const ArtifactBase = "translated_audio"

// Service runs chunked speech synthesis across the configured engines,
// reusing cached chunk artifacts.
type Service struct {
	synths map[string]Synthesizer
	cfg    config.TTSConfig
	lock   sync.Locker
	cache  *cache.Cache
}

func NewService(synths map[string]Synthesizer, cfg config.TTSConfig, lock sync.Locker) (*Service, error) {
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return &Service{
		synths: synths,
		cfg:    cfg,
		lock:   lock,
		cache:  c,
	}, nil
}

func (s *Service) engines(language string) ([]string, error) {
	names := SelectEngines(language, s.cfg.Engine)

	var avail []string
	for _, name := range names {
		if _, ok := s.synths[name]; ok {
			avail = append(avail, name)
		}
	}
	if len(avail) == 0 {
		return nil, fmt.Errorf("no synthesis engine available for language %q", language)
	}
	return avail, nil
}

// Run synthesizes req.Text in the target language and assembles the chunk
// parts into a single artifact under dir, returning its path. The artifact
// is wav unless gTTS produced every part, in which case it stays mp3.
func (s *Service) Run(ctx context.Context, req Request, dir string) (string, error) {
	defer metrics.ObserveStage("tts", time.Now())

	names, err := s.engines(req.Language)
	if err != nil {
		return "", err
	}

	chunks := segment.Chunks(req.Text, s.cfg.MaxChunkChars)
	slog.Info("starting synthesis", slog.String("language", req.Language),
		slog.Int("chunks", len(chunks)), slog.Any("engines", names))

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if hit := s.cachedChunk(req, chunk, names); hit != "" {
			metrics.RecordChunk("tts", false)
			parts = append(parts, hit)
			continue
		}
		part, _, _, err := fallback.Run(ctx, "tts", names,
			func(ctx context.Context, name string) (string, error) {
				return s.synthesizeChunk(ctx, name, req, chunk, dir)
			})
		if err != nil {
			// gTTS terminates every chain, so exhaustion is fatal.
			return "", fmt.Errorf("synthesis failed for chunk %d: %w", chunk.Index, err)
		}
		metrics.RecordChunk("tts", false)
		parts = append(parts, part)
	}

	return s.assemble(ctx, parts, dir)
}

// cachedChunk probes the artifact cache in engine preference order. The
// probe runs before the fallback walk so a hit never counts as a backend
// invocation in the attempt metrics.
func (s *Service) cachedChunk(req Request, chunk segment.Chunk, names []string) string {
	for _, name := range names {
		ext := "." + s.synths[name].Ext()
		key := cache.Key(chunk.Text, req.Language, req.VoiceDesc, name)
		if hit := s.cache.Lookup(name, key, ext); hit != "" {
			slog.Debug("synthesis cache hit", slog.String("engine", name),
				slog.Int("chunk", chunk.Index))
			return hit
		}
	}
	return ""
}

func (s *Service) synthesizeChunk(ctx context.Context, engine string, req Request, chunk segment.Chunk, dir string) (string, error) {
	synth := s.synths[engine]
	ext := "." + synth.Ext()
	key := cache.Key(chunk.Text, req.Language, req.VoiceDesc, engine)

	chunkReq := req
	chunkReq.Text = chunk.Text

	dst := filepath.Join(dir, fmt.Sprintf("tts_part_%03d%s", chunk.Index, ext))

	s.lock.Lock()
	err := synth.Synthesize(ctx, chunkReq, dst)
	s.lock.Unlock()
	if err != nil {
		return "", err
	}

	if cached, err := s.cache.Store(dst, engine, key, ext); err != nil {
		slog.Warn("failed to cache synthesis artifact", slog.String("err", err.Error()))
	} else {
		slog.Debug("synthesis artifact cached", slog.String("path", cached))
	}
	return dst, nil
}

// assemble joins the chunk parts into the final artifact. Mixed-format part
// lists are normalized to wav first; the concat demuxer needs one format.
func (s *Service) assemble(ctx context.Context, parts []string, dir string) (string, error) {
	allMP3 := true
	mixed := false
	for _, p := range parts {
		ext := filepath.Ext(p)
		if ext != ".mp3" {
			allMP3 = false
		}
		if ext != filepath.Ext(parts[0]) {
			mixed = true
		}
	}

	if mixed {
		normalized := make([]string, 0, len(parts))
		for i, p := range parts {
			if filepath.Ext(p) == ".wav" {
				normalized = append(normalized, p)
				continue
			}
			wav := filepath.Join(dir, fmt.Sprintf("tts_part_%03d_norm.wav", i))
			if err := media.ConvertToWav(ctx, p, wav); err != nil {
				return "", err
			}
			normalized = append(normalized, wav)
		}
		parts = normalized
		allMP3 = false
	}

	ext := ".wav"
	if allMP3 {
		ext = ".mp3"
	}
	out := filepath.Join(dir, ArtifactBase+ext)
	if err := media.Concat(ctx, parts, out); err != nil {
		return "", err
	}

	slog.Info("synthesis artifact assembled", slog.String("path", out),
		slog.Int("parts", len(parts)))
	return out, nil
}
