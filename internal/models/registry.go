// Package models owns the inference backend adapters. The registry builds
// adapters on first need from the configured service endpoints, reuses them
// for the process lifetime, and carries the coarse lock that serializes
// calls to engines sharing one accelerator.
package models

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/vasha-ai/vasha/internal/asr"
	"github.com/vasha-ai/vasha/internal/backend"
	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/lid"
	"github.com/vasha-ai/vasha/internal/mt"
	"github.com/vasha-ai/vasha/internal/tts"
)

// ErrNoDetector is returned when no language identification service is
// configured.
var ErrNoDetector = errors.New("no language identification service configured")

type Registry struct {
	cfg    config.Config
	client *http.Client

	mut       sync.Mutex
	inference sync.Mutex

	transcribers map[string]asr.Transcriber
	translators  map[string]mt.Translator
	synthesizers map[string]tts.Synthesizer
	detector     lid.Detector
}

func NewRegistry(cfg config.Config) *Registry {
	return &Registry{
		cfg:    cfg,
		client: backend.NewClient(cfg.Backends.TimeoutSeconds),
	}
}

// InferenceLock serializes backend calls across all pipeline stages. Engine
// services typically share one GPU; concurrent inference would thrash it.
func (r *Registry) InferenceLock() sync.Locker {
	return &r.inference
}

func (r *Registry) Detector() (lid.Detector, error) {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.detector == nil {
		if r.cfg.Backends.LIDURL == "" {
			return nil, ErrNoDetector
		}
		r.detector = lid.NewHTTPDetector(r.cfg.Backends.LIDURL, r.client)
	}
	return r.detector, nil
}

// Transcribers returns the speech recognition adapters for every configured
// engine endpoint, keyed by engine name.
func (r *Registry) Transcribers() map[string]asr.Transcriber {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.transcribers == nil {
		r.transcribers = make(map[string]asr.Transcriber)
		for name, url := range map[string]string{
			"whisper":        r.cfg.Backends.WhisperURL,
			"faster_whisper": r.cfg.Backends.FasterWhisperURL,
			"conformer":      r.cfg.Backends.ConformerURL,
		} {
			if url != "" {
				r.transcribers[name] = asr.NewHTTPTranscriber(name, url, r.client)
			}
		}
	}
	return r.transcribers
}

func (r *Registry) Translators() map[string]mt.Translator {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.translators == nil {
		r.translators = make(map[string]mt.Translator)
		if url := r.cfg.Backends.NLLBURL; url != "" {
			r.translators["nllb"] = mt.NewNLLBTranslator(url, r.client)
		}
		if url := r.cfg.Backends.IndicTransURL; url != "" {
			r.translators["indic"] = mt.NewIndicTranslator(url, r.client)
		}
		if url := r.cfg.Backends.GoogleMTURL; url != "" {
			r.translators["google"] = mt.NewGoogleTranslator(url, r.client,
				r.cfg.MT.RetryAttempts, time.Duration(r.cfg.MT.RetryWaitSecs)*time.Second)
		}
	}
	return r.translators
}

func (r *Registry) Synthesizers() map[string]tts.Synthesizer {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.synthesizers == nil {
		r.synthesizers = make(map[string]tts.Synthesizer)
		if url := r.cfg.Backends.XTTSURL; url != "" {
			r.synthesizers["xtts"] = tts.NewXTTSSynthesizer(url, r.client)
		}
		if url := r.cfg.Backends.ParlerURL; url != "" {
			r.synthesizers["indic"] = tts.NewParlerSynthesizer(url, r.client)
		}
		if url := r.cfg.Backends.GTTSURL; url != "" {
			r.synthesizers["gtts"] = tts.NewGTTSSynthesizer(url, r.client)
		}
	}
	return r.synthesizers
}

// Close releases pooled connections to the backend services.
func (r *Registry) Close() {
	r.client.CloseIdleConnections()
}
