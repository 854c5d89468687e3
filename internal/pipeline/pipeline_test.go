package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vasha-ai/vasha/internal/asr"
	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/models"
	"github.com/vasha-ai/vasha/internal/mt"
	"github.com/vasha-ai/vasha/internal/stitch"
	"github.com/vasha-ai/vasha/internal/tts"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _, _ string) (asr.Result, error) {
	if f.err != nil {
		return asr.Result{}, f.err
	}
	return asr.Result{
		Text:     f.text,
		Segments: []stitch.Segment{{Start: 0, End: 2, Text: f.text}},
	}, nil
}

type fakeTranslator struct {
	prefix string
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.prefix + text, nil
}

type fakeSynth struct {
	ext string
	err error
}

func (f *fakeSynth) Ext() string { return f.ext }

func (f *fakeSynth) Synthesize(_ context.Context, _ tts.Request, dst string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, bytes.Repeat([]byte("a"), 256), 0o600)
}

type fixture struct {
	transcribers map[string]asr.Transcriber
	translators  map[string]mt.Translator
	synths       map[string]tts.Synthesizer
	lidURL       string
}

func newCoordinator(t *testing.T, fx fixture) *Coordinator {
	t.Helper()

	var cfg config.Config
	cfg.SetDefaults()
	cfg.SessionDir = filepath.Join(t.TempDir(), "sessions")
	cfg.TTS.CacheDir = filepath.Join(t.TempDir(), "tts_cache")
	cfg.Backends.LIDURL = fx.lidURL

	registry := models.NewRegistry(cfg)
	t.Cleanup(registry.Close)
	lock := registry.InferenceLock()

	mtSvc, err := mt.NewService(fx.translators, cfg.MT, lock)
	require.NoError(t, err)
	ttsSvc, err := tts.NewService(fx.synths, cfg.TTS, lock)
	require.NoError(t, err)

	return &Coordinator{
		cfg:      cfg,
		registry: registry,
		asr:      asr.NewService(fx.transcribers, cfg.ASR, lock),
		mt:       mtSvc,
		tts:      ttsSvc,
	}
}

func sampleAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o600))
	return path
}

func TestCoordinatorRun(t *testing.T) {
	t.Run("full run with synthesis", func(t *testing.T) {
		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "hello world"}},
			translators:  map[string]mt.Translator{"nllb": &fakeTranslator{prefix: "hi:"}},
			synths:       map[string]tts.Synthesizer{"gtts": &fakeSynth{ext: "mp3"}},
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{
			SourceLang: "en",
			TargetLang: "hi",
			WithTTS:    true,
		})
		require.NoError(t, err)
		require.Equal(t, StateTTSDone, session.State)
		require.Equal(t, "hello world", session.Transcript)
		require.Equal(t, "hi:hello world", session.Translation)

		require.FileExists(t, filepath.Join(session.Dir, "output_en_auto.txt"))
		require.FileExists(t, filepath.Join(session.Dir, "translation_en_to_hi.txt"))
		require.Equal(t, "translated_audio.mp3", filepath.Base(session.AudioArtifact))
		require.FileExists(t, session.AudioArtifact)
	})

	t.Run("transcription only", func(t *testing.T) {
		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "hello"}},
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{SourceLang: "en"})
		require.NoError(t, err)
		require.Equal(t, StateASRDone, session.State)
		require.Empty(t, session.Translation)
	})

	t.Run("identifies language when not given", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"language": "hi", "probability": 0.9}`))
		}))
		defer ts.Close()

		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "नमस्ते"}},
			lidURL:       ts.URL,
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{})
		require.NoError(t, err)
		require.Equal(t, "hi", session.SourceLang)
	})

	t.Run("identification failure uses default when set", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"language": "", "probability": 0}`))
		}))
		defer ts.Close()

		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "hello"}},
			lidURL:       ts.URL,
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{DefaultSourceLang: "en"})
		require.NoError(t, err)
		require.Equal(t, "en", session.SourceLang)
	})

	t.Run("identification failure is fatal without default", func(t *testing.T) {
		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "hello"}},
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{})
		require.ErrorIs(t, err, models.ErrNoDetector)
		require.Equal(t, StateFailed, session.State)
	})

	t.Run("no speech fails the session", func(t *testing.T) {
		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: ""}},
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{SourceLang: "en"})
		require.ErrorIs(t, err, asr.ErrNoSpeech)
		require.Equal(t, StateFailed, session.State)
	})

	t.Run("translation outage degrades to transcript", func(t *testing.T) {
		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "hello"}},
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{
			SourceLang: "en",
			TargetLang: "fr",
		})
		require.NoError(t, err)
		require.Equal(t, StateASRDone, session.State)
		require.Empty(t, session.Translation)
		require.NoFileExists(t, filepath.Join(session.Dir, "translation_en_to_fr.txt"))
	})

	t.Run("synthesis outage degrades to text artifacts", func(t *testing.T) {
		c := newCoordinator(t, fixture{
			transcribers: map[string]asr.Transcriber{"whisper": &fakeTranscriber{text: "hello"}},
			translators:  map[string]mt.Translator{"nllb": &fakeTranslator{prefix: "fr:"}},
			synths:       map[string]tts.Synthesizer{"gtts": &fakeSynth{ext: "mp3", err: errors.New("down")}},
		})

		session, err := c.Run(context.Background(), sampleAudio(t), Options{
			SourceLang: "en",
			TargetLang: "fr",
			WithTTS:    true,
		})
		require.NoError(t, err)
		require.Equal(t, StateMTDone, session.State)
		require.Empty(t, session.AudioArtifact)
	})
}
