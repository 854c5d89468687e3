package asr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/stitch"
)

func TestSelectBackends(t *testing.T) {
	require.Equal(t, []string{"conformer", "whisper", "faster_whisper"}, SelectBackends("hi"))
	// Conformer-only languages still carry the whisper pair as fallback.
	require.Equal(t, []string{"conformer", "whisper", "faster_whisper"}, SelectBackends("sat"))
	require.Equal(t, []string{"whisper", "faster_whisper"}, SelectBackends("en"))
	require.Equal(t, []string{"faster_whisper", "whisper"}, SelectBackends("zz"))
}

func TestHTTPTranscriber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o600))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "hi", r.FormValue("language"))
		_, _ = w.Write([]byte(`{"text": "नमस्ते", "segments": [{"start": 0, "end": 1.5, "text": "नमस्ते"}]}`))
	}))
	defer ts.Close()

	tr := NewHTTPTranscriber("whisper", ts.URL, ts.Client())
	res, err := tr.Transcribe(context.Background(), path, "hi")
	require.NoError(t, err)
	require.Equal(t, "नमस्ते", res.Text)
	require.Equal(t, []stitch.Segment{{Start: 0, End: 1.5, Text: "नमस्ते"}}, res.Segments)
}

type fakeTranscriber struct {
	res   Result
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _, _ string) (Result, error) {
	f.calls++
	return f.res, f.err
}

func newTestService(t *testing.T, transcribers map[string]Transcriber, pinned string) (*Service, string) {
	t.Helper()
	var full config.Config
	full.SetDefaults()
	cfg := full.ASR
	cfg.Backend = pinned

	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o600))

	return NewService(transcribers, cfg, &sync.Mutex{}), path
}

func TestServiceRun(t *testing.T) {
	t.Run("primary succeeds", func(t *testing.T) {
		primary := &fakeTranscriber{res: Result{
			Text:     "hello there",
			Segments: []stitch.Segment{{Start: 0, End: 2, Text: "hello there"}},
		}}
		svc, path := newTestService(t, map[string]Transcriber{
			"whisper":        primary,
			"faster_whisper": &fakeTranscriber{},
		}, "")

		segs, text, err := svc.Run(context.Background(), path, "en", t.TempDir())
		require.NoError(t, err)
		require.Equal(t, "hello there", text)
		require.Len(t, segs, 1)
		require.Equal(t, 1, primary.calls)
	})

	t.Run("falls back to next engine", func(t *testing.T) {
		broken := &fakeTranscriber{err: errors.New("model not loaded")}
		second := &fakeTranscriber{res: Result{
			Segments: []stitch.Segment{{Start: 0, End: 1, Text: "ok"}},
		}}
		svc, path := newTestService(t, map[string]Transcriber{
			"whisper":        broken,
			"faster_whisper": second,
		}, "")

		_, text, err := svc.Run(context.Background(), path, "en", t.TempDir())
		require.NoError(t, err)
		require.Equal(t, "ok", text)
		require.Equal(t, 1, broken.calls)
		require.Equal(t, 1, second.calls)
	})

	t.Run("pinned engine only", func(t *testing.T) {
		conformer := &fakeTranscriber{res: Result{
			Segments: []stitch.Segment{{Start: 0, End: 1, Text: "ठीक"}},
		}}
		whisper := &fakeTranscriber{res: Result{
			Segments: []stitch.Segment{{Start: 0, End: 1, Text: "thik"}},
		}}
		svc, path := newTestService(t, map[string]Transcriber{
			"conformer": conformer,
			"whisper":   whisper,
		}, "conformer")

		_, text, err := svc.Run(context.Background(), path, "hi", t.TempDir())
		require.NoError(t, err)
		require.Equal(t, "ठीक", text)
		require.Zero(t, whisper.calls)
	})

	t.Run("no engine for language", func(t *testing.T) {
		svc, path := newTestService(t, map[string]Transcriber{}, "")
		_, _, err := svc.Run(context.Background(), path, "en", t.TempDir())
		require.ErrorContains(t, err, "no speech recognition engine available")
	})

	t.Run("empty transcript", func(t *testing.T) {
		svc, path := newTestService(t, map[string]Transcriber{
			"whisper": &fakeTranscriber{},
		}, "")
		_, _, err := svc.Run(context.Background(), path, "en", t.TempDir())
		require.ErrorIs(t, err, ErrNoSpeech)
	})

	t.Run("all engines failing degrades to no speech", func(t *testing.T) {
		svc, path := newTestService(t, map[string]Transcriber{
			"whisper":        &fakeTranscriber{err: errors.New("down")},
			"faster_whisper": &fakeTranscriber{err: errors.New("down")},
		}, "")
		_, _, err := svc.Run(context.Background(), path, "en", t.TempDir())
		require.ErrorIs(t, err, ErrNoSpeech)
	})
}
