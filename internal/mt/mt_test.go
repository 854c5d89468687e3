package mt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasha-ai/vasha/internal/config"
)

func TestSelectBackends(t *testing.T) {
	require.Equal(t, []string{"indic", "nllb"}, SelectBackends("hi", "ta", ""))
	require.Equal(t, []string{"nllb"}, SelectBackends("en", "hi", ""))
	require.Equal(t, []string{"nllb"}, SelectBackends("en", "fr", ""))
	// A pinned engine never falls through to another one.
	require.Equal(t, []string{"google"}, SelectBackends("hi", "ta", "google"))
}

func TestNLLBTranslator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/translate", r.URL.Path)
		var req map[string]string
		require.NoError(t, jsonDecodeBody(r, &req))
		require.Equal(t, "eng_Latn", req["src_lang"])
		require.Equal(t, "hin_Deva", req["tgt_lang"])
		_, _ = w.Write([]byte(`{"translation": "नमस्ते"}`))
	}))
	defer ts.Close()

	tr := NewNLLBTranslator(ts.URL, ts.Client())
	out, err := tr.Translate(context.Background(), "hello", "en", "hi")
	require.NoError(t, err)
	require.Equal(t, "नमस्ते", out)
}

func TestGoogleTranslator(t *testing.T) {
	t.Run("parses nested response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/translate_a/single", r.URL.Path)
			require.Equal(t, "gtx", r.URL.Query().Get("client"))
			require.Equal(t, "en", r.URL.Query().Get("sl"))
			require.Equal(t, "es", r.URL.Query().Get("tl"))
			_, _ = w.Write([]byte(`[[["Hola. ","Hello. ",null],["Adiós.","Goodbye.",null]],null,"en"]`))
		}))
		defer ts.Close()

		tr := NewGoogleTranslator(ts.URL, ts.Client(), 2, time.Millisecond)
		out, err := tr.Translate(context.Background(), "Hello. Goodbye.", "en", "es")
		require.NoError(t, err)
		require.Equal(t, "Hola. Adiós.", strings.TrimSpace(out))
	})

	t.Run("retries throttled requests", func(t *testing.T) {
		var calls int
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			if calls == 1 {
				http.Error(w, "slow down", http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`[[["Hola",null]]]`))
		}))
		defer ts.Close()

		tr := NewGoogleTranslator(ts.URL, ts.Client(), 2, time.Millisecond)
		out, err := tr.Translate(context.Background(), "Hello", "en", "es")
		require.NoError(t, err)
		require.Equal(t, "Hola", out)
		require.Equal(t, 2, calls)
	})
}

type fakeTranslator struct {
	prefix string
	err    error
	calls  int
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.prefix + text, nil
}

func newTestService(t *testing.T, translators map[string]Translator, pinned string) *Service {
	t.Helper()
	var full config.Config
	full.SetDefaults()
	cfg := full.MT
	cfg.Backend = pinned

	svc, err := NewService(translators, cfg, &sync.Mutex{})
	require.NoError(t, err)
	return svc
}

func TestServiceRun(t *testing.T) {
	t.Run("same language is a no-op", func(t *testing.T) {
		svc := newTestService(t, map[string]Translator{"nllb": &fakeTranslator{}}, "")
		out, err := svc.Run(context.Background(), "hello", "en", "en")
		require.NoError(t, err)
		require.Equal(t, "hello", out)
	})

	t.Run("falls back to next engine", func(t *testing.T) {
		broken := &fakeTranslator{err: errors.New("down")}
		nllb := &fakeTranslator{prefix: "n:"}
		svc := newTestService(t, map[string]Translator{"indic": broken, "nllb": nllb}, "")

		out, err := svc.Run(context.Background(), "hello", "hi", "ta")
		require.NoError(t, err)
		require.Equal(t, "n:hello", out)
	})

	t.Run("placeholder on exhausted chunk", func(t *testing.T) {
		svc := newTestService(t, map[string]Translator{
			"nllb": &fakeTranslator{err: errors.New("down")},
		}, "")

		out, err := svc.Run(context.Background(), "hello", "en", "fr")
		require.NoError(t, err)
		require.Equal(t, PlaceholderText, out)
	})

	t.Run("auto selection never reaches google", func(t *testing.T) {
		google := &fakeTranslator{prefix: "g:"}
		svc := newTestService(t, map[string]Translator{
			"nllb":   &fakeTranslator{err: errors.New("down")},
			"google": google,
		}, "")

		out, err := svc.Run(context.Background(), "hello", "en", "fr")
		require.NoError(t, err)
		require.Equal(t, PlaceholderText, out)
		require.Zero(t, google.calls)
	})

	t.Run("pinned engine does not fall back", func(t *testing.T) {
		nllb := &fakeTranslator{err: errors.New("down")}
		google := &fakeTranslator{prefix: "g:"}
		svc := newTestService(t, map[string]Translator{"nllb": nllb, "google": google}, "nllb")

		out, err := svc.Run(context.Background(), "hello", "en", "fr")
		require.NoError(t, err)
		require.Equal(t, PlaceholderText, out)
		require.Zero(t, google.calls)
	})

	t.Run("memoizes repeated chunks", func(t *testing.T) {
		nllb := &fakeTranslator{prefix: "n:"}
		svc := newTestService(t, map[string]Translator{"nllb": nllb}, "")

		for i := 0; i < 3; i++ {
			out, err := svc.Run(context.Background(), "hello.", "en", "fr")
			require.NoError(t, err)
			require.Equal(t, "n:hello.", out)
		}
		require.Equal(t, 1, nllb.calls)
	})

	t.Run("no engine available", func(t *testing.T) {
		svc := newTestService(t, map[string]Translator{}, "")
		_, err := svc.Run(context.Background(), "hello", "en", "fr")
		require.ErrorContains(t, err, "no translation engine available")
	})
}

func jsonDecodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
