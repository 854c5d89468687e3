// Package mt implements text translation over out-of-process engines, with
// language-pair backend selection, sentence-aware chunking and per-chunk
// fallback.
package mt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vasha-ai/vasha/internal/backend"
	"github.com/vasha-ai/vasha/internal/fallback"
	"github.com/vasha-ai/vasha/internal/lang"
)

// PlaceholderText marks a chunk whose translation failed on every engine.
// It is embedded in the output so the rest of the transcript survives.
const PlaceholderText = "[translation_error]"

// Translator translates text between two ISO 639-1 languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// SelectBackends returns the ordered engine preference for a language pair.
// A pinned engine disables fallback entirely: if the user asked for one
// engine, a silent switch to another would misrepresent the output.
func SelectBackends(source, target, pinned string) []string {
	if pinned != "" {
		return []string{pinned}
	}
	if lang.IsIndicPair(lang.ToFLORES(source), lang.ToFLORES(target)) {
		return []string{"indic", "nllb"}
	}
	return []string{"nllb"}
}

// NLLBTranslator calls an NLLB translation service. The service speaks
// FLORES-200 language codes.
type NLLBTranslator struct {
	url    string
	client *http.Client
}

func NewNLLBTranslator(url string, client *http.Client) *NLLBTranslator {
	return &NLLBTranslator{
		url:    url,
		client: client,
	}
}

func (t *NLLBTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	payload := map[string]string{
		"text":     text,
		"src_lang": lang.ToFLORES(source),
		"tgt_lang": lang.ToFLORES(target),
	}
	var out struct {
		Translation string `json:"translation"`
	}
	if err := backend.PostJSON(ctx, t.client, t.url+"/translate", payload, &out); err != nil {
		return "", fmt.Errorf("nllb translation request failed: %w", err)
	}
	return out.Translation, nil
}

// IndicTranslator calls an IndicTrans2 service for Indic-to-Indic and
// English-Indic pairs. Same wire shape as NLLB.
type IndicTranslator struct {
	url    string
	client *http.Client
}

func NewIndicTranslator(url string, client *http.Client) *IndicTranslator {
	return &IndicTranslator{
		url:    url,
		client: client,
	}
}

func (t *IndicTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	payload := map[string]string{
		"text":     text,
		"src_lang": lang.ToFLORES(source),
		"tgt_lang": lang.ToFLORES(target),
	}
	var out struct {
		Translation string `json:"translation"`
	}
	if err := backend.PostJSON(ctx, t.client, t.url+"/translate", payload, &out); err != nil {
		return "", fmt.Errorf("indictrans translation request failed: %w", err)
	}
	return out.Translation, nil
}

// GoogleTranslator uses the unauthenticated web translate endpoint as the
// network fallback of last resort. Calls are retried since the endpoint
// throttles aggressively.
type GoogleTranslator struct {
	baseURL  string
	client   *http.Client
	attempts int
	wait     time.Duration
}

func NewGoogleTranslator(baseURL string, client *http.Client, attempts int, wait time.Duration) *GoogleTranslator {
	return &GoogleTranslator{
		baseURL:  baseURL,
		client:   client,
		attempts: attempts,
		wait:     wait,
	}
}

func (t *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)
	reqURL := t.baseURL + "/translate_a/single?" + q.Encode()

	var translated string
	err := fallback.Retry(ctx, t.attempts, t.wait, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}

		translated, err = decodeGoogleResponse(resp.Body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("google translation request failed: %w", err)
	}
	return translated, nil
}

func decodeGoogleResponse(r io.Reader) (string, error) {
	// The endpoint answers with nested arrays; the translated text sits at
	// [0][i][0] for each sentence.
	var raw []any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("unexpected response shape")
	}
	sentences, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var sb strings.Builder
	for _, s := range sentences {
		pair, ok := s.([]any)
		if !ok || len(pair) == 0 {
			continue
		}
		if text, ok := pair[0].(string); ok {
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}
