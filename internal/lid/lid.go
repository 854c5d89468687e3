// Package lid implements spoken language identification over an
// out-of-process detection service.
package lid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vasha-ai/vasha/internal/backend"
)

// ErrNoLanguage is returned when the detector cannot identify a language,
// typically because the audio carries no usable speech.
var ErrNoLanguage = errors.New("no language detected")

// Result is one identification outcome.
type Result struct {
	Language    string  // ISO 639-1 code such as "en" or "hi"
	Probability float64 // confidence in [0, 1]
}

// Detector identifies the spoken language of an audio file.
type Detector interface {
	Detect(ctx context.Context, audioPath string) (Result, error)
}

// HTTPDetector calls a whisper-based language identification service.
type HTTPDetector struct {
	url    string
	client *http.Client
}

func NewHTTPDetector(url string, client *http.Client) *HTTPDetector {
	return &HTTPDetector{
		url:    url,
		client: client,
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, audioPath string) (Result, error) {
	var out struct {
		Language    string  `json:"language"`
		Probability float64 `json:"probability"`
	}
	err := backend.PostAudio(ctx, d.client, d.url+"/detect_language", "audio", audioPath, nil, &out)
	if err != nil {
		return Result{}, fmt.Errorf("language detection request failed: %w", err)
	}
	if out.Language == "" {
		return Result{}, ErrNoLanguage
	}

	slog.Debug("language identified", slog.String("language", out.Language),
		slog.Float64("probability", out.Probability))

	return Result{Language: out.Language, Probability: out.Probability}, nil
}
