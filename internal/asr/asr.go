// Package asr implements speech recognition over out-of-process engines,
// with language-aware backend selection, overlapped chunking and
// fallback across engines.
package asr

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vasha-ai/vasha/internal/backend"
	"github.com/vasha-ai/vasha/internal/lang"
	"github.com/vasha-ai/vasha/internal/stitch"
)

// Result is the transcription of a single audio window. Times are relative
// to the window start.
type Result struct {
	Segments []stitch.Segment
	Text     string
}

// Transcriber transcribes one audio file in the given ISO 639-1 language.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (Result, error)
}

// SelectBackends returns the ordered engine preference for a language.
// Conformer leads for the Indic languages it was trained on, with the
// whisper pair always behind it so a conformer outage degrades instead of
// failing the run. Unknown languages lead with faster-whisper, whose VAD
// copes better with unlabeled input.
func SelectBackends(language string) []string {
	if _, ok := lang.ConformerISO[language]; ok {
		return []string{"conformer", "whisper", "faster_whisper"}
	}
	if _, ok := lang.WhisperISO[language]; ok {
		return []string{"whisper", "faster_whisper"}
	}
	return []string{"faster_whisper", "whisper"}
}

type wireSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type wireResult struct {
	Text     string        `json:"text"`
	Segments []wireSegment `json:"segments"`
}

func (r wireResult) toResult() Result {
	res := Result{Text: r.Text}
	for _, s := range r.Segments {
		res.Segments = append(res.Segments, stitch.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}
	return res
}

// HTTPTranscriber calls a speech recognition service that accepts multipart
// audio uploads and returns segment-level transcripts.
type HTTPTranscriber struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPTranscriber(name, url string, client *http.Client) *HTTPTranscriber {
	return &HTTPTranscriber{
		name:   name,
		url:    url,
		client: client,
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath, language string) (Result, error) {
	fields := map[string]string{
		"response_format": "json",
	}
	if language != "" {
		fields["language"] = language
	}

	var out wireResult
	err := backend.PostAudio(ctx, t.client, t.url+"/transcribe", "audio", audioPath, fields, &out)
	if err != nil {
		return Result{}, fmt.Errorf("%s transcription request failed: %w", t.name, err)
	}

	return out.toResult(), nil
}
