// Package tts implements speech synthesis over out-of-process engines, with
// target-language engine selection, text chunking, an on-disk artifact cache
// and a fixed fallback chain ending in gTTS.
package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vasha-ai/vasha/internal/backend"
	"github.com/vasha-ai/vasha/internal/lang"
)

// ErrReferenceAudioRequired is returned by voice-cloning engines when no
// reference speaker recording was supplied.
var ErrReferenceAudioRequired = errors.New("reference audio required")

// Request describes one synthesis call.
type Request struct {
	Text     string
	Language string // ISO 639-1 target language
	// RefAudio is the path to a reference speaker recording for voice
	// cloning. Optional; required by the xtts engine.
	RefAudio string
	// VoiceDesc is a natural-language voice description for prompt-driven
	// engines. Empty picks a per-language default.
	VoiceDesc string
}

// Synthesizer renders a piece of text to an audio file at dst.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request, dst string) error
	// Ext is the container the engine produces, without the dot.
	Ext() string
}

// SelectEngines returns the ordered engine preference for a target language.
// gTTS always terminates the chain.
func SelectEngines(language, pinned string) []string {
	if pinned != "" {
		if pinned == "gtts" {
			return []string{"gtts"}
		}
		return []string{pinned, "gtts"}
	}

	// Indic targets prefer the Parler engine even when XTTS also covers
	// them; XTTS stays in the chain as the first fallback.
	var names []string
	if _, ok := lang.IndicTTSISO[language]; ok {
		names = append(names, "indic")
		if _, ok := lang.XTTSISO[language]; ok {
			names = append(names, "xtts")
		}
	} else if _, ok := lang.XTTSISO[language]; ok {
		names = append(names, "xtts")
	}
	return append(names, "gtts")
}

// XTTSSynthesizer calls an XTTS v2 voice cloning service. It uploads the
// reference speaker recording alongside the text.
type XTTSSynthesizer struct {
	url    string
	client *http.Client
}

func NewXTTSSynthesizer(url string, client *http.Client) *XTTSSynthesizer {
	return &XTTSSynthesizer{
		url:    url,
		client: client,
	}
}

func (s *XTTSSynthesizer) Ext() string { return "wav" }

func (s *XTTSSynthesizer) Synthesize(ctx context.Context, req Request, dst string) error {
	if req.RefAudio == "" {
		return ErrReferenceAudioRequired
	}

	fields := map[string]string{
		"text":     req.Text,
		"language": req.Language,
	}
	err := backend.PostAudioForFile(ctx, s.client, s.url+"/synthesize", "speaker_wav", req.RefAudio, fields, dst)
	if err != nil {
		return fmt.Errorf("xtts synthesis request failed: %w", err)
	}
	return nil
}

// ParlerSynthesizer calls an Indic Parler-TTS service driven by natural
// language voice descriptions.
type ParlerSynthesizer struct {
	url    string
	client *http.Client
}

func NewParlerSynthesizer(url string, client *http.Client) *ParlerSynthesizer {
	return &ParlerSynthesizer{
		url:    url,
		client: client,
	}
}

func (s *ParlerSynthesizer) Ext() string { return "wav" }

func (s *ParlerSynthesizer) Synthesize(ctx context.Context, req Request, dst string) error {
	desc := req.VoiceDesc
	if desc == "" {
		desc = VoiceDescription(req.Language)
	}

	payload := map[string]string{
		"text":        req.Text,
		"description": desc,
	}
	if err := backend.PostJSONForFile(ctx, s.client, s.url+"/synthesize", payload, dst); err != nil {
		return fmt.Errorf("parler synthesis request failed: %w", err)
	}
	return nil
}

// GTTSSynthesizer fetches mp3 audio from the unauthenticated Google
// translate TTS endpoint. It is the engine of last resort and supports
// nearly every target language.
type GTTSSynthesizer struct {
	baseURL string
	client  *http.Client
}

func NewGTTSSynthesizer(baseURL string, client *http.Client) *GTTSSynthesizer {
	return &GTTSSynthesizer{
		baseURL: baseURL,
		client:  client,
	}
}

func (s *GTTSSynthesizer) Ext() string { return "mp3" }

func (s *GTTSSynthesizer) Synthesize(ctx context.Context, req Request, dst string) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", req.Language)
	q.Set("q", req.Text)

	if err := backend.GetFile(ctx, s.client, s.baseURL+"/translate_tts?"+q.Encode(), dst); err != nil {
		return fmt.Errorf("gtts synthesis request failed: %w", err)
	}
	return nil
}
