package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vasha-ai/vasha/internal/stitch"
)

// State tracks how far a session has progressed. Transitions are strictly
// forward; Failed is terminal.
type State string

const (
	StateIdle    State = "idle"
	StateLIDDone State = "lid_done"
	StateASRDone State = "asr_done"
	StateMTDone  State = "mt_done"
	StateTTSDone State = "tts_done"
	StateFailed  State = "failed"
)

// Session collects everything one pipeline run produced. Artifacts live in
// Dir and outlive the process; the struct itself is per-run state.
type Session struct {
	ID    string
	Dir   string
	State State

	SourceLang string
	// SourceConfidence is the identification confidence, 0 when the source
	// language was given up front.
	SourceConfidence float64
	TargetLang       string

	// ASRBackend is the engine label the transcript file is named after:
	// the pinned engine, or "auto" when selection ran per window.
	ASRBackend string

	Transcript    string
	Segments      []stitch.Segment
	Translation   string
	AudioArtifact string

	TranscriptFile  string
	TranslationFile string
}

// newSession creates the on-disk session directory under root, named by
// creation time plus a short random suffix so concurrent runs never collide.
func newSession(root string) (*Session, error) {
	id := fmt.Sprintf("session_%s_%s",
		time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &Session{
		ID:    id,
		Dir:   dir,
		State: StateIdle,
	}, nil
}

func (s *Session) saveTranscript(backend string) error {
	name := fmt.Sprintf("output_%s_%s.txt", s.SourceLang, backend)
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, []byte(s.Transcript+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	s.TranscriptFile = path
	return nil
}

func (s *Session) saveTranslation() error {
	name := fmt.Sprintf("translation_%s_to_%s.txt", s.SourceLang, s.TargetLang)
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, []byte(s.Translation+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	s.TranslationFile = path
	return nil
}
