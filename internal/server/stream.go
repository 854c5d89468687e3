package server

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vasha-ai/vasha/internal/asr"
	"github.com/vasha-ai/vasha/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 16,
	// Browser extensions connect from arbitrary origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamState is the per-connection configuration, mutated by control
// messages. Never shared across connections.
type streamState struct {
	targetLang     string
	asrModel       string
	partialEnabled bool
	wordTimestamps bool

	// buffers accumulates decoded audio per segment until its final chunk.
	buffers map[int][]byte
	// partialSent marks segments that already got an asr_partial, so the
	// final result goes out as an override.
	partialSent map[int]bool
}

type streamMessage struct {
	Type string `json:"type"`

	// control fields
	TargetLang     string `json:"target_lang,omitempty"`
	ASRModel       string `json:"asr_model,omitempty"`
	PartialEnabled *bool  `json:"partial_enabled,omitempty"`
	WordTimestamps *bool  `json:"word_timestamps,omitempty"`

	// audio_chunk fields
	AudioB64  string `json:"audio_b64,omitempty"`
	SegmentID int    `json:"segment_id"`
	IsFinal   bool   `json:"is_final,omitempty"`
}

type streamResponse struct {
	Type           string `json:"type"`
	SegmentID      int    `json:"segment_id"`
	Language       string `json:"language,omitempty"`
	Text           string `json:"text,omitempty"`
	TranslatedText string `json:"translated_text,omitempty"`
	Message        string `json:"message,omitempty"`
}

func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("err", err.Error()))
		return
	}
	defer conn.Close()

	slog.Info("websocket connected", slog.String("remote", conn.RemoteAddr().String()))
	defer slog.Info("websocket disconnected", slog.String("remote", conn.RemoteAddr().String()))

	state := &streamState{
		targetLang:  "en",
		buffers:     make(map[int][]byte),
		partialSent: make(map[int]bool),
	}

	// One message is processed to completion before the next is read; a
	// connection never has overlapping in-flight work.
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read ended", slog.String("err", err.Error()))
			}
			return
		}

		switch msg.Type {
		case "control":
			state.apply(msg)
		case "audio_chunk":
			s.handleAudioChunk(c, conn, state, msg)
		default:
			writeStreamError(conn, msg.SegmentID, "unknown message type "+strconv.Quote(msg.Type))
		}
	}
}

func (st *streamState) apply(msg streamMessage) {
	if msg.TargetLang != "" {
		st.targetLang = msg.TargetLang
	}
	if msg.ASRModel != "" {
		st.asrModel = msg.ASRModel
	}
	if msg.PartialEnabled != nil {
		st.partialEnabled = *msg.PartialEnabled
	}
	if msg.WordTimestamps != nil {
		st.wordTimestamps = *msg.WordTimestamps
	}
}

func (s *Server) handleAudioChunk(c *gin.Context, conn *websocket.Conn, state *streamState, msg streamMessage) {
	data, err := base64.StdEncoding.DecodeString(msg.AudioB64)
	if err != nil {
		writeStreamError(conn, msg.SegmentID, "invalid audio encoding")
		return
	}
	state.buffers[msg.SegmentID] = append(state.buffers[msg.SegmentID], data...)

	if !msg.IsFinal && !state.partialEnabled {
		return
	}

	audio := state.buffers[msg.SegmentID]
	if len(audio) < minUploadBytes {
		if msg.IsFinal {
			delete(state.buffers, msg.SegmentID)
			delete(state.partialSent, msg.SegmentID)
		}
		return
	}

	tmpDir, err := os.MkdirTemp("", "vasha_stream_")
	if err != nil {
		writeStreamError(conn, msg.SegmentID, "failed to stage audio")
		return
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "segment.wav")
	if err := os.WriteFile(inputPath, audio, 0600); err != nil {
		writeStreamError(conn, msg.SegmentID, "failed to stage audio")
		return
	}

	opts := pipeline.Options{
		DefaultSourceLang: "en",
		ASRBackend:        state.asrModel,
	}
	if msg.IsFinal {
		opts.TargetLang = state.targetLang
	}

	session, err := s.runner.Run(c.Request.Context(), inputPath, opts)
	if err != nil {
		if msg.IsFinal {
			delete(state.buffers, msg.SegmentID)
			delete(state.partialSent, msg.SegmentID)
		}
		if errors.Is(err, asr.ErrNoSpeech) {
			return
		}
		writeStreamError(conn, msg.SegmentID, err.Error())
		return
	}

	resp := streamResponse{
		SegmentID: msg.SegmentID,
		Language:  session.SourceLang,
		Text:      session.Transcript,
	}
	if msg.IsFinal {
		resp.Type = "asr_final"
		if state.partialSent[msg.SegmentID] {
			resp.Type = "asr_override"
		}
		resp.TranslatedText = session.Translation
		delete(state.buffers, msg.SegmentID)
		delete(state.partialSent, msg.SegmentID)
	} else {
		resp.Type = "asr_partial"
		state.partialSent[msg.SegmentID] = true
	}

	if err := conn.WriteJSON(resp); err != nil {
		slog.Debug("websocket write failed", slog.String("err", err.Error()))
	}
}

func writeStreamError(conn *websocket.Conn, segmentID int, message string) {
	err := conn.WriteJSON(streamResponse{
		Type:      "error",
		SegmentID: segmentID,
		Message:   message,
	})
	if err != nil {
		slog.Debug("websocket write failed", slog.String("err", err.Error()))
	}
}
