package server

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vasha-ai/vasha/internal/asr"
	"github.com/vasha-ai/vasha/internal/lang"
	"github.com/vasha-ai/vasha/internal/pipeline"
)

// minUploadBytes rejects uploads too small to carry speech.
const minUploadBytes = 1024

type resultMetadata struct {
	DetectedLanguage string  `json:"detected_language"`
	Confidence       float64 `json:"confidence"`
	ASRModel         string  `json:"asr_model"`
	MTMode           string  `json:"mt_mode"`
}

type transcribeResult struct {
	Status          string         `json:"status"`
	Metadata        resultMetadata `json:"metadata"`
	TranscribedText string         `json:"transcribed_text"`
	TranslatedText  string         `json:"translated_text"`
	AudioBase64     string         `json:"audio_base64"`
	TargetLang      string         `json:"target_lang"`
}

func (s *Server) handleTranscribeTranslate(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no audio file provided"})
		return
	}

	targetLang := c.DefaultPostForm("target_lang", "en")
	mode := c.DefaultPostForm("mode", "fast")

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".wav"
	}
	tmpDir, err := os.MkdirTemp("", "vasha_upload_")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input"+ext)
	if err := c.SaveUploadedFile(file, inputPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}

	if info, err := os.Stat(inputPath); err != nil || info.Size() < minUploadBytes {
		c.JSON(http.StatusOK, gin.H{"status": "empty", "message": "Audio too short/silent"})
		return
	}

	session, err := s.runner.Run(c.Request.Context(), inputPath, pipeline.Options{
		// Streamed chunks often carry too little speech for reliable
		// identification; default instead of failing the request.
		DefaultSourceLang: "en",
		TargetLang:        targetLang,
		WithTTS:           true,
	})
	if err != nil {
		if errors.Is(err, asr.ErrNoSpeech) {
			c.JSON(http.StatusOK, gin.H{"status": "empty", "message": "No speech detected"})
			return
		}
		slog.Error("pipeline run failed", slog.String("err", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var audioB64 string
	if session.AudioArtifact != "" {
		data, err := os.ReadFile(session.AudioArtifact)
		if err != nil {
			slog.Warn("failed to read synthesis artifact",
				slog.String("err", err.Error()))
		} else {
			audioB64 = base64.StdEncoding.EncodeToString(data)
		}
	}

	c.JSON(http.StatusOK, transcribeResult{
		Status: "success",
		Metadata: resultMetadata{
			DetectedLanguage: session.SourceLang,
			Confidence:       session.SourceConfidence,
			ASRModel:         session.ASRBackend,
			MTMode:           mode,
		},
		TranscribedText: session.Transcript,
		TranslatedText:  session.Translation,
		AudioBase64:     audioB64,
		TargetLang:      lang.ToFLORES(targetLang),
	})
}
