// Package config carries the pipeline and server configuration, loadable
// from the environment or a YAML file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// chunking defaults, in seconds / characters
	ChunkLenDefault     = 120.0
	OverlapDefault      = 5.0
	OverlapGuardDefault = 0.3
	MTChunkCharsDefault = 1800
	TTSChunkCharsDefault = 700
)

// BackendsConfig holds the endpoints of the out-of-process inference
// services. Empty URLs mark a backend as unavailable; the selectors skip it.
type BackendsConfig struct {
	LIDURL           string `yaml:"lid_url"`
	WhisperURL       string `yaml:"whisper_url"`
	FasterWhisperURL string `yaml:"faster_whisper_url"`
	ConformerURL     string `yaml:"conformer_url"`
	NLLBURL          string `yaml:"nllb_url"`
	IndicTransURL    string `yaml:"indictrans_url"`
	GoogleMTURL      string `yaml:"google_mt_url"`
	XTTSURL          string `yaml:"xtts_url"`
	ParlerURL        string `yaml:"parler_url"`
	GTTSURL          string `yaml:"gtts_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

type ASRConfig struct {
	// ChunkLen/Overlap control the audio segmenter, in seconds.
	ChunkLen float64 `yaml:"chunk_len"`
	Overlap  float64 `yaml:"overlap"`
	// OverlapGuard is the stitcher's duplicate-detection guard, in seconds.
	OverlapGuard float64 `yaml:"overlap_guard"`
	// Workers bounds parallel chunk dispatch. 1 keeps processing serial.
	Workers int `yaml:"workers"`
	// Backend pins one ASR engine, disabling fallback. Empty means auto.
	Backend string `yaml:"backend"`
}

type MTConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
	// Backend pins one MT engine ("nllb", "indic", "google"), disabling
	// fallback. Empty means auto selection by language pair.
	Backend       string `yaml:"backend"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryWaitSecs int    `yaml:"retry_wait_secs"`
	MemoCacheSize int    `yaml:"memo_cache_size"`
}

type TTSConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
	// Engine pins one synthesizer ("xtts", "indic", "gtts"). Empty means
	// auto selection by target language.
	Engine   string `yaml:"engine"`
	CacheDir string `yaml:"cache_dir"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxUploadMB  int    `yaml:"max_upload_mb"`
	LogFile      string `yaml:"log_file"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb"`
	LogMaxBackups int   `yaml:"log_max_backups"`
}

type Config struct {
	Backends   BackendsConfig `yaml:"backends"`
	ASR        ASRConfig      `yaml:"asr"`
	MT         MTConfig       `yaml:"mt"`
	TTS        TTSConfig      `yaml:"tts"`
	SessionDir string         `yaml:"session_dir"`
	Server     ServerConfig   `yaml:"server"`
}

func (c *Config) SetDefaults() {
	if c.Backends.GoogleMTURL == "" {
		c.Backends.GoogleMTURL = "https://translate.googleapis.com"
	}
	if c.Backends.GTTSURL == "" {
		c.Backends.GTTSURL = "https://translate.google.com"
	}
	if c.Backends.TimeoutSeconds == 0 {
		c.Backends.TimeoutSeconds = 600
	}

	if c.ASR.ChunkLen == 0 {
		c.ASR.ChunkLen = ChunkLenDefault
	}
	if c.ASR.Overlap == 0 {
		c.ASR.Overlap = OverlapDefault
	}
	if c.ASR.OverlapGuard == 0 {
		c.ASR.OverlapGuard = OverlapGuardDefault
	}
	if c.ASR.Workers == 0 {
		c.ASR.Workers = 1
	}

	if c.MT.MaxChunkChars == 0 {
		c.MT.MaxChunkChars = MTChunkCharsDefault
	}
	if c.MT.RetryAttempts == 0 {
		c.MT.RetryAttempts = 2
	}
	if c.MT.RetryWaitSecs == 0 {
		c.MT.RetryWaitSecs = 1
	}
	if c.MT.MemoCacheSize == 0 {
		c.MT.MemoCacheSize = 256
	}

	if c.TTS.MaxChunkChars == 0 {
		c.TTS.MaxChunkChars = TTSChunkCharsDefault
	}
	if c.TTS.CacheDir == "" {
		c.TTS.CacheDir = "tts_cache"
	}

	if c.SessionDir == "" {
		c.SessionDir = "sessions"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 64
	}
	if c.Server.LogMaxSizeMB == 0 {
		c.Server.LogMaxSizeMB = 50
	}
	if c.Server.LogMaxBackups == 0 {
		c.Server.LogMaxBackups = 3
	}
}

func (c Config) IsValid() error {
	for name, u := range map[string]string{
		"lid_url":            c.Backends.LIDURL,
		"whisper_url":        c.Backends.WhisperURL,
		"faster_whisper_url": c.Backends.FasterWhisperURL,
		"conformer_url":      c.Backends.ConformerURL,
		"nllb_url":           c.Backends.NLLBURL,
		"indictrans_url":     c.Backends.IndicTransURL,
		"google_mt_url":      c.Backends.GoogleMTURL,
		"xtts_url":           c.Backends.XTTSURL,
		"parler_url":         c.Backends.ParlerURL,
		"gtts_url":           c.Backends.GTTSURL,
	} {
		if u == "" {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil {
			return fmt.Errorf("%s parsing failed: %w", name, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s parsing failed: invalid scheme %q", name, parsed.Scheme)
		}
	}

	if c.ASR.ChunkLen <= 0 {
		return fmt.Errorf("ChunkLen should be a positive number")
	}
	if c.ASR.Overlap < 0 || c.ASR.Overlap >= c.ASR.ChunkLen {
		return fmt.Errorf("Overlap should be in the range [0, ChunkLen)")
	}
	if c.ASR.Workers < 1 {
		return fmt.Errorf("Workers should be a positive number")
	}

	switch c.ASR.Backend {
	case "", "whisper", "faster_whisper", "conformer":
	default:
		return fmt.Errorf("ASR Backend value is not valid")
	}
	switch c.MT.Backend {
	case "", "nllb", "indic", "google":
	default:
		return fmt.Errorf("MT Backend value is not valid")
	}
	switch c.TTS.Engine {
	case "", "xtts", "indic", "gtts":
	default:
		return fmt.Errorf("TTS Engine value is not valid")
	}

	if c.MT.MaxChunkChars < 1 {
		return fmt.Errorf("MT MaxChunkChars should be a positive number")
	}
	if c.TTS.MaxChunkChars < 1 {
		return fmt.Errorf("TTS MaxChunkChars should be a positive number")
	}

	return nil
}

// FromEnv builds a config from VASHA_* environment variables.
func FromEnv() Config {
	var cfg Config

	cfg.Backends.LIDURL = os.Getenv("VASHA_LID_URL")
	cfg.Backends.WhisperURL = os.Getenv("VASHA_WHISPER_URL")
	cfg.Backends.FasterWhisperURL = os.Getenv("VASHA_FASTER_WHISPER_URL")
	cfg.Backends.ConformerURL = os.Getenv("VASHA_CONFORMER_URL")
	cfg.Backends.NLLBURL = os.Getenv("VASHA_NLLB_URL")
	cfg.Backends.IndicTransURL = os.Getenv("VASHA_INDICTRANS_URL")
	cfg.Backends.GoogleMTURL = os.Getenv("VASHA_GOOGLE_MT_URL")
	cfg.Backends.XTTSURL = os.Getenv("VASHA_XTTS_URL")
	cfg.Backends.ParlerURL = os.Getenv("VASHA_PARLER_URL")
	cfg.Backends.GTTSURL = os.Getenv("VASHA_GTTS_URL")
	cfg.Backends.TimeoutSeconds, _ = strconv.Atoi(os.Getenv("VASHA_BACKEND_TIMEOUT_SECS"))

	cfg.ASR.ChunkLen, _ = strconv.ParseFloat(os.Getenv("VASHA_ASR_CHUNK_LEN"), 64)
	cfg.ASR.Overlap, _ = strconv.ParseFloat(os.Getenv("VASHA_ASR_OVERLAP"), 64)
	cfg.ASR.OverlapGuard, _ = strconv.ParseFloat(os.Getenv("VASHA_ASR_OVERLAP_GUARD"), 64)
	cfg.ASR.Workers, _ = strconv.Atoi(os.Getenv("VASHA_ASR_WORKERS"))
	cfg.ASR.Backend = os.Getenv("VASHA_ASR_BACKEND")

	cfg.MT.MaxChunkChars, _ = strconv.Atoi(os.Getenv("VASHA_MT_CHUNK_CHARS"))
	cfg.MT.Backend = os.Getenv("VASHA_MT_BACKEND")

	cfg.TTS.MaxChunkChars, _ = strconv.Atoi(os.Getenv("VASHA_TTS_CHUNK_CHARS"))
	cfg.TTS.Engine = os.Getenv("VASHA_TTS_ENGINE")
	cfg.TTS.CacheDir = os.Getenv("VASHA_TTS_CACHE_DIR")

	cfg.SessionDir = os.Getenv("VASHA_SESSION_DIR")

	cfg.Server.Addr = os.Getenv("VASHA_SERVER_ADDR")
	cfg.Server.LogFile = os.Getenv("VASHA_SERVER_LOG_FILE")
	cfg.Server.MaxUploadMB, _ = strconv.Atoi(os.Getenv("VASHA_SERVER_MAX_UPLOAD_MB"))

	return cfg
}

// LoadFile reads a YAML config file. Fields absent from the file keep their
// zero values so SetDefaults applies afterwards.
func LoadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
