package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	AppEnv      string
	DatabaseURL string
	LocalDBPath string
	RateLimit   int

	OpenAI   OpenAIConfig
	STT      STTConfig
	TTS      TTSConfig
	Audio    AudioConfig
	S3       S3Config
	Telegram TelegramConfig
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	Temperature float32
	MaxTokens   int
}

type STTConfig struct {
	Provider       string // openai | deepgram
	Language       string
	DeepgramAPIKey string
}

type TTSConfig struct {
	Provider          string // openai | elevenlabs
	Voice             string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
}

type AudioConfig struct {
	Recorder        string // upload | ffmpeg
	RecorderInput   string
	Player          string // ffplay | none
	Dir             string
	PlaybackTimeout time.Duration
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

// Enabled: архив записей включается только при заданном бакете
func (c S3Config) Enabled() bool { return c.Endpoint != "" && c.Bucket != "" }

type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

func (c TelegramConfig) Enabled() bool { return c.BotToken != "" && c.AdminChatID != 0 }

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "prod"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LocalDBPath: getEnv("LOCAL_DB_PATH", "./data/device.db"),
		RateLimit:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			ChatModel:   getEnv("CHAT_MODEL", "gpt-4"),
			Temperature: float32(getEnvFloat("CHAT_TEMPERATURE", 0.7)),
			MaxTokens:   getEnvInt("CHAT_MAX_TOKENS", 500),
		},
		STT: STTConfig{
			Provider:       strings.ToLower(getEnv("STT_PROVIDER", "openai")),
			Language:       getEnv("STT_LANGUAGE", "fr"),
			DeepgramAPIKey: getEnv("DEEPGRAM_API_KEY", ""),
		},
		TTS: TTSConfig{
			Provider:          strings.ToLower(getEnv("TTS_PROVIDER", "openai")),
			Voice:             getEnv("TTS_VOICE", "nova"),
			ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
		},
		Audio: AudioConfig{
			Recorder:        strings.ToLower(getEnv("RECORDER", "upload")),
			RecorderInput:   getEnv("RECORDER_INPUT", ""),
			Player:          strings.ToLower(getEnv("PLAYER", "ffplay")),
			Dir:             getEnv("AUDIO_DIR", os.TempDir()),
			PlaybackTimeout: getEnvDuration("PLAYBACK_TIMEOUT", 30*time.Second),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", ""),
			Secure:    getEnvBool("S3_SECURE", true),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			AdminChatID: int64(getEnvInt("TELEGRAM_ADMIN_CHAT_ID", 0)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LocalDBPath == "" {
		return fmt.Errorf("LOCAL_DB_PATH cannot be empty")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("CHAT_MAX_TOKENS must be > 0")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	if c.Audio.PlaybackTimeout <= 0 {
		return fmt.Errorf("PLAYBACK_TIMEOUT must be > 0")
	}

	switch c.STT.Provider {
	case "openai":
	case "deepgram":
		if c.STT.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required for STT_PROVIDER=deepgram")
		}
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", c.STT.Provider)
	}

	switch c.TTS.Provider {
	case "openai":
	case "elevenlabs":
		if c.TTS.ElevenLabsAPIKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY is required for TTS_PROVIDER=elevenlabs")
		}
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.TTS.Provider)
	}

	switch c.Audio.Recorder {
	case "upload":
	case "ffmpeg":
		if c.Audio.RecorderInput == "" {
			return fmt.Errorf("RECORDER_INPUT is required for RECORDER=ffmpeg")
		}
	default:
		return fmt.Errorf("unknown RECORDER %q", c.Audio.Recorder)
	}

	if c.Audio.Player != "ffplay" && c.Audio.Player != "none" {
		return fmt.Errorf("unknown PLAYER %q", c.Audio.Player)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
