package speech

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Language string // язык распознавания, "fr"
	Voice    string // голос синтеза, "nova"
}

// OpenAIClient: Whisper и TTS одним клиентом
type OpenAIClient struct {
	client   *openai.Client
	language string
	voice    openai.SpeechVoice
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	voice := openai.SpeechVoice(cfg.Voice)
	if voice == "" {
		voice = openai.VoiceNova
	}
	return &OpenAIClient{
		client:   openai.NewClientWithConfig(conf),
		language: cfg.Language,
		voice:    voice,
	}
}

func (c *OpenAIClient) Transcribe(ctx context.Context, filePath string) (string, error) {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", filePath, ErrNoArtifact)
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filePath,
		Language: c.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return resp.Text, nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, outPath string) error {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("tts: %w", err)
	}
	defer resp.Close()

	return writeAudio(outPath, resp)
}
