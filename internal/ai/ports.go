package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyReply = errors.New("no response from dialogue service")

// Completer: чат-модель
type Completer interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// MistakeItem: одна найденная ошибка до сохранения
type MistakeItem struct {
	Original    string `json:"original"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

// DialogueReply: ответ собеседника и ошибки пользователя, в порядке модели
type DialogueReply struct {
	Reply    string        `json:"reply"`
	Mistakes []MistakeItem `json:"mistakes"`
}
