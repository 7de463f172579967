package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/parler/internal/ports"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Service struct {
	client       Completer
	systemPrompt string
	log          *zap.SugaredLogger
}

func NewService(client Completer, systemPrompt string, log *zap.SugaredLogger) *Service {
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	return &Service{
		client:       client,
		systemPrompt: systemPrompt,
		log:          log,
	}
}

// GetReply: ответ на последнюю реплику с учётом всей предыдущей истории.
// Неразборчивый ответ модели не ошибка: см. ParseReply.
func (s *Service) GetReply(ctx context.Context, userText string, history []ports.Message) (DialogueReply, error) {
	start := time.Now()

	content, err := s.client.GetCompletion(ctx, s.BuildMessages(userText, history))
	if err != nil {
		return DialogueReply{}, fmt.Errorf("dialogue: %w", err)
	}

	result := ParseReply(content)
	reply := result.DialogueReply()

	_, raw := result.(RawReply)
	s.log.Infow("[ai] reply ready",
		"history", len(history),
		"mistakes", len(reply.Mistakes),
		"raw", raw,
		"seconds", time.Since(start).Seconds(),
	)
	return reply, nil
}

// BuildMessages: системный промпт, история, последняя реплика.
// Сообщения ассистента, сохранённые как JSON, заменяются текстом reply.
func (s *Service) BuildMessages(userText string, history []ports.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: s.systemPrompt,
	})

	for _, m := range history {
		switch m.Role {
		case ports.RoleAssistant:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: ExtractReply(m.Content),
			})
		default:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			})
		}
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})
	return messages
}
