package ports

import "context"

// ConversationService: клиент хранилища разговоров.
// Любая ошибка бэкенда возвращается как есть, локального fallback-хранилища нет.
type ConversationService interface {
	CreateConversation(ctx context.Context, userID string) (*Conversation, error)
	EndConversation(ctx context.Context, conversationID string) error

	SaveMessage(ctx context.Context, conversationID string, role Role, content string) (*Message, error)
	SaveMistake(ctx context.Context, conversationID string, messageID *string, original, correction, explanation string) (*Mistake, error)

	GetMessagesForConversation(ctx context.Context, conversationID string) ([]Message, error)
	GetMistakesForConversation(ctx context.Context, conversationID string) ([]Mistake, error)
}
