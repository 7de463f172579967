package ports

import (
	"context"
	"time"
)

// Репозиторий Postgres
type ConversationRepo interface {
	CreateConversation(ctx context.Context, userID string) (*Conversation, error)
	SetEndedAt(ctx context.Context, conversationID string, endedAt time.Time) error

	CreateMessage(ctx context.Context, conversationID string, role Role, content string) (*Message, error)
	CreateMistake(ctx context.Context, conversationID string, messageID *string, original, correction, explanation string) (*Mistake, error)

	// оба списка в хронологическом порядке (created_at ASC)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	ListMistakes(ctx context.Context, conversationID string) ([]Mistake, error)
}
