package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/parler/internal/error_notificator"
	"github.com/Vovarama1992/parler/internal/ports"
	"go.uber.org/zap"
)

type conversationService struct {
	repo     ports.ConversationRepo
	notifier error_notificator.Notificator
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewConversationService(
	repo ports.ConversationRepo,
	n error_notificator.Notificator,
	log *zap.SugaredLogger,
) ports.ConversationService {
	return &conversationService{
		repo:     repo,
		notifier: n,
		log:      log,
		now:      time.Now,
	}
}

func (s *conversationService) CreateConversation(ctx context.Context, userID string) (*ports.Conversation, error) {
	c, err := s.repo.CreateConversation(ctx, userID)
	if err != nil {
		s.notifier.Notify(ctx, "repo", err, fmt.Sprintf("Ошибка создания разговора: user=%s", userID))
		return nil, err
	}
	s.log.Infow("[repo] conversation created", "conversation_id", c.ID, "user_id", userID)
	return c, nil
}

func (s *conversationService) EndConversation(ctx context.Context, conversationID string) error {
	if err := s.repo.SetEndedAt(ctx, conversationID, s.now()); err != nil {
		s.notifier.Notify(ctx, conversationID, err, "Ошибка завершения разговора")
		return err
	}
	s.log.Infow("[repo] conversation ended", "conversation_id", conversationID)
	return nil
}

func (s *conversationService) SaveMessage(
	ctx context.Context,
	conversationID string,
	role ports.Role,
	content string,
) (*ports.Message, error) {

	if role != ports.RoleUser && role != ports.RoleAssistant {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	m, err := s.repo.CreateMessage(ctx, conversationID, role, content)
	if err != nil {
		s.notifier.Notify(ctx, conversationID, err, fmt.Sprintf("Ошибка записи сообщения: role=%s", role))
		return nil, err
	}
	return m, nil
}

func (s *conversationService) SaveMistake(
	ctx context.Context,
	conversationID string,
	messageID *string,
	original, correction, explanation string,
) (*ports.Mistake, error) {

	m, err := s.repo.CreateMistake(ctx, conversationID, messageID, original, correction, explanation)
	if err != nil {
		s.notifier.Notify(ctx, conversationID, err, "Ошибка записи ошибки пользователя")
		return nil, err
	}
	return m, nil
}

func (s *conversationService) GetMessagesForConversation(ctx context.Context, conversationID string) ([]ports.Message, error) {
	return s.repo.ListMessages(ctx, conversationID)
}

func (s *conversationService) GetMistakesForConversation(ctx context.Context, conversationID string) ([]ports.Mistake, error) {
	return s.repo.ListMistakes(ctx, conversationID)
}
