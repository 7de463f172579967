package turn

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/parler/internal/ports"
	"github.com/Vovarama1992/parler/internal/session"
)

// StartConversation сбрасывает сессию и заводит новый разговор
func (s *Service) StartConversation(ctx context.Context) (*ports.Conversation, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status() != session.StatusIdle {
		return nil, ErrBusy
	}

	s.session.Reset()
	conv, err := s.store.CreateConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.session.SetConversationID(conv.ID)

	s.log.Infow("[turn] conversation started", "conversation_id", conv.ID, "user_id", userID)
	return conv, nil
}

// EndConversation глушит звук и ставит разговору время окончания.
// История в сессии не трогается.
func (s *Service) EndConversation(ctx context.Context) error {
	s.speaker.Stop()

	convID, ok := s.session.ConversationID()
	if !ok {
		return nil
	}
	if err := s.store.EndConversation(ctx, convID); err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}
	s.log.Infow("[turn] conversation ended", "conversation_id", convID)
	return nil
}

// Summary перечитывает ошибки из хранилища. При сбое отдаёт локальные.
func (s *Service) Summary(ctx context.Context) Summary {
	convID, ok := s.session.ConversationID()
	if ok {
		mistakes, err := s.store.GetMistakesForConversation(ctx, convID)
		if err != nil {
			s.log.Warnw("[turn] fetch mistakes failed, using local", "conversation_id", convID, "error", err)
		} else {
			s.session.SetMistakes(mistakes)
		}
	}

	local := s.session.Mistakes()
	return Summary{Mistakes: local, Count: len(local)}
}

// Reset: новый разговор после итогов
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status() != session.StatusIdle {
		return ErrBusy
	}
	s.session.Reset()
	return nil
}
