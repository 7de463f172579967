package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store Store
	newID func() string
	log   *zap.SugaredLogger
}

func NewService(store Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, newID: uuid.NewString, log: log}
}

// Bootstrap выполняет анонимный вход при старте. Берём сохранённый id или заводим новый
func (s *Service) Bootstrap(ctx context.Context) (string, error) {
	userID, ok, err := s.store.AnonymousUser(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		s.log.Infow("[identity] restored anonymous user", "user_id", userID)
		return userID, nil
	}

	userID = s.newID()
	if err := s.store.SaveAnonymousUser(ctx, userID); err != nil {
		return "", err
	}

	// при гонке двух процессов побеждает первый записанный
	saved, ok, err := s.store.AnonymousUser(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("anonymous user was not persisted")
	}

	s.log.Infow("[identity] created anonymous user", "user_id", saved)
	return saved, nil
}
