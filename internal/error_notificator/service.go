package error_notificator

import (
	"context"
	"errors"
)

// Service раздаёт уведомление во все приёмники.
// Ошибка одного приёмника не мешает остальным.
type Service struct {
	sinks []Notificator
}

func NewService(sinks ...Notificator) *Service {
	return &Service{sinks: sinks}
}

func (s *Service) Notify(ctx context.Context, scope string, err error, details string) error {
	var errs []error
	for _, sink := range s.sinks {
		if sinkErr := sink.Notify(ctx, scope, err, details); sinkErr != nil {
			errs = append(errs, sinkErr)
		}
	}
	return errors.Join(errs...)
}
