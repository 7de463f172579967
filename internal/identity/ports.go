package identity

import "context"

// Store: локальное хранилище устройства
type Store interface {
	// AnonymousUser возвращает сохранённый id; ok=false, если его ещё нет
	AnonymousUser(ctx context.Context) (userID string, ok bool, err error)
	SaveAnonymousUser(ctx context.Context, userID string) error
}
