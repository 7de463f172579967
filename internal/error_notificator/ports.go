package error_notificator

import "context"

type Notificator interface {
	// Notify сообщает о сбое. scope это компонент или id разговора
	Notify(ctx context.Context, scope string, err error, details string) error
}
