package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramInfra шлёт сбои в админский чат
type TelegramInfra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramInfra(token string, chatID int64) (*TelegramInfra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramInfra{bot: bot, chatID: chatID}, nil
}

func (i *TelegramInfra) Notify(ctx context.Context, scope string, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Ошибка (%s)\n\nОшибка: %v\n\nДетали: %s",
		scope,
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, text)); sendErr != nil {
		return fmt.Errorf("telegram send: %w", sendErr)
	}
	return nil
}

// LogInfra: всегда включённый приёмник, пишет в zap
type LogInfra struct {
	log *zap.SugaredLogger
}

func NewLogInfra(log *zap.SugaredLogger) *LogInfra {
	return &LogInfra{log: log}
}

func (i *LogInfra) Notify(_ context.Context, scope string, err error, details string) error {
	i.log.Errorw("[error_notificator] "+details, "scope", scope, "error", err)
	return nil
}
