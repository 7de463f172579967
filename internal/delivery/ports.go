package delivery

import (
	"context"
	"io"

	"github.com/Vovarama1992/parler/internal/ports"
	"github.com/Vovarama1992/parler/internal/session"
	"github.com/Vovarama1992/parler/internal/turn"
)

type TurnService interface {
	BeginTurn(ctx context.Context) error
	EndTurn(ctx context.Context) (*turn.Result, error)
	Toggle(ctx context.Context) (*turn.Result, error)

	StartConversation(ctx context.Context) (*ports.Conversation, error)
	EndConversation(ctx context.Context) error
	Summary(ctx context.Context) turn.Summary
	Reset() error
	Snapshot() session.Snapshot
}

// AudioSink принимает запись от клиента (capture.FileRecorder)
type AudioSink interface {
	Append(src io.Reader) (int64, error)
}
