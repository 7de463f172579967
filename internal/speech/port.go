package speech

import (
	"context"
	"errors"
)

var ErrNoArtifact = errors.New("recorded audio not found")

type STTClient interface {
	Transcribe(ctx context.Context, filePath string) (string, error) // голос → текст
}

type TTSClient interface {
	Synthesize(ctx context.Context, text, outPath string) error // текст → голос (сохраняет файл)
}

// Player запускает воспроизведение файла и сразу возвращает handle
type Player interface {
	Play(ctx context.Context, path string) (Handle, error)
}

// Handle: одно активное воспроизведение.
// Done закрывается по естественному окончанию, Stop идемпотентен.
type Handle interface {
	Done() <-chan struct{}
	Stop() error
}
