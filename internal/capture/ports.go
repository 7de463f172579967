package capture

import (
	"context"
	"errors"
)

var (
	ErrNotRecording     = errors.New("recorder is not active")
	ErrAlreadyRecording = errors.New("recorder is already active")
)

// Recorder: захват одной реплики пользователя.
// Stop возвращает путь к записанному файлу; пустой путь: записи нет.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (string, error)
}
