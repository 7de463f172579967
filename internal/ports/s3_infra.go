package ports

import (
	"context"
	"io"
)

// S3Client: низкоуровневый клиент к объектному хранилищу аудио
type S3Client interface {
	// PutObject загружает объект и возвращает его публичный URL.
	// size = -1, если размер неизвестен.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string, meta map[string]string) (publicURL string, err error)
}

// AudioArchive складывает записи пользователя в бакет
type AudioArchive interface {
	ArchiveRecording(ctx context.Context, conversationID, path string) (publicURL string, err error)
}
