package domain

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/parler/internal/ports"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type audioArchive struct {
	client   ports.S3Client
	duration func(ctx context.Context, path string) (float64, error)
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewAudioArchive. duration может быть nil: тогда длительность не пишется.
func NewAudioArchive(
	client ports.S3Client,
	duration func(ctx context.Context, path string) (float64, error),
	log *zap.SugaredLogger,
) ports.AudioArchive {
	return &audioArchive{
		client:   client,
		duration: duration,
		log:      log,
		now:      time.Now,
	}
}

// ObjectKey собирает путь в бакете <conversation>/<date>/<uuid><ext>
func (a *audioArchive) ObjectKey(conversationID, filename string) string {
	date := a.now().UTC().Format("2006-01-02")
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", conversationID, date, uuid.NewString(), ext)
}

func (a *audioArchive) ArchiveRecording(ctx context.Context, conversationID, path string) (string, error) {
	if conversationID == "" {
		return "", fmt.Errorf("conversationID required")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat recording: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	meta := map[string]string{"conversation-id": conversationID}
	var seconds float64
	if a.duration != nil {
		if d, err := a.duration(ctx, path); err == nil {
			seconds = d
			meta["duration-seconds"] = fmt.Sprintf("%.2f", d)
		}
	}

	key := a.ObjectKey(conversationID, path)
	url, err := a.client.PutObject(ctx, key, f, info.Size(), contentType, meta)
	if err != nil {
		return "", err
	}

	a.log.Infow("[archive] recording stored",
		"conversation_id", conversationID,
		"size", humanize.Bytes(uint64(info.Size())),
		"seconds", seconds,
		"url", url,
	)
	return url, nil
}
