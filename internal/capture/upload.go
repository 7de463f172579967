package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// FileRecorder: запись, которую клиент заливает по HTTP.
// Start заводит файл, Append дописывает тело запроса, Stop отдаёт путь.
type FileRecorder struct {
	dir string
	ext string

	mu   sync.Mutex
	file *os.File
}

func NewFileRecorder(dir, ext string) *FileRecorder {
	if dir == "" {
		dir = os.TempDir()
	}
	if ext == "" {
		ext = ".m4a"
	}
	return &FileRecorder{dir: dir, ext: ext}
}

func (r *FileRecorder) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return ErrAlreadyRecording
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("recording dir: %w", err)
	}
	f, err := os.CreateTemp(r.dir, "recording-*"+r.ext)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	r.file = f
	return nil
}

// Append дописывает аудио в активную запись
func (r *FileRecorder) Append(src io.Reader) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, ErrNotRecording
	}
	n, err := io.Copy(r.file, src)
	if err != nil {
		return n, fmt.Errorf("write recording: %w", err)
	}
	return n, nil
}

func (r *FileRecorder) Stop(context.Context) (string, error) {
	r.mu.Lock()
	f := r.file
	r.file = nil
	r.mu.Unlock()

	if f == nil {
		return "", ErrNotRecording
	}

	path := f.Name()
	info, statErr := f.Stat()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close recording: %w", err)
	}
	if statErr != nil {
		return "", fmt.Errorf("stat recording: %w", statErr)
	}

	// пустой файл: записи не было
	if info.Size() == 0 {
		_ = os.Remove(path)
		return "", nil
	}
	return path, nil
}

func (r *FileRecorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}
