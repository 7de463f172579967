package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const ffmpegStopTimeout = 5 * time.Second

// FFmpegRecorder пишет с микрофона через ffmpeg.
// input: аргументы источника, например "-f avfoundation -i :0" или "-f pulse -i default".
type FFmpegRecorder struct {
	bin   string
	input []string
	dir   string

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan error
	path  string
}

func NewFFmpegRecorder(bin, input, dir string) *FFmpegRecorder {
	if bin == "" {
		bin = "ffmpeg"
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &FFmpegRecorder{bin: bin, input: strings.Fields(input), dir: dir}
}

func (r *FFmpegRecorder) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return ErrAlreadyRecording
	}
	if len(r.input) == 0 {
		return errors.New("ffmpeg input is not configured")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("recording dir: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("recording-%d.m4a", time.Now().UnixNano()))
	args := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, r.input...)
	args = append(args, "-ac", "1", "-c:a", "aac", path)

	// процесс живёт дольше запроса, поэтому без контекста
	cmd := exec.Command(r.bin, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		// сюда попадаем, если ffmpeg не установлен или нет доступа к устройству
		return fmt.Errorf("start %s: %w", r.bin, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	r.cmd = cmd
	r.stdin = stdin
	r.done = done
	r.path = path
	return nil
}

func (r *FFmpegRecorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	cmd, stdin, done, path := r.cmd, r.stdin, r.done, r.path
	r.cmd, r.stdin, r.done, r.path = nil, nil, nil, ""
	r.mu.Unlock()

	if cmd == nil {
		return "", ErrNotRecording
	}

	// "q": штатное завершение, ffmpeg дописывает контейнер
	_, _ = io.WriteString(stdin, "q")
	_ = stdin.Close()

	timer := time.NewTimer(ffmpegStopTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat recording: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return "", nil
	}
	return path, nil
}
