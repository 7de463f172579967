package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// FFPlayPlayer играет файл локально через ffplay
type FFPlayPlayer struct {
	bin string
}

func NewFFPlayPlayer(bin string) *FFPlayPlayer {
	if bin == "" {
		bin = "ffplay"
	}
	return &FFPlayPlayer{bin: bin}
}

func (p *FFPlayPlayer) Play(_ context.Context, path string) (Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	// контекст не передаём: звук живёт дольше запроса, глушится через Stop
	cmd := exec.Command(p.bin, "-nodisp", "-autoexit", "-loglevel", "quiet", path)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.bin, err)
	}

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type processHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	waitErr  error
	stopOnce sync.Once
}

func (h *processHandle) Done() <-chan struct{} { return h.done }

func (h *processHandle) Stop() error {
	var err error
	h.stopOnce.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}
		if killErr := h.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
			return
		}
		<-h.done
	})
	return err
}

// SilentPlayer ничего не играет: для headless-режима, когда клиент
// сам забирает аудио
type SilentPlayer struct{}

func (SilentPlayer) Play(context.Context, string) (Handle, error) {
	done := make(chan struct{})
	close(done)
	return silentHandle{done: done}, nil
}

type silentHandle struct {
	done chan struct{}
}

func (h silentHandle) Done() <-chan struct{} { return h.done }
func (h silentHandle) Stop() error           { return nil }
