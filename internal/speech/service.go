package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const DefaultPlaybackTimeout = 30 * time.Second

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt     STTClient
	tts     TTSClient
	player  Player
	slot    *Slot
	outPath string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewService. audioDir: куда писать синтезированный ответ (пусто: os.TempDir)
func NewService(
	stt STTClient,
	tts TTSClient,
	player Player,
	audioDir string,
	timeout time.Duration,
	log *zap.SugaredLogger,
) *Service {
	if audioDir == "" {
		audioDir = os.TempDir()
	}
	if timeout <= 0 {
		timeout = DefaultPlaybackTimeout
	}
	return &Service{
		stt:     stt,
		tts:     tts,
		player:  player,
		slot:    &Slot{},
		outPath: filepath.Join(audioDir, "tts_response.mp3"),
		timeout: timeout,
		log:     log,
	}
}

func (s *Service) Transcribe(ctx context.Context, filePath string) (string, error) {
	start := time.Now()
	text, err := s.stt.Transcribe(ctx, filePath)
	if err != nil {
		return "", err
	}
	s.log.Infow("[speech] transcribed", "chars", len(text), "seconds", time.Since(start).Seconds())
	return text, nil
}

// Speak синтезирует и проигрывает текст. Возвращается по окончании
// воспроизведения или по таймауту, что наступит раньше. После таймаута
// звук может продолжать играть.
func (s *Service) Speak(ctx context.Context, text string) error {
	// прежний звук глушим до запроса
	epoch, err := s.slot.Release()
	if err != nil {
		s.log.Warnw("[speech] stop previous playback", "error", err)
	}

	if err := s.tts.Synthesize(ctx, text, s.outPath); err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	h, err := s.player.Play(ctx, s.outPath)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	// Stop или новый Speak во время синтеза: этот звук уже не нужен
	installed, err := s.slot.ReplaceIf(epoch, h)
	if err != nil {
		s.log.Warnw("[speech] replace playback", "error", err)
	}
	if !installed {
		s.log.Infow("[speech] playback cancelled before start")
		return nil
	}

	// естественное окончание освобождает слот даже после таймаута
	go func() {
		<-h.Done()
		s.slot.ReleaseIf(h)
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-h.Done():
		return nil
	case <-timer.C:
		s.log.Warnw("[speech] playback wait timed out", "timeout", s.timeout)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop: best-effort, ошибок наружу не отдаёт
func (s *Service) Stop() {
	if _, err := s.slot.Release(); err != nil {
		s.log.Warnw("[speech] stop playback", "error", err)
	}
}
