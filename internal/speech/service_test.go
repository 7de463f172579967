package speech

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeTTS struct {
	err   error
	texts []string
}

func (f *fakeTTS) Synthesize(_ context.Context, text, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

type fakeHandle struct {
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	stopped int
}

func newFakeHandle() *fakeHandle { return &fakeHandle{done: make(chan struct{})} }

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	h.stopped++
	h.mu.Unlock()
	h.finish()
	return nil
}

func (h *fakeHandle) finish() { h.once.Do(func() { close(h.done) }) }

func (h *fakeHandle) stops() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

type fakePlayer struct {
	handles []*fakeHandle
	onPlay  func(h *fakeHandle)
}

func (p *fakePlayer) Play(context.Context, string) (Handle, error) {
	h := newFakeHandle()
	p.handles = append(p.handles, h)
	if p.onPlay != nil {
		p.onPlay(h)
	}
	return h, nil
}

func newTestService(tts TTSClient, player Player, timeout time.Duration, t *testing.T) *Service {
	return NewService(nil, tts, player, t.TempDir(), timeout, zap.NewNop().Sugar())
}

func TestSpeakResolvesOnCompletion(t *testing.T) {
	player := &fakePlayer{onPlay: func(h *fakeHandle) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			h.finish()
		}()
	}}
	svc := newTestService(&fakeTTS{}, player, time.Second, t)

	start := time.Now()
	if err := svc.Speak(context.Background(), "Bonjour"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("Speak must resolve on completion, not on timeout")
	}

	deadline := time.Now().Add(time.Second)
	for svc.slot.Active() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if svc.slot.Active() {
		t.Fatalf("finished playback must release the slot")
	}
}

func TestSpeakResolvesOnTimeout(t *testing.T) {
	player := &fakePlayer{}
	svc := newTestService(&fakeTTS{}, player, 20*time.Millisecond, t)

	if err := svc.Speak(context.Background(), "Bonjour"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	h := player.handles[0]
	if h.stops() != 0 {
		t.Fatalf("timeout must not stop the audio")
	}
	if !svc.slot.Active() {
		t.Fatalf("audio keeps playing after timeout, slot must stay occupied")
	}

	// поздний сигнал окончания безвреден
	h.finish()
	deadline := time.Now().Add(time.Second)
	for svc.slot.Active() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if svc.slot.Active() {
		t.Fatalf("late completion must release the slot")
	}
}

func TestSpeakReplacesPreviousPlayback(t *testing.T) {
	player := &fakePlayer{}
	svc := newTestService(&fakeTTS{}, player, 10*time.Millisecond, t)

	if err := svc.Speak(context.Background(), "un"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Speak(context.Background(), "deux"); err != nil {
		t.Fatal(err)
	}

	if len(player.handles) != 2 {
		t.Fatalf("handles = %d", len(player.handles))
	}
	if player.handles[0].stops() == 0 {
		t.Fatalf("previous playback must be torn down")
	}
	if player.handles[1].stops() != 0 {
		t.Fatalf("current playback must keep playing")
	}
}

func TestSpeakSynthesisError(t *testing.T) {
	player := &fakePlayer{}
	svc := newTestService(&fakeTTS{err: errors.New("tts 500")}, player, time.Second, t)

	if err := svc.Speak(context.Background(), "Bonjour"); err == nil {
		t.Fatalf("expected error")
	}
	if len(player.handles) != 0 {
		t.Fatalf("nothing must be played after a synthesis failure")
	}
}

func TestStopReleasesPlayback(t *testing.T) {
	player := &fakePlayer{}
	svc := newTestService(&fakeTTS{}, player, 10*time.Millisecond, t)

	if err := svc.Speak(context.Background(), "Bonjour"); err != nil {
		t.Fatal(err)
	}
	svc.Stop()
	svc.Stop()

	if svc.slot.Active() {
		t.Fatalf("slot must be empty after Stop")
	}
	if player.handles[0].stops() == 0 {
		t.Fatalf("handle must be stopped")
	}
}

func TestSilentPlayerCompletesImmediately(t *testing.T) {
	h, err := SilentPlayer{}.Play(context.Background(), "ignored.mp3")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("silent playback must be done at once")
	}
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

type blockingTTS struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTTS) Synthesize(_ context.Context, _, outPath string) error {
	close(b.started)
	<-b.release
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

func TestStopDuringSynthesisCancelsPlayback(t *testing.T) {
	tts := &blockingTTS{started: make(chan struct{}), release: make(chan struct{})}
	player := &fakePlayer{}
	svc := newTestService(tts, player, time.Second, t)

	errc := make(chan error, 1)
	go func() { errc <- svc.Speak(context.Background(), "Bonjour") }()

	<-tts.started
	svc.Stop()
	close(tts.release)

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Speak: %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("Speak must return at once when stopped during synthesis")
	}

	if svc.slot.Active() {
		t.Fatalf("stopped conversation must leave the slot empty")
	}
	for i, h := range player.handles {
		if h.stops() == 0 {
			t.Fatalf("handle %d keeps playing after Stop", i)
		}
	}
}

func TestSlotReplaceIfRejectsStaleEpoch(t *testing.T) {
	var slot Slot
	epoch, _ := slot.Release()

	first := newFakeHandle()
	if ok, _ := slot.ReplaceIf(epoch, first); !ok {
		t.Fatalf("current epoch must install")
	}

	if _, err := slot.Release(); err != nil {
		t.Fatal(err)
	}
	if first.stops() != 1 {
		t.Fatalf("Release must stop the occupant")
	}

	stale := newFakeHandle()
	if ok, _ := slot.ReplaceIf(epoch, stale); ok {
		t.Fatalf("stale epoch must not install")
	}
	if stale.stops() != 1 || slot.Active() {
		t.Fatalf("stale handle must be stopped and the slot stay empty")
	}
}
