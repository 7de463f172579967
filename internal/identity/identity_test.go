package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "device.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteStoreSaveOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, ok, err := s.AnonymousUser(ctx); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	if err := s.SaveAnonymousUser(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAnonymousUser(ctx, "second"); err != nil {
		t.Fatal(err)
	}

	id, ok, err := s.AnonymousUser(ctx)
	if err != nil || !ok || id != "first" {
		t.Fatalf("id=%q ok=%v err=%v", id, ok, err)
	}
}

func TestBootstrapIsStableAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	s, path := newTestStore(t)

	first, err := NewService(s, log).Bootstrap(ctx)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if first == "" {
		t.Fatalf("empty user id")
	}
	s.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	second, err := NewService(reopened, log).Bootstrap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatalf("restart minted a new user: %q != %q", second, first)
	}
}

type brokenStore struct{}

func (brokenStore) AnonymousUser(context.Context) (string, bool, error) {
	return "", false, errors.New("disk full")
}
func (brokenStore) SaveAnonymousUser(context.Context, string) error { return nil }

func TestBootstrapStoreError(t *testing.T) {
	if _, err := NewService(brokenStore{}, zap.NewNop().Sugar()).Bootstrap(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
