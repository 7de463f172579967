package turn

import (
	"context"
	"errors"
	"testing"

	"github.com/Vovarama1992/parler/internal/ports"
	"github.com/Vovarama1992/parler/internal/session"
)

func TestStartConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.sess.AddMessage(ports.Message{ID: "old", Role: ports.RoleUser, Content: "ancien"})
	h.sess.AddMistake(ports.Mistake{ID: "old-mistake"})

	conv, err := h.svc.StartConversation(ctx)
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}
	if conv.UserID != "user-1" {
		t.Fatalf("user = %q", conv.UserID)
	}

	id, ok := h.sess.ConversationID()
	if !ok || id != conv.ID {
		t.Fatalf("session conversation = %q", id)
	}
	if len(h.sess.Messages()) != 0 || len(h.sess.Mistakes()) != 0 {
		t.Fatalf("previous history must be cleared")
	}
	if !h.sess.Initialized() {
		t.Fatalf("initialized flag must survive")
	}
}

func TestStartConversationRequiresUser(t *testing.T) {
	h := newHarness(t)
	h.sess.SetUserID("")

	if _, err := h.svc.StartConversation(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v", err)
	}
	if len(h.store.calls) != 0 {
		t.Fatalf("nothing must be created")
	}
}

func TestStartConversationBackendError(t *testing.T) {
	h := newHarness(t)
	h.store.failOn["create_conversation"] = errors.New("backend down")

	if _, err := h.svc.StartConversation(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := h.sess.ConversationID(); ok {
		t.Fatalf("failed start must leave no conversation id")
	}
}

func TestEndConversation(t *testing.T) {
	h := newHarness(t)
	h.sess.AddMessage(ports.Message{ID: "m1", Role: ports.RoleUser, Content: "Salut"})

	if err := h.svc.EndConversation(context.Background()); err != nil {
		t.Fatalf("EndConversation: %v", err)
	}
	if h.speaker.stops != 1 {
		t.Fatalf("speech must be stopped")
	}
	if _, ok := h.store.ended["conv-1"]; !ok {
		t.Fatalf("end timestamp must be persisted")
	}
	if len(h.sess.Messages()) != 1 {
		t.Fatalf("history must be untouched")
	}
}

func TestEndConversationWithoutID(t *testing.T) {
	h := newHarness(t)
	h.sess.SetConversationID("")

	if err := h.svc.EndConversation(context.Background()); err != nil {
		t.Fatalf("err = %v", err)
	}
	if h.speaker.stops != 1 {
		t.Fatalf("speech must be stopped even without a conversation")
	}
	if len(h.store.calls) != 0 {
		t.Fatalf("no backend call expected")
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("refetches authoritative list", func(t *testing.T) {
		h := newHarness(t)
		h.sess.AddMistake(ports.Mistake{ID: "local"})
		h.store.mistakesFn = func() ([]ports.Mistake, error) {
			return []ports.Mistake{{ID: "a"}, {ID: "b"}}, nil
		}

		sum := h.svc.Summary(ctx)
		if sum.Count != 2 || sum.Mistakes[0].ID != "a" || sum.Mistakes[1].ID != "b" {
			t.Fatalf("summary = %+v", sum)
		}
		if len(h.sess.Mistakes()) != 2 {
			t.Fatalf("session mistakes must be replaced")
		}
	})

	t.Run("falls back to local on error", func(t *testing.T) {
		h := newHarness(t)
		h.sess.AddMistake(ports.Mistake{ID: "local"})
		h.store.mistakesFn = func() ([]ports.Mistake, error) { return nil, errors.New("timeout") }

		sum := h.svc.Summary(ctx)
		if sum.Count != 1 || sum.Mistakes[0].ID != "local" {
			t.Fatalf("summary = %+v", sum)
		}
	})

	t.Run("no conversation", func(t *testing.T) {
		h := newHarness(t)
		h.sess.SetConversationID("")
		h.store.mistakesFn = func() ([]ports.Mistake, error) {
			t.Fatalf("backend must not be called")
			return nil, nil
		}
		if sum := h.svc.Summary(ctx); sum.Count != 0 || sum.Mistakes == nil {
			t.Fatalf("summary = %+v", sum)
		}
	})
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.sess.AddMessage(ports.Message{ID: "m1"})

	if err := h.svc.Reset(); err != nil {
		t.Fatal(err)
	}
	snap := h.sess.Snapshot()
	if snap.ConversationID != nil || len(snap.Messages) != 0 || len(snap.Mistakes) != 0 || snap.Status != session.StatusIdle {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.UserID == nil || *snap.UserID != "user-1" || !snap.Initialized {
		t.Fatalf("user and initialized must survive reset")
	}

	h.sess.SetStatus(session.StatusPlaying)
	if err := h.svc.Reset(); !errors.Is(err, ErrBusy) {
		t.Fatalf("reset during a turn err = %v", err)
	}
}
