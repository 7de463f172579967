package error_notificator

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type recordingSink struct {
	calls []string
	err   error
}

func (r *recordingSink) Notify(_ context.Context, scope string, _ error, details string) error {
	r.calls = append(r.calls, scope+": "+details)
	return r.err
}

func TestServiceFansOutToAllSinks(t *testing.T) {
	failing := &recordingSink{err: errors.New("telegram down")}
	ok := &recordingSink{}

	svc := NewService(NewLogInfra(zap.NewNop().Sugar()), failing, ok)

	err := svc.Notify(context.Background(), "conv-1", errors.New("boom"), "turn failed")
	if err == nil {
		t.Fatalf("expected sink error to be reported")
	}
	if len(failing.calls) != 1 || len(ok.calls) != 1 {
		t.Fatalf("every sink must be called once, got %d and %d", len(failing.calls), len(ok.calls))
	}
	if ok.calls[0] != "conv-1: turn failed" {
		t.Errorf("unexpected notice %q", ok.calls[0])
	}
}

func TestServiceWithoutSinks(t *testing.T) {
	if err := NewService().Notify(context.Background(), "x", errors.New("e"), "d"); err != nil {
		t.Fatalf("no sinks must be a no-op, got %v", err)
	}
}
