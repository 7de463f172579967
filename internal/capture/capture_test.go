package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileRecorderRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewFileRecorder(t.TempDir(), ".m4a")

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(ctx); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start err = %v", err)
	}
	if !r.Active() {
		t.Fatalf("recorder must be active")
	}

	if _, err := r.Append(strings.NewReader("part-1;")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := r.Append(strings.NewReader("part-2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	path, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if filepath.Ext(path) != ".m4a" {
		t.Fatalf("path = %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "part-1;part-2" {
		t.Fatalf("content = %q", b)
	}
	if r.Active() {
		t.Fatalf("recorder must be inactive after Stop")
	}
}

func TestFileRecorderEmptyRecording(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := NewFileRecorder(dir, "")

	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	path, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if path != "" {
		t.Fatalf("empty recording must yield no artifact, got %q", path)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("empty recording must be removed, found %d files", len(entries))
	}
}

func TestFileRecorderInactive(t *testing.T) {
	r := NewFileRecorder(t.TempDir(), "")

	if _, err := r.Append(strings.NewReader("x")); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Append err = %v", err)
	}
	if _, err := r.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Stop err = %v", err)
	}
}

func TestFFmpegRecorderSetupErrors(t *testing.T) {
	ctx := context.Background()

	if err := NewFFmpegRecorder("", "", t.TempDir()).Start(ctx); err == nil {
		t.Fatalf("missing input must fail")
	}

	r := NewFFmpegRecorder(filepath.Join(t.TempDir(), "no-such-ffmpeg"), "-f lavfi -i anullsrc", t.TempDir())
	if err := r.Start(ctx); err == nil {
		t.Fatalf("missing binary must fail")
	}
	if _, err := r.Stop(ctx); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Stop after failed Start err = %v", err)
	}
}
