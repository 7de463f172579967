package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeRecording(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("model") != "whisper-1" || r.FormValue("language") != "fr" {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Je suis allé au magasin hier"}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Language: "fr"})
	text, err := c.Transcribe(context.Background(), writeRecording(t, "recording.m4a"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Je suis allé au magasin hier" {
		t.Fatalf("text = %q", text)
	}
}

func TestOpenAITranscribeMissingArtifact(t *testing.T) {
	c := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: "http://127.0.0.1:1/v1"})
	_, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.m4a"))
	if !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("err = %v, want ErrNoArtifact", err)
	}
}

func TestOpenAISynthesize(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&seen)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mp3-bytes"))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	out := filepath.Join(t.TempDir(), "cache", "tts_response.mp3")
	if err := c.Synthesize(context.Background(), "Bonjour", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "ID3-mp3-bytes" {
		t.Fatalf("audio = %q", b)
	}
	if seen["model"] != "tts-1" || seen["voice"] != "nova" || seen["input"] != "Bonjour" {
		t.Fatalf("unexpected request %v", seen)
	}
}

func TestOpenAISynthesizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	if err := c.Synthesize(context.Background(), "Bonjour", filepath.Join(t.TempDir(), "out.mp3")); err == nil {
		t.Fatalf("non-success status must be an error")
	}
}

func TestDeepgramTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token dg-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"err_msg":"unauthorized"}`))
			return
		}
		if r.URL.Query().Get("language") != "fr" || r.Header.Get("Content-Type") != "audio/mp4" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "fake-audio" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"Bonjour"}]}]}}`))
	}))
	defer srv.Close()

	path := writeRecording(t, "recording.m4a")

	text, err := NewDeepgramClient("dg-key", "fr", srv.URL).Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Bonjour" {
		t.Fatalf("text = %q", text)
	}

	if _, err := NewDeepgramClient("wrong", "fr", srv.URL).Transcribe(context.Background(), path); err == nil {
		t.Fatalf("non-success status must be an error")
	}
	if _, err := NewDeepgramClient("dg-key", "fr", srv.URL).Transcribe(context.Background(), path+".missing"); !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("err = %v, want ErrNoArtifact", err)
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" || r.Header.Get("xi-api-key") != "el-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("forbidden"))
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["text"] != `Qu'as-tu "acheté"?` {
			http.Error(w, "bad text", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "reply.mp3")
	if err := NewElevenLabsClient("el-key", "voice-1", srv.URL).Synthesize(context.Background(), `Qu'as-tu "acheté"?`, out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if b, _ := os.ReadFile(out); string(b) != "mp3" {
		t.Fatalf("audio = %q", b)
	}

	if err := NewElevenLabsClient("bad", "voice-1", srv.URL).Synthesize(context.Background(), "x", out); err == nil {
		t.Fatalf("non-success status must be an error")
	}
}
