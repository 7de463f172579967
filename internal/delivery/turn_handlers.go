package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/parler/internal/capture"
	"github.com/Vovarama1992/parler/internal/turn"
	json "github.com/goccy/go-json"
)

const maxUploadBytes = 25 << 20 // лимит Whisper на файл

type TurnHandler struct {
	svc  TurnService
	sink AudioSink
	log  *logger.ZapLogger
}

// NewTurnHandler. sink nil: запись идёт с микрофона, PUT /turn/audio отключён
func NewTurnHandler(svc TurnService, sink AudioSink, log *logger.ZapLogger) *TurnHandler {
	return &TurnHandler{svc: svc, sink: sink, log: log}
}

// --- сессия ---

func (h *TurnHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

func (h *TurnHandler) ResetSession(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.Reset(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// --- разговор ---

func (h *TurnHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.svc.StartConversation(r.Context())
	switch {
	case errors.Is(err, turn.ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, turn.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.log.Log(logger.LogEntry{Level: "error", Message: "start conversation failed", Error: err})
		http.Error(w, "failed to start conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"conversation": conv})
}

func (h *TurnHandler) EndConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndConversation(r.Context()); err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "end conversation failed", Error: err})
		http.Error(w, "failed to end conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TurnHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Summary(r.Context()))
}

// --- ход ---

func (h *TurnHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.BeginTurn(r.Context()); err != nil {
		h.writeBeginError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.Snapshot())
}

func (h *TurnHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	if h.sink == nil {
		http.Error(w, "recorder does not accept uploads", http.StatusNotImplemented)
		return
	}

	n, err := h.sink.Append(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if errors.Is(err, capture.ErrNotRecording) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "audio upload failed", Error: err})
		http.Error(w, "failed to store audio: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bytes": n})
}

func (h *TurnHandler) Stop(w http.ResponseWriter, r *http.Request) {
	// обрыв клиента не прерывает уже начатый ход
	res, err := h.svc.EndTurn(context.WithoutCancel(r.Context()))
	h.writeTurnResult(w, res, err)
}

func (h *TurnHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Toggle(context.WithoutCancel(r.Context()))
	if err == nil && res == nil {
		writeJSON(w, http.StatusAccepted, h.svc.Snapshot())
		return
	}
	if errors.Is(err, turn.ErrNoConversation) || errors.Is(err, turn.ErrBusy) {
		h.writeBeginError(w, err)
		return
	}
	h.writeTurnResult(w, res, err)
}

func (h *TurnHandler) writeBeginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, turn.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, turn.ErrNoConversation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		// права на микрофон, отсутствующий ffmpeg и т.п.
		h.log.Log(logger.LogEntry{Level: "error", Message: "begin turn failed", Error: err})
		http.Error(w, "failed to start recording: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *TurnHandler) writeTurnResult(w http.ResponseWriter, res *turn.Result, err error) {
	var failure *turn.Failure
	switch {
	case errors.Is(err, turn.ErrNotRecording):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &failure):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": turn.FailureNotice,
			"step":  failure.Step,
		})
	case err != nil:
		h.log.Log(logger.LogEntry{Level: "error", Message: "end turn failed", Error: err})
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": turn.FailureNotice})
	case res.Aborted:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
