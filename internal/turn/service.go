package turn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Vovarama1992/parler/internal/capture"
	"github.com/Vovarama1992/parler/internal/error_notificator"
	"github.com/Vovarama1992/parler/internal/ports"
	"github.com/Vovarama1992/parler/internal/session"
	"go.uber.org/zap"
)

// Deps: коллабораторы хода. Archive необязателен.
type Deps struct {
	Session  *session.Session
	Recorder capture.Recorder
	STT      Transcriber
	Dialogue Dialogue
	Speaker  Speaker
	Store    ports.ConversationService
	Archive  ports.AudioArchive
	Notifier error_notificator.Notificator
	Log      *zap.SugaredLogger
}

type Service struct {
	session  *session.Session
	recorder capture.Recorder
	stt      Transcriber
	dialogue Dialogue
	speaker  Speaker
	store    ports.ConversationService
	archive  ports.AudioArchive
	notifier error_notificator.Notificator
	log      *zap.SugaredLogger

	// mu держит проверку статуса и переход как одно действие
	mu sync.Mutex
}

func NewService(d Deps) *Service {
	return &Service{
		session:  d.Session,
		recorder: d.Recorder,
		stt:      d.STT,
		dialogue: d.Dialogue,
		speaker:  d.Speaker,
		store:    d.Store,
		archive:  d.Archive,
		notifier: d.Notifier,
		log:      d.Log,
	}
}

// Snapshot: состояние для слоя представления
func (s *Service) Snapshot() session.Snapshot { return s.session.Snapshot() }

// BeginTurn запускает запись. Статус не меняется, если ход уже идёт,
// нет разговора или запись не стартовала.
func (s *Service) BeginTurn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status() != session.StatusIdle {
		return ErrBusy
	}
	convID, ok := s.session.ConversationID()
	if !ok {
		return ErrNoConversation
	}

	if err := s.recorder.Start(ctx); err != nil {
		s.log.Errorw("[turn] recorder start failed", "conversation_id", convID, "error", err)
		return fmt.Errorf("start recording: %w", err)
	}

	s.session.Transition(session.StatusIdle, session.StatusRecording)
	s.log.Infow("[turn] recording", "conversation_id", convID)
	return nil
}

// EndTurn проводит ход до конца. Результат Aborted: записи или разговора
// нет, это не ошибка. При сбое возвращается *Failure, статус уже idle.
func (s *Service) EndTurn(ctx context.Context) (*Result, error) {
	convID, path, err := s.stopRecording(ctx)
	if err != nil {
		return nil, err
	}
	if path != "" {
		// запись живёт один ход: архив и распознавание уже отработали
		defer s.removeRecording(path)
	}
	if path == "" || convID == "" {
		s.log.Infow("[turn] aborted, nothing to process", "has_artifact", path != "", "has_conversation", convID != "")
		return &Result{Aborted: true, Mistakes: []ports.Mistake{}}, nil
	}
	return s.process(ctx, convID, path)
}

// Toggle работает как кнопка записи. recording → стоп, idle → старт, иначе ничего
func (s *Service) Toggle(ctx context.Context) (*Result, error) {
	switch s.session.Status() {
	case session.StatusRecording:
		return s.EndTurn(ctx)
	case session.StatusIdle:
		return nil, s.BeginTurn(ctx)
	}
	return nil, nil
}

// stopRecording останавливает захват и переводит ход в processing.
// Без записи или разговора возвращает статус в idle.
func (s *Service) stopRecording(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status() != session.StatusRecording {
		return "", "", ErrNotRecording
	}

	path, err := s.recorder.Stop(ctx)
	if err != nil {
		s.session.Transition(session.StatusRecording, session.StatusIdle)
		s.report(ctx, "", StepStop, err)
		return "", "", &Failure{Step: StepStop, Err: err}
	}

	convID, ok := s.session.ConversationID()
	if path == "" || !ok {
		s.session.Transition(session.StatusRecording, session.StatusIdle)
		return "", path, nil
	}

	s.session.Transition(session.StatusRecording, session.StatusProcessing)
	return convID, path, nil
}

func (s *Service) process(ctx context.Context, convID, path string) (res *Result, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &Failure{Step: StepPanic, Err: fmt.Errorf("%v", r)}
			res = nil
		}
		if err != nil {
			s.session.SetLastTranscript("")
			s.session.SetStatus(session.StatusIdle)
			var f *Failure
			if errors.As(err, &f) {
				s.report(ctx, convID, f.Step, f.Err)
			}
		}
	}()

	fail := func(step string, e error) (*Result, error) {
		return nil, &Failure{Step: step, Err: e}
	}

	// голос → текст
	text, err := s.stt.Transcribe(ctx, path)
	if err != nil {
		return fail(StepTranscribe, err)
	}
	s.session.SetLastTranscript(text)
	s.log.Infow("[turn] transcribed", "conversation_id", convID, "chars", len(text), "seconds", time.Since(start).Seconds())

	res = &Result{Mistakes: []ports.Mistake{}}
	res.RecordingURL = s.archiveRecording(ctx, convID, path)

	// история до текущей реплики
	history := s.session.Messages()

	userMsg, err := s.store.SaveMessage(ctx, convID, ports.RoleUser, text)
	if err != nil {
		return fail(StepSaveUserMessage, err)
	}
	s.session.AddMessage(*userMsg)
	res.UserMessage = userMsg

	reply, err := s.dialogue.GetReply(ctx, text, history)
	if err != nil {
		return fail(StepDialogue, err)
	}

	assistantMsg, err := s.store.SaveMessage(ctx, convID, ports.RoleAssistant, reply.Reply)
	if err != nil {
		return fail(StepSaveAssistantMessage, err)
	}
	s.session.AddMessage(*assistantMsg)
	res.AssistantMessage = assistantMsg

	// порядок модели, без дедупликации
	for _, m := range reply.Mistakes {
		saved, err := s.store.SaveMistake(ctx, convID, &userMsg.ID, m.Original, m.Correction, m.Explanation)
		if err != nil {
			return fail(StepSaveMistake, err)
		}
		s.session.AddMistake(*saved)
		res.Mistakes = append(res.Mistakes, *saved)
	}

	s.session.SetLastTranscript("")
	s.session.Transition(session.StatusProcessing, session.StatusPlaying)

	if err := s.speaker.Speak(ctx, reply.Reply); err != nil {
		return fail(StepSpeak, err)
	}

	s.session.Transition(session.StatusPlaying, session.StatusIdle)
	s.log.Infow("[turn] done",
		"conversation_id", convID,
		"mistakes", len(res.Mistakes),
		"seconds", time.Since(start).Seconds(),
	)
	return res, nil
}

func (s *Service) removeRecording(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warnw("[turn] remove recording failed", "path", path, "error", err)
	}
}

// archiveRecording: best-effort, сбой не прерывает ход
func (s *Service) archiveRecording(ctx context.Context, convID, path string) string {
	if s.archive == nil {
		return ""
	}
	url, err := s.archive.ArchiveRecording(ctx, convID, path)
	if err != nil {
		s.log.Warnw("[turn] archive recording failed", "conversation_id", convID, "error", err)
		return ""
	}
	return url
}

func (s *Service) report(ctx context.Context, convID, step string, err error) {
	s.log.Errorw("[turn] failed", "conversation_id", convID, "step", step, "error", err)

	// ошибки хранилища уже ушли из ConversationService
	switch step {
	case StepSaveUserMessage, StepSaveAssistantMessage, StepSaveMistake:
		return
	}
	if s.notifier == nil {
		return
	}
	scope := "turn"
	if convID != "" {
		scope = convID
	}
	if nerr := s.notifier.Notify(ctx, scope, err, "Ошибка хода: "+step); nerr != nil {
		s.log.Warnw("[turn] notify failed", "error", nerr)
	}
}
