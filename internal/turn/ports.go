package turn

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/parler/internal/ai"
	"github.com/Vovarama1992/parler/internal/ports"
)

var (
	ErrBusy             = errors.New("turn already in progress")
	ErrNoConversation   = errors.New("no active conversation")
	ErrNotRecording     = errors.New("not recording")
	ErrNotAuthenticated = errors.New("user not authenticated")
)

// FailureNotice: текст, который видит пользователь при любом сбое хода
const FailureNotice = "Something went wrong. Please try again."

// Шаги хода, на которых возможен сбой
const (
	StepStop                 = "stop"
	StepTranscribe           = "transcribe"
	StepSaveUserMessage      = "save_user_message"
	StepDialogue             = "dialogue"
	StepSaveAssistantMessage = "save_assistant_message"
	StepSaveMistake          = "save_mistake"
	StepSpeak                = "speak"
	StepPanic                = "panic"
)

// Failure: ход прерван. Статус к этому моменту уже idle.
type Failure struct {
	Step string
	Err  error
}

func (f *Failure) Error() string { return fmt.Sprintf("turn failed at %s: %v", f.Step, f.Err) }
func (f *Failure) Unwrap() error { return f.Err }

type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

type Dialogue interface {
	GetReply(ctx context.Context, userText string, history []ports.Message) (ai.DialogueReply, error)
}

// Speaker возвращается по окончании звука или по таймауту
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// Result: итог одного хода
type Result struct {
	Aborted          bool            `json:"aborted"`
	UserMessage      *ports.Message  `json:"user_message,omitempty"`
	AssistantMessage *ports.Message  `json:"assistant_message,omitempty"`
	Mistakes         []ports.Mistake `json:"mistakes"`
	RecordingURL     string          `json:"recording_url,omitempty"`
}

// Summary: итог разговора для экрана разбора ошибок
type Summary struct {
	Mistakes []ports.Mistake `json:"mistakes"`
	Count    int             `json:"count"`
}
