package session

import (
	"sync"

	"github.com/Vovarama1992/parler/internal/ports"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusRecording  Status = "recording"
	StatusProcessing Status = "processing"
	StatusPlaying    Status = "playing"
)

func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRecording, StatusProcessing, StatusPlaying:
		return true
	}
	return false
}

// Snapshot: состояние для слоя представления
type Snapshot struct {
	ConversationID *string         `json:"conversation_id"`
	UserID         *string         `json:"user_id"`
	Messages       []ports.Message `json:"messages"`
	Mistakes       []ports.Mistake `json:"mistakes"`
	Status         Status          `json:"status"`
	Initialized    bool            `json:"initialized"`
	LastTranscript string          `json:"last_transcript,omitempty"`
}

type Session struct {
	mu sync.RWMutex

	conversationID string
	userID         string
	messages       []ports.Message
	mistakes       []ports.Mistake
	status         Status
	initialized    bool
	lastTranscript string

	watchers []func(from, to Status)
}

func New() *Session {
	return &Session{
		messages: []ports.Message{},
		mistakes: []ports.Mistake{},
		status:   StatusIdle,
	}
}

// OnStatusChange регистрирует наблюдателя. Вызывается вне блокировки,
// в порядке переходов.
func (s *Session) OnStatusChange(fn func(from, to Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// SetConversationID: пустая строка очищает идентификатор
func (s *Session) SetConversationID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = id
}

func (s *Session) ConversationID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationID, s.conversationID != ""
}

func (s *Session) AddMessage(m ports.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *Session) AddMistake(m ports.Mistake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mistakes = append(s.mistakes, m)
}

// SetMistakes заменяет список целиком (после перечитывания из хранилища)
func (s *Session) SetMistakes(mistakes []ports.Mistake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mistakes = append([]ports.Mistake{}, mistakes...)
}

func (s *Session) Messages() []ports.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.Message{}, s.messages...)
}

func (s *Session) Mistakes() []ports.Mistake {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.Mistake{}, s.mistakes...)
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) SetStatus(status Status) {
	if !status.Valid() {
		return
	}
	s.mu.Lock()
	from := s.status
	s.status = status
	watchers := s.watchers
	s.mu.Unlock()

	s.notify(watchers, from, status)
}

// Transition меняет статус только если текущий равен from
func (s *Session) Transition(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	s.mu.Lock()
	if s.status != from {
		s.mu.Unlock()
		return false
	}
	s.status = to
	watchers := s.watchers
	s.mu.Unlock()

	s.notify(watchers, from, to)
	return true
}

func (s *Session) SetInitialized(initialized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = initialized
}

func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Session) SetLastTranscript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTranscript = text
}

// Reset очищает разговор. userID и initialized сохраняются.
func (s *Session) Reset() {
	s.mu.Lock()
	from := s.status
	s.conversationID = ""
	s.messages = []ports.Message{}
	s.mistakes = []ports.Mistake{}
	s.status = StatusIdle
	s.lastTranscript = ""
	watchers := s.watchers
	s.mu.Unlock()

	s.notify(watchers, from, StatusIdle)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Messages:    append([]ports.Message{}, s.messages...),
		Mistakes:    append([]ports.Mistake{}, s.mistakes...),
		Status:      s.status,
		Initialized: s.initialized,
	}
	if s.conversationID != "" {
		id := s.conversationID
		snap.ConversationID = &id
	}
	if s.userID != "" {
		id := s.userID
		snap.UserID = &id
	}
	if s.status == StatusProcessing {
		snap.LastTranscript = s.lastTranscript
	}
	return snap
}

func (s *Session) notify(watchers []func(from, to Status), from, to Status) {
	if from == to {
		return
	}
	for _, fn := range watchers {
		fn(from, to)
	}
}
