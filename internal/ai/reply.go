package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Result это разобранный ответ модели, StructuredReply или RawReply.
// RawReply штатный вариант, а не ошибка.
type Result interface {
	DialogueReply() DialogueReply
}

type StructuredReply struct {
	Reply    string
	Mistakes []MistakeItem
}

func (r StructuredReply) DialogueReply() DialogueReply {
	mistakes := r.Mistakes
	if mistakes == nil {
		mistakes = []MistakeItem{}
	}
	return DialogueReply{Reply: r.Reply, Mistakes: mistakes}
}

// RawReply: весь текст модели идёт в ответ, ошибок нет
type RawReply struct {
	Text string
}

func (r RawReply) DialogueReply() DialogueReply {
	return DialogueReply{Reply: r.Text, Mistakes: []MistakeItem{}}
}

type wireReply struct {
	Reply    *string       `json:"reply"`
	Mistakes []MistakeItem `json:"mistakes"`
}

// ParseReply разбирает ответ модели. Не-JSON, JSON без строки reply
// и неисправимый JSON дают RawReply с исходным текстом.
func ParseReply(content string) Result {
	body := stripCodeFence(strings.TrimSpace(content))
	if !strings.HasPrefix(body, "{") {
		return RawReply{Text: content}
	}

	var w wireReply
	if err := unmarshalJSON([]byte(body), &w); err != nil || w.Reply == nil {
		return RawReply{Text: content}
	}
	return StructuredReply{Reply: *w.Reply, Mistakes: w.Mistakes}
}

// ExtractReply достаёт текст реплики из сохранённого содержимого ассистента
func ExtractReply(content string) string {
	if r, ok := ParseReply(content).(StructuredReply); ok && r.Reply != "" {
		return r.Reply
	}
	return content
}

// unmarshalJSON чинит синтаксически битый JSON через jsonrepair и пробует ещё раз
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// ```json ... ``` вокруг ответа
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
