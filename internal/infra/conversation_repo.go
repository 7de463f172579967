package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/Vovarama1992/parler/internal/ports"
)

// при равном created_at порядок фиксирует id
const (
	listMessagesQuery = `
		SELECT id::text, conversation_id::text, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	listMistakesQuery = `
		SELECT id::text, conversation_id::text, message_id::text, original, correction, explanation, created_at
		FROM mistakes
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`
)

type conversationRepo struct {
	db    *sql.DB
	clock *monotonicClock
}

func NewConversationRepo(db *sql.DB) ports.ConversationRepo {
	return &conversationRepo{db: db, clock: newMonotonicClock(time.Now)}
}

// monotonicClock выдаёт строго растущие метки с точностью postgres (мкс),
// чтобы ошибки одного хода читались в порядке записи
type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

func (r *conversationRepo) CreateConversation(ctx context.Context, userID string) (*ports.Conversation, error) {
	var c ports.Conversation
	var endedAt pq.NullTime
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO conversations (user_id, started_at)
		VALUES ($1, $2)
		RETURNING id::text, user_id::text, started_at, ended_at
	`, userID, time.Now().UTC()).Scan(&c.ID, &c.UserID, &c.StartedAt, &endedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}
	return &c, nil
}

func (r *conversationRepo) SetEndedAt(ctx context.Context, conversationID string, endedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET ended_at = $2
		WHERE id = $1
	`, conversationID, endedAt.UTC())
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, ports.ErrNotFound)
	}
	return nil
}

func (r *conversationRepo) CreateMessage(ctx context.Context, conversationID string, role ports.Role, content string) (*ports.Message, error) {
	var m ports.Message
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, conversation_id::text, role, content, created_at
	`, conversationID, string(role), content, r.clock.Next()).Scan(
		&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (r *conversationRepo) CreateMistake(
	ctx context.Context,
	conversationID string,
	messageID *string,
	original, correction, explanation string,
) (*ports.Mistake, error) {

	var m ports.Mistake
	var msgID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO mistakes (conversation_id, message_id, original, correction, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, conversation_id::text, message_id::text, original, correction, explanation, created_at
	`, conversationID, messageID, original, correction, explanation, r.clock.Next()).Scan(
		&m.ID, &m.ConversationID, &msgID, &m.Original, &m.Correction, &m.Explanation, &m.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("insert mistake: %w", err)
	}
	if msgID.Valid {
		m.MessageID = &msgID.String
	}
	return &m, nil
}

func (r *conversationRepo) ListMessages(ctx context.Context, conversationID string) ([]ports.Message, error) {
	rows, err := r.db.QueryContext(ctx, listMessagesQuery, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []ports.Message{}
	for rows.Next() {
		var m ports.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *conversationRepo) ListMistakes(ctx context.Context, conversationID string) ([]ports.Mistake, error) {
	rows, err := r.db.QueryContext(ctx, listMistakesQuery, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mistakes := []ports.Mistake{}
	for rows.Next() {
		var m ports.Mistake
		var msgID sql.NullString
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&msgID,
			&m.Original,
			&m.Correction,
			&m.Explanation,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if msgID.Valid {
			id := msgID.String
			m.MessageID = &id
		}
		mistakes = append(mistakes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mistakes, nil
}

// запись ссылается на несуществующий разговор
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
