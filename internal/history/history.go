// Package history persists conversations: chats owned by a user and the
// ordered messages inside them. It is a collaborator of the answering
// pipeline, not part of it; the pipeline never reads or writes here itself.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a chat does not exist or belongs to a
// different user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("chat not found")

// Chat is one conversation thread.
type Chat struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	CreatedAt time.Time
}

// Message is one turn inside a chat. Sources is non-nil only on assistant
// turns that cited passages.
type Message struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	Role      string // "user" or "assistant"
	Content   string
	Sources   []SourceRef
	CreatedAt time.Time
}

// SourceRef is the stored form of a citation, kept with the assistant turn
// so past conversations replay with their evidence.
type SourceRef struct {
	FileName     string  `json:"file_name"`
	SectionLabel string  `json:"section_label"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

// Store manages chat persistence. Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// CreateChat starts a new conversation for a user.
func (s *Store) CreateChat(ctx context.Context, userID, title string) (*Chat, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	chat := &Chat{ID: uuid.New(), UserID: userID, Title: title}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chats (id, user_id, title) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		chat.ID, chat.UserID, chat.Title,
	).Scan(&chat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	s.logger.Debug("created chat", "id", chat.ID, "user", userID)
	return chat, nil
}

// ListChats returns a user's chats, newest first.
func (s *Store) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, created_at FROM chats
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chat rows: %w", err)
	}
	return chats, nil
}

// GetChat returns one chat if it exists and belongs to the user.
func (s *Store) GetChat(ctx context.Context, chatID uuid.UUID, userID string) (*Chat, error) {
	var c Chat
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at FROM chats
		 WHERE id = $1 AND user_id = $2`,
		chatID, userID,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat: %w", err)
	}
	return &c, nil
}

// GetMessages returns a chat's messages in send order, after verifying the
// chat belongs to the user.
func (s *Store) GetMessages(ctx context.Context, chatID uuid.UUID, userID string) ([]Message, error) {
	if _, err := s.GetChat(ctx, chatID, userID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, role, content, sources, created_at FROM messages
		 WHERE chat_id = $1
		 ORDER BY created_at, id`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var sources []byte
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &sources, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &m.Sources); err != nil {
				return nil, fmt.Errorf("decoding message sources: %w", err)
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading message rows: %w", err)
	}
	return msgs, nil
}

// AppendMessages adds turns to a chat in one transaction, preserving order.
// Typical use records the user turn and the assistant turn of a single
// exchange together.
func (s *Store) AppendMessages(ctx context.Context, chatID uuid.UUID, userID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if _, err := s.GetChat(ctx, chatID, userID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, m := range msgs {
		if m.Role != "user" && m.Role != "assistant" {
			return fmt.Errorf("message role %q is not valid", m.Role)
		}
		var sources []byte
		if len(m.Sources) > 0 {
			sources, err = json.Marshal(m.Sources)
			if err != nil {
				return fmt.Errorf("encoding message sources: %w", err)
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO messages (id, chat_id, role, content, sources)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), chatID, m.Role, m.Content, sources,
		); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing messages: %w", err)
	}

	s.logger.Debug("appended messages", "chat", chatID, "count", len(msgs))
	return nil
}

// DeleteChat removes a chat and, via cascade, its messages.
func (s *Store) DeleteChat(ctx context.Context, chatID uuid.UUID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chats WHERE id = $1 AND user_id = $2`,
		chatID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted chat", "id", chatID, "user", userID)
	return nil
}
