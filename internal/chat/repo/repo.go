package repo

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/pendohq/pendo-assistant/internal/chat"
)

type Repo struct {
	db *sqlx.DB
}

// Connect opens the shared Postgres pool used by the chat and resume repos.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	const op = "chat.repo.Connect"

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return db, nil
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureConversation creates the conversation row if it does not exist yet
// and bumps updated_at when it does.
func (r *Repo) EnsureConversation(ctx context.Context, id, userID string, convType chat.ConversationType) error {
	const op = "chat.repo.EnsureConversation"

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO conversations (id, user_id, status, type)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET updated_at = now()`,
		id, userID, chat.StatusActive, convType,
	)
	if err != nil {
		return fmt.Errorf("%s: upsert: %w", op, err)
	}

	return nil
}

func (r *Repo) SaveMessage(ctx context.Context, msg chat.Message) error {
	const op = "chat.repo.SaveMessage"

	if !msg.Role.Valid() {
		return chat.ErrInvalidRole
	}

	metadata := msg.Metadata
	if metadata == nil {
		metadata = []byte(`{}`)
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO messages (id, conversation_id, role, content, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, metadata,
	)
	if err != nil {
		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

func (r *Repo) Messages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	const op = "chat.repo.Messages"

	var msgs []chat.Message
	err := r.db.SelectContext(
		ctx,
		&msgs,
		`SELECT id, conversation_id, role, content, created_at, metadata
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY created_at`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return msgs, nil
}

func (r *Repo) Conversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	const op = "chat.repo.Conversations"

	var convs []chat.Conversation
	err := r.db.SelectContext(
		ctx,
		&convs,
		`SELECT id, user_id, COALESCE(title, '') AS title, status, type, created_at, updated_at
		 FROM conversations
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return convs, nil
}
