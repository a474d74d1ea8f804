package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"parley/internal/app/message"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPool initializes the Postgres connection pool and applies migrations.
func NewPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Durable is the Postgres-backed store. Message ids are store-generated
// uuids; attachments and reactions are held as jsonb.
type Durable struct {
	pool *pgxpool.Pool
}

// NewDurable wraps a connection pool as a message store backend.
func NewDurable(pool *pgxpool.Pool) *Durable {
	return &Durable{pool: pool}
}

// Name implements message.Store.
func (d *Durable) Name() string { return BackendDurable }

const messageColumns = "id::text, from_user, to_user, body, attachment, delivered, seen, reactions, created_at"

// SaveMessage inserts m and returns it with the store-assigned id and
// creation timestamp.
func (d *Durable) SaveMessage(ctx context.Context, m message.Message) (message.Message, error) {
	attachment, err := marshalAttachment(m.Attachment)
	if err != nil {
		return message.Message{}, err
	}

	row := d.pool.QueryRow(ctx, `
		INSERT INTO messages (from_user, to_user, body, attachment)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at`,
		m.From, m.To, m.Text, attachment,
	)

	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return message.Message{}, fmt.Errorf("insert message: %w", err)
	}

	m.Delivered = false
	m.Seen = false
	m.Reactions = []message.Reaction{}

	return m, nil
}

// UpdateStatus sets the named flag to true. A non-uuid id cannot have been
// assigned by this backend, so it resolves to not-found without a query.
func (d *Durable) UpdateStatus(ctx context.Context, id string, field message.StatusField) error {
	if !field.Valid() {
		return fmt.Errorf("unknown status field %q", field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return message.ErrNotFound
	}

	query := fmt.Sprintf("UPDATE messages SET %s = true WHERE id = $1", string(field))

	tag, err := d.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return message.ErrNotFound
	}

	return nil
}

// Query returns the conversation view bounded to the most recent
// QueryLimit messages, re-ordered ascending by creation time.
func (d *Durable) Query(ctx context.Context, username, peer string) ([]message.Message, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if peer == "" || peer == message.Broadcast {
		rows, err = d.pool.Query(ctx, `
			SELECT `+messageColumns+`
			FROM messages
			WHERE to_user = $2 OR to_user = $1 OR from_user = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $3`,
			username, message.Broadcast, QueryLimit,
		)
	} else {
		rows, err = d.pool.Query(ctx, `
			SELECT `+messageColumns+`
			FROM messages
			WHERE to_user = $3
			   OR (from_user = $1 AND to_user = $2)
			   OR (from_user = $2 AND to_user = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`,
			username, peer, message.Broadcast, QueryLimit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	newestFirst := make([]message.Message, 0, 64)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// The LIMIT selects the newest rows; the contract is ascending order.
	ascending := make([]message.Message, len(newestFirst))
	for i, m := range newestFirst {
		ascending[len(newestFirst)-1-i] = m
	}

	return ascending, nil
}

// FindAvatars resolves stored avatar URLs for the given usernames.
func (d *Durable) FindAvatars(ctx context.Context, usernames []string) (map[string]string, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT username, avatar_url
		FROM users
		WHERE username = ANY($1) AND avatar_url IS NOT NULL`,
		usernames,
	)
	if err != nil {
		return nil, fmt.Errorf("query avatars: %w", err)
	}
	defer rows.Close()

	found := make(map[string]string, len(usernames))
	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, fmt.Errorf("scan avatar row: %w", err)
		}
		found[name] = url
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate avatars: %w", err)
	}

	return found, nil
}

// UpsertAvatar lazily creates the user record and replaces its avatar.
func (d *Durable) UpsertAvatar(ctx context.Context, username, url string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (username, avatar_url)
		VALUES ($1, $2)
		ON CONFLICT (username)
		DO UPDATE SET avatar_url = EXCLUDED.avatar_url, updated_at = now()`,
		username, url,
	)
	if err != nil {
		return fmt.Errorf("upsert avatar: %w", err)
	}

	return nil
}

// ToggleReaction toggles the (emoji, by) reaction under a row lock so
// concurrent toggles on the same message cannot lose updates.
func (d *Durable) ToggleReaction(ctx context.Context, id, emoji, by string) ([]message.Reaction, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin reaction toggle: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, "SELECT reactions FROM messages WHERE id = $1 FOR UPDATE", id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lock message reactions: %w", err)
	}

	reactions, err := unmarshalReactions(raw)
	if err != nil {
		return nil, false, err
	}

	reactions = toggleReaction(reactions, emoji, by)

	updated, err := json.Marshal(reactions)
	if err != nil {
		return nil, false, fmt.Errorf("marshal reactions: %w: %w", errCodec, err)
	}

	if _, err := tx.Exec(ctx, "UPDATE messages SET reactions = $2 WHERE id = $1", id, updated); err != nil {
		return nil, false, fmt.Errorf("update reactions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit reaction toggle: %w", err)
	}

	return reactions, true, nil
}

// scanMessage reads one row of messageColumns.
func scanMessage(rows pgx.Rows) (message.Message, error) {
	var (
		m             message.Message
		attachmentRaw []byte
		reactionsRaw  []byte
	)

	err := rows.Scan(
		&m.ID, &m.From, &m.To, &m.Text,
		&attachmentRaw, &m.Delivered, &m.Seen, &reactionsRaw, &m.CreatedAt,
	)
	if err != nil {
		return message.Message{}, fmt.Errorf("scan message row: %w", err)
	}

	if len(attachmentRaw) > 0 {
		var a message.Attachment
		if err := json.Unmarshal(attachmentRaw, &a); err != nil {
			return message.Message{}, fmt.Errorf("decode attachment: %w: %w", errCodec, err)
		}
		m.Attachment = &a
	}

	m.Reactions, err = unmarshalReactions(reactionsRaw)
	if err != nil {
		return message.Message{}, err
	}

	return m, nil
}

func marshalAttachment(a *message.Attachment) ([]byte, error) {
	if a == nil {
		return nil, nil
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal attachment: %w: %w", errCodec, err)
	}
	return raw, nil
}

func unmarshalReactions(raw []byte) ([]message.Reaction, error) {
	reactions := []message.Reaction{}
	if len(raw) == 0 {
		return reactions, nil
	}
	if err := json.Unmarshal(raw, &reactions); err != nil {
		return nil, fmt.Errorf("decode reactions: %w: %w", errCodec, err)
	}
	return reactions, nil
}
