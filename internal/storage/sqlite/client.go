package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/convoinsight/backend/internal/storage/models"
	"github.com/convoinsight/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON chat_sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON chat_sessions(created_at);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON chat_messages(created_at);

	CREATE TABLE IF NOT EXISTS chat_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message_id TEXT,
		event_type TEXT NOT NULL,
		status TEXT NOT NULL,
		payload TEXT,
		processing_time_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON chat_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_message ON chat_events(message_id);
	CREATE INDEX IF NOT EXISTS idx_events_created ON chat_events(created_at);

	CREATE TABLE IF NOT EXISTS message_ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ratings_message ON message_ratings(message_id);
	CREATE INDEX IF NOT EXISTS idx_ratings_created ON message_ratings(created_at);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		size_bytes INTEGER DEFAULT 0,
		indexed INTEGER DEFAULT 0,
		public INTEGER DEFAULT 0,
		indexed_at INTEGER,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection_id);

	CREATE TABLE IF NOT EXISTS webpages (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		url TEXT NOT NULL,
		http_status INTEGER DEFAULT 0,
		indexed INTEGER DEFAULT 0,
		indexed_at INTEGER,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_webpages_collection ON webpages(collection_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertSession(ctx context.Context, s *models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query, s.ID, s.UserID, s.Title, s.CreatedAt.Unix(), s.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

func (c *Client) InsertMessage(ctx context.Context, m *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, session_id, role, content, ordinal, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query, m.ID, m.SessionID, m.Role, m.Content, m.Ordinal, m.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, m.CreatedAt.Unix(), m.SessionID)
	if err != nil {
		logger.Warn("Failed to touch session", zap.String("session_id", m.SessionID), zap.Error(err))
	}

	return nil
}

func (c *Client) InsertEvent(ctx context.Context, e *models.ChatEvent) error {
	query := `
		INSERT INTO chat_events (id, session_id, message_id, event_type, status, payload, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var messageID interface{}
	if e.MessageID != "" {
		messageID = e.MessageID
	}

	var processingTime interface{}
	if e.ProcessingTimeMS != nil {
		processingTime = *e.ProcessingTimeMS
	}

	// Event timestamps keep millisecond precision; latency intervals are
	// derived from them.
	_, err := c.db.ExecContext(ctx, query,
		e.ID,
		e.SessionID,
		messageID,
		string(e.EventType),
		string(e.Status),
		e.Payload,
		processingTime,
		e.CreatedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

func (c *Client) InsertRating(ctx context.Context, r *models.MessageRating) error {
	query := `INSERT INTO message_ratings (message_id, session_id, rating, created_at) VALUES (?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query, r.MessageID, r.SessionID, r.Rating, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert rating: %w", err)
	}

	logger.Info("Rating stored",
		zap.String("message_id", r.MessageID),
		zap.Int("rating", r.Rating),
	)

	return nil
}

func (c *Client) ListEvents(ctx context.Context, start, end time.Time) ([]models.ChatEvent, error) {
	query := `
		SELECT id, session_id, COALESCE(message_id, ''), event_type, status, COALESCE(payload, ''), processing_time_ms, created_at
		FROM chat_events
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := c.db.QueryContext(ctx, query, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.ChatEvent
	for rows.Next() {
		var e models.ChatEvent
		var processingTime sql.NullInt64
		var createdAt int64

		err := rows.Scan(&e.ID, &e.SessionID, &e.MessageID, &e.EventType, &e.Status, &e.Payload, &processingTime, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		if processingTime.Valid {
			v := int(processingTime.Int64)
			e.ProcessingTimeMS = &v
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}

	return events, rows.Err()
}

func (c *Client) ListMessages(ctx context.Context, start, end time.Time) ([]models.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, ordinal, created_at
		FROM chat_messages
		WHERE created_at >= ? AND created_at < ?
		ORDER BY session_id ASC, ordinal ASC
	`

	return c.scanMessages(ctx, query, start.Unix(), end.Unix())
}

func (c *Client) ListMessagesByUser(ctx context.Context, userID string, start, end time.Time) ([]models.ChatMessage, error) {
	query := `
		SELECT m.id, m.session_id, m.role, m.content, m.ordinal, m.created_at
		FROM chat_messages m
		JOIN chat_sessions s ON s.id = m.session_id
		WHERE s.user_id = ? AND m.created_at >= ? AND m.created_at < ?
		ORDER BY m.session_id ASC, m.ordinal ASC
	`

	return c.scanMessages(ctx, query, userID, start.Unix(), end.Unix())
}

func (c *Client) scanMessages(ctx context.Context, query string, args ...interface{}) ([]models.ChatMessage, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var createdAt int64

		err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Ordinal, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (c *Client) ListSessions(ctx context.Context, start, end time.Time) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, COALESCE(title, ''), created_at, updated_at
		FROM chat_sessions
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC
	`

	rows, err := c.db.QueryContext(ctx, query, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var s models.ChatSession
		var createdAt, updatedAt int64

		err := rows.Scan(&s.ID, &s.UserID, &s.Title, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (c *Client) ListSessionsByUser(ctx context.Context, userID string, start, end time.Time) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, COALESCE(title, ''), created_at, updated_at
		FROM chat_sessions
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC
	`

	rows, err := c.db.QueryContext(ctx, query, userID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var s models.ChatSession
		var createdAt, updatedAt int64

		err := rows.Scan(&s.ID, &s.UserID, &s.Title, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (c *Client) ListRatings(ctx context.Context, start, end time.Time) ([]models.MessageRating, error) {
	query := `
		SELECT id, message_id, session_id, rating, created_at
		FROM message_ratings
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC
	`

	rows, err := c.db.QueryContext(ctx, query, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.MessageRating
	for rows.Next() {
		var r models.MessageRating
		var createdAt int64

		err := rows.Scan(&r.ID, &r.MessageID, &r.SessionID, &r.Rating, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		ratings = append(ratings, r)
	}

	return ratings, rows.Err()
}

func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	query := `SELECT id, name, COALESCE(type, ''), created_at FROM collections ORDER BY id ASC`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		var col models.Collection
		var createdAt int64

		err := rows.Scan(&col.ID, &col.Name, &col.Type, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}

		col.CreatedAt = time.Unix(createdAt, 0).UTC()
		collections = append(collections, col)
	}

	return collections, rows.Err()
}

func (c *Client) ListDocuments(ctx context.Context, collectionID string) ([]models.Document, error) {
	query := `
		SELECT id, collection_id, filename, size_bytes, indexed, public, indexed_at, created_at
		FROM documents
		WHERE collection_id = ?
		ORDER BY created_at ASC
	`

	rows, err := c.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		var indexed, public int
		var indexedAt sql.NullInt64
		var createdAt int64

		err := rows.Scan(&d.ID, &d.CollectionID, &d.Filename, &d.SizeBytes, &indexed, &public, &indexedAt, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}

		d.Indexed = indexed != 0
		d.Public = public != 0
		if indexedAt.Valid {
			t := time.Unix(indexedAt.Int64, 0).UTC()
			d.IndexedAt = &t
		}
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

func (c *Client) ListWebpages(ctx context.Context, collectionID string) ([]models.Webpage, error) {
	query := `
		SELECT id, collection_id, url, http_status, indexed, indexed_at, created_at
		FROM webpages
		WHERE collection_id = ?
		ORDER BY created_at ASC
	`

	rows, err := c.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webpages: %w", err)
	}
	defer rows.Close()

	var pages []models.Webpage
	for rows.Next() {
		var w models.Webpage
		var indexed int
		var indexedAt sql.NullInt64
		var createdAt int64

		err := rows.Scan(&w.ID, &w.CollectionID, &w.URL, &w.HTTPStatus, &indexed, &indexedAt, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webpage row: %w", err)
		}

		w.Indexed = indexed != 0
		if indexedAt.Valid {
			t := time.Unix(indexedAt.Int64, 0).UTC()
			w.IndexedAt = &t
		}
		w.CreatedAt = time.Unix(createdAt, 0).UTC()
		pages = append(pages, w)
	}

	return pages, rows.Err()
}
