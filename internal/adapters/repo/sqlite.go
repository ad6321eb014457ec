package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS content_items (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    code         TEXT NOT NULL UNIQUE,
    source_ref   INTEGER NOT NULL DEFAULT 0,
    media_kind   TEXT NOT NULL DEFAULT 'none',
    media_ref    TEXT NOT NULL DEFAULT '',
    caption      TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    views        INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0)
)`, `
CREATE TABLE IF NOT EXISTS users (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL UNIQUE,
    data    TEXT NOT NULL DEFAULT '{}'
)`, `
CREATE TABLE IF NOT EXISTS channels (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE
)`,
}

// SQLite реализует domain.ContentStore поверх одного файла БД.
// Используется для локального запуска без PostgreSQL.
type SQLite struct {
	db *sql.DB
}

var _ domain.ContentStore = (*SQLite)(nil)

// OpenSQLite открывает (или создаёт) базу и применяет схему.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}
	// SQLite не поддерживает параллельную запись, а для :memory: каждое
	// новое соединение означает новую пустую базу.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stmts := append([]string{"PRAGMA busy_timeout = 5000"}, sqliteSchema...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("инициализация sqlite: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// Close закрывает базу.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func sqliteError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func (s *SQLite) ListContent(ctx context.Context) ([]domain.ContentItem, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
SELECT code, source_ref, media_kind, media_ref, caption, display_name, views
FROM content_items ORDER BY id`)
	metrics.ObserveNetworkRequest("sqlite", "content_list", "content_items", start, err)
	if err != nil {
		return nil, sqliteError("content_list", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var (
			item domain.ContentItem
			kind string
		)
		if err := rows.Scan(&item.Code, &item.SourceRef, &kind, &item.MediaRef, &item.Caption, &item.DisplayName, &item.ViewCount); err != nil {
			return nil, sqliteError("content_scan", err)
		}
		item.MediaKind = domain.ParseMediaKind(kind)
		items = append(items, item)
	}
	return items, sqliteError("content_rows", rows.Err())
}

func (s *SQLite) UpsertContent(ctx context.Context, item domain.ContentItem, overwriteViews bool) error {
	overwrite := 0
	if overwriteViews {
		overwrite = 1
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO content_items (code, source_ref, media_kind, media_ref, caption, display_name, views)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (code) DO UPDATE
SET source_ref = excluded.source_ref,
    media_kind = excluded.media_kind,
    media_ref = excluded.media_ref,
    caption = excluded.caption,
    display_name = excluded.display_name,
    views = CASE WHEN ? = 1 THEN excluded.views ELSE content_items.views END`,
		item.Code, item.SourceRef, string(item.MediaKind), item.MediaRef, item.Caption, item.DisplayName, item.ViewCount, overwrite)
	metrics.ObserveNetworkRequest("sqlite", "content_upsert", "content_items", start, err)
	return sqliteError("content_upsert", err)
}

func (s *SQLite) SaveViewCounts(ctx context.Context, counts map[string]int64) (err error) {
	if len(counts) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		metrics.ObserveNetworkRequest("sqlite", "content_save_views", "content_items", start, err)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteError("content_save_views", err)
	}
	stmt, err := tx.PrepareContext(ctx, `UPDATE content_items SET views = ? WHERE code = ?`)
	if err != nil {
		_ = tx.Rollback()
		return sqliteError("content_save_views", err)
	}
	defer stmt.Close()
	for code, views := range counts {
		if _, err = stmt.ExecContext(ctx, views, code); err != nil {
			_ = tx.Rollback()
			return sqliteError("content_save_views", err)
		}
	}
	return sqliteError("content_save_views", tx.Commit())
}

func (s *SQLite) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, data FROM users ORDER BY id`)
	metrics.ObserveNetworkRequest("sqlite", "users_list", "users", start, err)
	if err != nil {
		return nil, sqliteError("users_list", err)
	}
	defer rows.Close()

	var users []domain.UserRecord
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, sqliteError("users_scan", err)
		}
		u, err := decodeProfile(id, []byte(raw))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, sqliteError("users_rows", rows.Err())
}

func (s *SQLite) UpsertUser(ctx context.Context, user domain.UserRecord) error {
	data, err := encodeProfile(user)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO users (user_id, data) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET data = excluded.data`, user.UserID, string(data))
	metrics.ObserveNetworkRequest("sqlite", "users_upsert", "users", start, err)
	return sqliteError("users_upsert", err)
}

func (s *SQLite) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM channels ORDER BY id`)
	metrics.ObserveNetworkRequest("sqlite", "channels_list", "channels", start, err)
	if err != nil {
		return nil, sqliteError("channels_list", err)
	}
	defer rows.Close()

	var list []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.Username); err != nil {
			return nil, sqliteError("channels_scan", err)
		}
		list = append(list, ch)
	}
	return list, sqliteError("channels_rows", rows.Err())
}

func (s *SQLite) AddChannel(ctx context.Context, channel domain.Channel) error {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO channels (username) VALUES (?) ON CONFLICT (username) DO NOTHING`, channel.Username)
	metrics.ObserveNetworkRequest("sqlite", "channels_add", "channels", start, err)
	if err != nil {
		return sqliteError("channels_add", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (s *SQLite) RemoveChannel(ctx context.Context, channel domain.Channel) error {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE username = ?`, channel.Username)
	metrics.ObserveNetworkRequest("sqlite", "channels_remove", "channels", start, err)
	if err != nil {
		return sqliteError("channels_remove", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
