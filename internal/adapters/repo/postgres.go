package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

// Postgres реализует domain.ContentStore на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.ContentStore = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// pgError отделяет ошибки SQL от проблем с подключением.
func pgError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

// ListContent возвращает весь контент в порядке добавления.
func (p *Postgres) ListContent(ctx context.Context) ([]domain.ContentItem, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT code, source_ref, media_kind, media_ref, caption, display_name, views
FROM content_items ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "content_list", "content_items", start, err)
	if err != nil {
		return nil, pgError("content_list", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var (
			item domain.ContentItem
			kind string
		)
		if err := rows.Scan(&item.Code, &item.SourceRef, &kind, &item.MediaRef, &item.Caption, &item.DisplayName, &item.ViewCount); err != nil {
			return nil, pgError("content_scan", err)
		}
		item.MediaKind = domain.ParseMediaKind(kind)
		items = append(items, item)
	}
	return items, pgError("content_rows", rows.Err())
}

// UpsertContent вставляет или обновляет контент по коду.
// Без overwriteViews счётчик существующей записи не меняется.
func (p *Postgres) UpsertContent(ctx context.Context, item domain.ContentItem, overwriteViews bool) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO content_items (code, source_ref, media_kind, media_ref, caption, display_name, views)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE
SET source_ref = EXCLUDED.source_ref,
    media_kind = EXCLUDED.media_kind,
    media_ref = EXCLUDED.media_ref,
    caption = EXCLUDED.caption,
    display_name = EXCLUDED.display_name,
    views = CASE WHEN $8 THEN EXCLUDED.views ELSE content_items.views END,
    updated_at = now()
`, item.Code, item.SourceRef, string(item.MediaKind), item.MediaRef, item.Caption, item.DisplayName, item.ViewCount, overwriteViews)
	metrics.ObserveNetworkRequest("postgres", "content_upsert", "content_items", start, err)
	return pgError("content_upsert", err)
}

// SaveViewCounts записывает абсолютные значения счётчиков просмотров.
func (p *Postgres) SaveViewCounts(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for code, views := range counts {
		batch.Queue(`UPDATE content_items SET views = $2, updated_at = now() WHERE code = $1`, code, views)
	}
	start := time.Now()
	br := p.pool.SendBatch(ctx, batch)
	var err error
	for i := 0; i < batch.Len(); i++ {
		if _, execErr := br.Exec(); execErr != nil && err == nil {
			err = execErr
		}
	}
	if closeErr := br.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	metrics.ObserveNetworkRequest("postgres", "content_save_views", "content_items", start, err)
	return pgError("content_save_views", err)
}

// ListUsers возвращает пользователей в порядке регистрации.
func (p *Postgres) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT user_id, data FROM users ORDER BY created_at, user_id`)
	metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
	if err != nil {
		return nil, pgError("users_list", err)
	}
	defer rows.Close()

	var users []domain.UserRecord
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, pgError("users_scan", err)
		}
		u, err := decodeProfile(id, raw)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, pgError("users_rows", rows.Err())
}

// UpsertUser сохраняет профиль пользователя.
func (p *Postgres) UpsertUser(ctx context.Context, user domain.UserRecord) error {
	data, err := encodeProfile(user)
	if err != nil {
		return err
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO users (user_id, data) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data
`, user.UserID, data)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	return pgError("users_upsert", err)
}

// ListChannels возвращает каналы в порядке добавления.
func (p *Postgres) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT username FROM channels ORDER BY id`)
	metrics.ObserveNetworkRequest("postgres", "channels_list", "channels", start, err)
	if err != nil {
		return nil, pgError("channels_list", err)
	}
	defer rows.Close()

	var list []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.Username); err != nil {
			return nil, pgError("channels_scan", err)
		}
		list = append(list, ch)
	}
	return list, pgError("channels_rows", rows.Err())
}

// AddChannel добавляет канал. Для существующего канала возвращает domain.ErrAlreadyExists.
func (p *Postgres) AddChannel(ctx context.Context, channel domain.Channel) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `INSERT INTO channels (username) VALUES ($1) ON CONFLICT (username) DO NOTHING`, channel.Username)
	metrics.ObserveNetworkRequest("postgres", "channels_add", "channels", start, err)
	if err != nil {
		return pgError("channels_add", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// RemoveChannel удаляет канал. Для неизвестного канала возвращает domain.ErrNotFound.
func (p *Postgres) RemoveChannel(ctx context.Context, channel domain.Channel) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE username = $1`, channel.Username)
	metrics.ObserveNetworkRequest("postgres", "channels_remove", "channels", start, err)
	if err != nil {
		return pgError("channels_remove", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
