package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

type entry struct {
	item domain.ContentItem
	seq  int64
}

// Registry держит в памяти индекс контента и пользователей и синхронизирует
// его с хранилищем. Изменения сначала пишутся в хранилище, затем в память.
type Registry struct {
	content domain.ContentRepo
	users   domain.UserRepo
	log     zerolog.Logger

	codeLocks *keyedMutex[string]
	userLocks *keyedMutex[int64]

	mu      sync.RWMutex
	items   map[string]entry
	nextSeq int64

	usersMu   sync.RWMutex
	userIndex map[int64]domain.UserRecord
	userOrder []int64

	dirtyMu sync.Mutex
	dirty   map[string]struct{}
	flushMu sync.Mutex
}

// NewRegistry создаёт реестр. Перед использованием нужно вызвать LoadAll.
func NewRegistry(content domain.ContentRepo, users domain.UserRepo, log zerolog.Logger) *Registry {
	return &Registry{
		content:   content,
		users:     users,
		log:       log,
		codeLocks: newKeyedMutex[string](),
		userLocks: newKeyedMutex[int64](),
		items:     make(map[string]entry),
		userIndex: make(map[int64]domain.UserRecord),
		dirty:     make(map[string]struct{}),
	}
}

// LoadAll загружает контент и пользователей из хранилища.
func (r *Registry) LoadAll(ctx context.Context) error {
	items, err := r.content.ListContent(ctx)
	if err != nil {
		return fmt.Errorf("загрузка контента: %w", err)
	}
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("загрузка пользователей: %w", err)
	}

	r.mu.Lock()
	r.items = make(map[string]entry, len(items))
	r.nextSeq = 0
	for _, item := range items {
		r.nextSeq++
		r.items[item.Code] = entry{item: item, seq: r.nextSeq}
	}
	r.mu.Unlock()

	r.usersMu.Lock()
	r.userIndex = make(map[int64]domain.UserRecord, len(users))
	r.userOrder = r.userOrder[:0]
	for _, u := range users {
		if _, ok := r.userIndex[u.UserID]; !ok {
			r.userOrder = append(r.userOrder, u.UserID)
		}
		r.userIndex[u.UserID] = u
	}
	r.usersMu.Unlock()

	r.log.Info().Int("items", len(items)).Int("users", len(users)).Msg("реестр загружен")
	return nil
}

// Lookup возвращает контент по коду.
func (r *Registry) Lookup(code string) (domain.ContentItem, error) {
	r.mu.RLock()
	e, ok := r.items[code]
	r.mu.RUnlock()
	if !ok {
		return domain.ContentItem{}, domain.ErrNotFound
	}
	return e.item, nil
}

// Upsert сохраняет контент, сохраняя накопленный счётчик просмотров.
func (r *Registry) Upsert(ctx context.Context, item domain.ContentItem) error {
	return r.upsert(ctx, item, false)
}

// UpsertWithViews сохраняет контент вместе с переданным счётчиком просмотров.
func (r *Registry) UpsertWithViews(ctx context.Context, item domain.ContentItem) error {
	if item.ViewCount < 0 {
		return fmt.Errorf("%w: отрицательный счётчик просмотров", domain.ErrValidation)
	}
	return r.upsert(ctx, item, true)
}

func (r *Registry) upsert(ctx context.Context, item domain.ContentItem, overwriteViews bool) error {
	item.Code = strings.TrimSpace(item.Code)
	if item.Code == "" {
		return fmt.Errorf("%w: пустой код", domain.ErrValidation)
	}
	if item.MediaKind == "" {
		item.MediaKind = domain.MediaNone
	}
	unlock := r.codeLocks.lock(item.Code)
	defer unlock()

	r.mu.RLock()
	existing, exists := r.items[item.Code]
	r.mu.RUnlock()

	if !overwriteViews {
		item.ViewCount = 0
		if exists {
			item.ViewCount = existing.item.ViewCount
		}
	}

	if err := r.content.UpsertContent(ctx, item, overwriteViews); err != nil {
		return fmt.Errorf("сохранение контента %s: %w", item.Code, err)
	}

	r.mu.Lock()
	seq := existing.seq
	if !exists {
		r.nextSeq++
		seq = r.nextSeq
	}
	r.items[item.Code] = entry{item: item, seq: seq}
	r.mu.Unlock()
	return nil
}

// IncrementView увеличивает счётчик просмотров и возвращает новое значение.
// Запись в хранилище выполняется отложенно через Flush.
func (r *Registry) IncrementView(code string) (int64, error) {
	unlock := r.codeLocks.lock(code)
	defer unlock()

	r.mu.Lock()
	e, ok := r.items[code]
	if !ok {
		r.mu.Unlock()
		return 0, domain.ErrNotFound
	}
	e.item.ViewCount++
	r.items[code] = e
	r.mu.Unlock()

	r.dirtyMu.Lock()
	r.dirty[code] = struct{}{}
	r.dirtyMu.Unlock()

	metrics.ContentViews.Inc()
	return e.item.ViewCount, nil
}

// Flush сохраняет изменённые счётчики просмотров.
func (r *Registry) Flush(ctx context.Context) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.dirtyMu.Lock()
	pending := r.dirty
	r.dirty = make(map[string]struct{})
	r.dirtyMu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	counts := make(map[string]int64, len(pending))
	r.mu.RLock()
	for code := range pending {
		if e, ok := r.items[code]; ok {
			counts[code] = e.item.ViewCount
		}
	}
	r.mu.RUnlock()

	if err := r.content.SaveViewCounts(ctx, counts); err != nil {
		r.dirtyMu.Lock()
		for code := range pending {
			r.dirty[code] = struct{}{}
		}
		r.dirtyMu.Unlock()
		metrics.ViewFlushErrors.Inc()
		return fmt.Errorf("сохранение просмотров: %w", err)
	}
	return nil
}

// RunFlusher периодически сохраняет счётчики до отмены контекста,
// после чего выполняет финальный Flush.
func (r *Registry) RunFlusher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := r.Flush(final); err != nil {
				r.log.Error().Err(err).Msg("финальное сохранение просмотров не удалось")
			}
			cancel()
			return
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error().Err(err).Msg("не удалось сохранить просмотры")
			}
		}
	}
}

// Top возвращает до n самых просматриваемых единиц контента.
// При равенстве просмотров раньше идёт контент, добавленный раньше.
func (r *Registry) Top(n int) []domain.ContentItem {
	r.mu.RLock()
	entries := make([]entry, 0, len(r.items))
	for _, e := range r.items {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].item.ViewCount != entries[j].item.ViewCount {
			return entries[i].item.ViewCount > entries[j].item.ViewCount
		}
		return entries[i].seq < entries[j].seq
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	items := make([]domain.ContentItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.item)
	}
	return items
}

// RegisterUser сохраняет профиль пользователя. Возвращает true, если
// пользователь появился впервые.
func (r *Registry) RegisterUser(ctx context.Context, user domain.UserRecord) (bool, error) {
	unlock := r.userLocks.lock(user.UserID)
	defer unlock()

	r.usersMu.RLock()
	existing, exists := r.userIndex[user.UserID]
	r.usersMu.RUnlock()
	if exists && sameProfile(existing, user) {
		return false, nil
	}

	if err := r.users.UpsertUser(ctx, user); err != nil {
		return false, fmt.Errorf("сохранение пользователя %d: %w", user.UserID, err)
	}

	r.usersMu.Lock()
	if _, ok := r.userIndex[user.UserID]; !ok {
		r.userOrder = append(r.userOrder, user.UserID)
	}
	r.userIndex[user.UserID] = user
	r.usersMu.Unlock()
	return !exists, nil
}

// Users возвращает пользователей в порядке регистрации.
func (r *Registry) Users() []domain.UserRecord {
	r.usersMu.RLock()
	defer r.usersMu.RUnlock()
	users := make([]domain.UserRecord, 0, len(r.userOrder))
	for _, id := range r.userOrder {
		users = append(users, r.userIndex[id])
	}
	return users
}

// UserIDs возвращает снимок идентификаторов пользователей для рассылки.
func (r *Registry) UserIDs() []int64 {
	r.usersMu.RLock()
	defer r.usersMu.RUnlock()
	return append([]int64(nil), r.userOrder...)
}

// Stats возвращает количество пользователей и единиц контента.
func (r *Registry) Stats() domain.Stats {
	r.mu.RLock()
	items := len(r.items)
	r.mu.RUnlock()
	r.usersMu.RLock()
	users := len(r.userIndex)
	r.usersMu.RUnlock()
	return domain.Stats{Users: users, Items: items}
}

func sameProfile(a, b domain.UserRecord) bool {
	if a.DisplayName != b.DisplayName {
		return false
	}
	if a.HasUsername() != b.HasUsername() {
		return false
	}
	return !a.HasUsername() || *a.Username == *b.Username
}
