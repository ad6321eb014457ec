package channels

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"tg-content-bot/internal/domain"
)

// ChannelURLPrefix задаёт обязательный префикс ссылки на канал в админских командах.
const ChannelURLPrefix = "https://t.me/"

var usernameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)

// ParseChannelURL проверяет ссылку вида https://t.me/name и возвращает канал.
func ParseChannelURL(input string) (domain.Channel, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, ChannelURLPrefix) {
		return domain.Channel{}, fmt.Errorf("%w: ссылка должна начинаться с %s", domain.ErrValidation, ChannelURLPrefix)
	}
	rest := strings.TrimPrefix(trimmed, ChannelURLPrefix)
	rest = strings.TrimSuffix(rest, "/")
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return NormalizeChannel(rest)
}

// NormalizeChannel приводит имя канала к каноничному виду без @ и в нижнем регистре.
func NormalizeChannel(username string) (domain.Channel, error) {
	name := strings.TrimPrefix(strings.TrimSpace(username), "@")
	if !usernameRegex.MatchString(name) {
		return domain.Channel{}, fmt.Errorf("%w: некорректное имя канала %q", domain.ErrValidation, name)
	}
	return domain.Channel{Username: strings.ToLower(name)}, nil
}

// Registry хранит текущий набор обязательных каналов.
// Изменения сериализуются writeMu, mu защищает только срез и не
// удерживается во время записи в хранилище.
type Registry struct {
	repo domain.ChannelRepo

	writeMu  sync.Mutex
	mu       sync.RWMutex
	channels []domain.Channel
}

// NewRegistry создаёт реестр каналов.
func NewRegistry(repo domain.ChannelRepo) *Registry {
	return &Registry{repo: repo}
}

// Load загружает каналы из хранилища, отбрасывая дубликаты.
func (r *Registry) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	stored, err := r.repo.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("загрузка каналов: %w", err)
	}
	seen := make(map[string]struct{}, len(stored))
	list := make([]domain.Channel, 0, len(stored))
	for _, ch := range stored {
		key := strings.ToLower(ch.Username)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		list = append(list, domain.Channel{Username: key})
	}
	r.mu.Lock()
	r.channels = list
	r.mu.Unlock()
	return nil
}

// Add добавляет канал. Возвращает domain.ErrAlreadyExists для известного канала.
func (r *Registry) Add(ctx context.Context, channel domain.Channel) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if r.contains(channel) {
		return domain.ErrAlreadyExists
	}
	if err := r.repo.AddChannel(ctx, channel); err != nil {
		return fmt.Errorf("сохранение канала %s: %w", channel.Username, err)
	}
	r.mu.Lock()
	next := make([]domain.Channel, 0, len(r.channels)+1)
	r.channels = append(append(next, r.channels...), channel)
	r.mu.Unlock()
	return nil
}

// Remove удаляет канал. Возвращает domain.ErrNotFound для неизвестного канала.
// Если хранилище уже не знает канал, он всё равно убирается из набора.
func (r *Registry) Remove(ctx context.Context, channel domain.Channel) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if !r.contains(channel) {
		return domain.ErrNotFound
	}
	err := r.repo.RemoveChannel(ctx, channel)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("удаление канала %s: %w", channel.Username, err)
	}
	r.mu.Lock()
	next := make([]domain.Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		if ch.Username != channel.Username {
			next = append(next, ch)
		}
	}
	r.channels = next
	r.mu.Unlock()
	if err != nil {
		return domain.ErrNotFound
	}
	return nil
}

// List возвращает копию списка каналов в порядке добавления.
func (r *Registry) List() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Channel(nil), r.channels...)
}

func (r *Registry) contains(channel domain.Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.channels {
		if ch.Username == channel.Username {
			return true
		}
	}
	return false
}
