package domain

import (
	"context"
	"time"
)

// ContentRepo хранит единицы контента.
type ContentRepo interface {
	ListContent(ctx context.Context) ([]ContentItem, error)
	UpsertContent(ctx context.Context, item ContentItem, overwriteViews bool) error
	SaveViewCounts(ctx context.Context, counts map[string]int64) error
}

// UserRepo хранит профили пользователей.
type UserRepo interface {
	ListUsers(ctx context.Context) ([]UserRecord, error)
	UpsertUser(ctx context.Context, user UserRecord) error
}

// ChannelRepo хранит список обязательных каналов.
type ChannelRepo interface {
	ListChannels(ctx context.Context) ([]Channel, error)
	AddChannel(ctx context.Context, channel Channel) error
	RemoveChannel(ctx context.Context, channel Channel) error
}

// ContentStore объединяет все долговременные хранилища бота.
type ContentStore interface {
	ContentRepo
	UserRepo
	ChannelRepo
}

// MembershipOracle возвращает статус пользователя в канале.
type MembershipOracle interface {
	MemberStatus(ctx context.Context, channel Channel, userID int64) (MemberStatus, error)
}

// Sender доставляет содержимое рассылки одному получателю.
type Sender interface {
	Deliver(ctx context.Context, chatID int64, payload Payload) error
}

// Cache используется для идемпотентных операций с TTL.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error)
}
