package membership

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

// CachedOracle запоминает только подтверждённые статусы участника на ttl.
// Отказы и ошибки не кэшируются, поэтому кэш не может открыть доступ,
// которого оракул не подтверждал.
type CachedOracle struct {
	next  domain.MembershipOracle
	cache *expirable.LRU[string, domain.MemberStatus]
}

// NewCachedOracle оборачивает оракул LRU-кэшем с TTL.
func NewCachedOracle(next domain.MembershipOracle, size int, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		next:  next,
		cache: expirable.NewLRU[string, domain.MemberStatus](size, nil, ttl),
	}
}

// MemberStatus реализует domain.MembershipOracle.
func (c *CachedOracle) MemberStatus(ctx context.Context, channel domain.Channel, userID int64) (domain.MemberStatus, error) {
	key := channel.Username + ":" + strconv.FormatInt(userID, 10)
	if status, ok := c.cache.Get(key); ok {
		metrics.MembershipCacheHits.Inc()
		return status, nil
	}
	metrics.MembershipCacheMisses.Inc()
	status, err := c.next.MemberStatus(ctx, channel, userID)
	if err == nil && status.IsMemberClass() {
		c.cache.Add(key, status)
	}
	return status, err
}
