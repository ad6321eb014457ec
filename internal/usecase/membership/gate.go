package membership

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

// ChannelCheck хранит ответ оракула по одному каналу.
type ChannelCheck struct {
	Channel domain.Channel
	Status  domain.MemberStatus
	Err     error
}

// Passed сообщает, подтверждает ли ответ членство.
func (c ChannelCheck) Passed() bool {
	return c.Err == nil && c.Status.IsMemberClass()
}

// Reduce применяет правило fail-closed: доступ есть, только если каждый
// канал ответил статусом участника. Пустой список даёт true.
func Reduce(checks []ChannelCheck) bool {
	for _, c := range checks {
		if !c.Passed() {
			return false
		}
	}
	return true
}

// Gate решает, подписан ли пользователь на все обязательные каналы.
type Gate struct {
	oracle  domain.MembershipOracle
	timeout time.Duration
	log     zerolog.Logger
}

// NewGate создаёт проверку подписки. timeout ограничивает один запрос к оракулу.
func NewGate(oracle domain.MembershipOracle, timeout time.Duration, log zerolog.Logger) *Gate {
	return &Gate{oracle: oracle, timeout: timeout, log: log}
}

// Check опрашивает каналы по порядку и останавливается на первом отказе.
// Возвращённый срез заканчивается проваленной проверкой, если она была.
func (g *Gate) Check(ctx context.Context, userID int64, channels []domain.Channel) []ChannelCheck {
	checks := make([]ChannelCheck, 0, len(channels))
	for _, ch := range channels {
		check := g.query(ctx, ch, userID)
		checks = append(checks, check)
		if !check.Passed() {
			break
		}
	}
	return checks
}

// IsSubscribed возвращает true, только если пользователь состоит во всех каналах.
// Ошибка оракула трактуется как отсутствие подписки.
func (g *Gate) IsSubscribed(ctx context.Context, userID int64, channels []domain.Channel) bool {
	subscribed := Reduce(g.Check(ctx, userID, channels))
	metrics.ObserveMembership(subscribed)
	return subscribed
}

func (g *Gate) query(ctx context.Context, ch domain.Channel, userID int64) ChannelCheck {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	status, err := g.oracle.MemberStatus(callCtx, ch, userID)
	if err != nil {
		g.log.Warn().Err(err).Str("channel", ch.Username).Int64("user", userID).Msg("ошибка проверки подписки")
	}
	return ChannelCheck{Channel: ch, Status: status, Err: err}
}
