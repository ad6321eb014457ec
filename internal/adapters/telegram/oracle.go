package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

// Oracle отвечает на вопрос о членстве через getChatMember.
// Бот должен быть администратором проверяемого канала.
type Oracle struct {
	bot BotAPI
}

var _ domain.MembershipOracle = (*Oracle)(nil)

// NewOracle создаёт оракул членства.
func NewOracle(bot BotAPI) *Oracle {
	return &Oracle{bot: bot}
}

// MemberStatus возвращает статус пользователя в канале.
func (o *Oracle) MemberStatus(ctx context.Context, channel domain.Channel, userID int64) (domain.MemberStatus, error) {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel.Handle(),
			UserID:             userID,
		},
	}
	start := time.Now()
	member, err := withContext(ctx, func() (tgbotapi.ChatMember, error) {
		return o.bot.GetChatMember(cfg)
	})
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_member", channel.Handle(), start, err)
	if err != nil {
		return "", fmt.Errorf("%w: getChatMember %s: %w", domain.ErrExternalService, channel.Handle(), err)
	}
	return domain.MemberStatus(member.Status), nil
}
