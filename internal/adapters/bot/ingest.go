package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-content-bot/internal/adapters/telegram"
	"tg-content-bot/internal/infra/metrics"
	"tg-content-bot/internal/usecase/caption"
)

// ingestPost регистрирует пост канала как контент, если в подписи есть код.
// Отредактированные посты обрабатываются так же и обновляют запись.
func (h *Handler) ingestPost(ctx context.Context, post *tgbotapi.Message) {
	if post.Chat == nil {
		return
	}
	log := h.log.With().Int64("chat", post.Chat.ID).Int("message", post.MessageID).Logger()
	if h.opts.ContentChannelID != 0 && post.Chat.ID != h.opts.ContentChannelID {
		metrics.ObserveIngestion("foreign_chat")
		log.Debug().Msg("пост из стороннего канала пропущен")
		return
	}
	text := strings.TrimSpace(post.Caption)
	if text == "" {
		metrics.ObserveIngestion("no_caption")
		return
	}
	parsed := caption.Parse(text)
	if !parsed.HasCode() {
		metrics.ObserveIngestion("no_code")
		log.Debug().Msg("в подписи нет кода, пост пропущен")
		return
	}

	item := telegram.ContentFromPost(post, parsed.Code, parsed.DisplayName)
	if err := h.content.Upsert(ctx, item); err != nil {
		metrics.ObserveIngestion("error")
		log.Error().Err(err).Str("code", item.Code).Msg("не удалось сохранить контент")
		return
	}
	metrics.ObserveIngestion("stored")
	log.Info().Str("code", item.Code).Str("name", item.DisplayName).Str("media", string(item.MediaKind)).Msg("контент сохранён")
}
