package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

// Sender доставляет рассылки и контент через bot API.
type Sender struct {
	bot BotAPI
}

var _ domain.Sender = (*Sender)(nil)

// NewSender создаёт отправителя.
func NewSender(bot BotAPI) *Sender {
	return &Sender{bot: bot}
}

// Deliver отправляет payload в чат одним сообщением.
func (s *Sender) Deliver(ctx context.Context, chatID int64, payload domain.Payload) error {
	msg, err := Chattable(chatID, payload)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = withContext(ctx, func() (tgbotapi.Message, error) {
		return s.bot.Send(msg)
	})
	metrics.ObserveNetworkRequest("telegram_bot", "send_"+string(payload.Kind), strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		return fmt.Errorf("%w: send %s: %w", domain.ErrExternalService, payload.Kind, err)
	}
	return nil
}

// Chattable строит запрос bot API для payload.
func Chattable(chatID int64, payload domain.Payload) (tgbotapi.Chattable, error) {
	if payload.Kind == domain.PayloadText {
		if payload.Text == "" {
			return nil, domain.ErrEmptyPayload
		}
		return tgbotapi.NewMessage(chatID, clip(payload.Text, MessageLimit)), nil
	}
	if payload.FileRef == "" {
		return nil, domain.ErrEmptyPayload
	}
	file := tgbotapi.FileID(payload.FileRef)
	caption := ClipCaption(payload.Caption)
	switch payload.Kind {
	case domain.PayloadPhoto:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = caption
		return m, nil
	case domain.PayloadVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = caption
		return m, nil
	case domain.PayloadDocument:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = caption
		return m, nil
	case domain.PayloadAnimation:
		m := tgbotapi.NewAnimation(chatID, file)
		m.Caption = caption
		return m, nil
	default:
		return nil, fmt.Errorf("%w: неизвестный тип %q", domain.ErrValidation, payload.Kind)
	}
}
