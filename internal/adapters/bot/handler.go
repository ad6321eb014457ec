package bot

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-content-bot/internal/adapters/telegram"
	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
	"tg-content-bot/internal/usecase/access"
	"tg-content-bot/internal/usecase/broadcast"
	"tg-content-bot/internal/usecase/channels"
	"tg-content-bot/internal/usecase/content"
	"tg-content-bot/internal/usecase/membership"
)

const callbackCheckSubscription = "check_subscription"

// Messenger описывает методы bot API, нужные обработчику для ответов.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options задаёт поведение обработчика.
type Options struct {
	// ContentChannelID ограничивает приём постов одним каналом, 0 означает любой.
	ContentChannelID   int64
	ContentChannelLink string
	AdminContact       string
	TopLimit           int
	BroadcastDedupTTL  time.Duration
}

// Deps собирает зависимости обработчика.
type Deps struct {
	Bot        Messenger
	Sender     domain.Sender
	Content    *content.Registry
	Channels   *channels.Registry
	Gate       *membership.Gate
	Dispatcher *broadcast.Dispatcher
	Guard      *access.Guard
	Cache      domain.Cache
}

// Handler обрабатывает апдейты бота.
type Handler struct {
	bot        Messenger
	sender     domain.Sender
	content    *content.Registry
	channels   *channels.Registry
	gate       *membership.Gate
	dispatcher *broadcast.Dispatcher
	guard      *access.Guard
	cache      domain.Cache
	opts       Options
	log        zerolog.Logger

	commands map[string]HandlerFunc
	wg       sync.WaitGroup
}

// NewHandler создаёт обработчик и регистрирует команды.
func NewHandler(deps Deps, opts Options, log zerolog.Logger) *Handler {
	if opts.TopLimit <= 0 {
		opts.TopLimit = 10
	}
	h := &Handler{
		bot:        deps.Bot,
		sender:     deps.Sender,
		content:    deps.Content,
		channels:   deps.Channels,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		guard:      deps.Guard,
		cache:      deps.Cache,
		opts:       opts,
		log:        log,
	}
	admin := AdminOnly(deps.Guard)
	h.commands = map[string]HandlerFunc{
		"start":         h.handleStart,
		"stat":          h.handleStat,
		"top":           h.handleTop,
		"admin":         h.handleAdmin,
		"users":         Chain(h.handleUsers, admin),
		"channels":      Chain(h.handleChannels, admin),
		"addchannel":    Chain(h.handleAddChannel, admin, RequireArgs(msgAddUsage)),
		"removechannel": Chain(h.handleRemoveChannel, admin, RequireArgs(msgRemoveUsage)),
		"broadcast":     Chain(h.handleBroadcast, admin),
	}
	return h
}

// Serve обрабатывает апдейт в отдельной горутине. Отмена ctx не прерывает
// уже начатую обработку; дождаться её можно через Wait.
func (h *Handler) Serve(ctx context.Context, upd tgbotapi.Update) {
	ctx = context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.log.Error().Interface("panic", r).Int("update_id", upd.UpdateID).Msg("паника при обработке апдейта")
			}
		}()
		h.HandleUpdate(ctx, upd)
	}()
}

// Wait блокируется, пока не завершатся все апдейты, запущенные через Serve.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// HandleUpdate синхронно обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	case upd.ChannelPost != nil:
		h.ingestPost(ctx, upd.ChannelPost)
	case upd.EditedChannelPost != nil:
		h.ingestPost(ctx, upd.EditedChannelPost)
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	req := Request{Msg: msg}
	run := h.handleLookup
	if msg.IsCommand() {
		cmd, ok := h.commands[msg.Command()]
		if !ok {
			h.reply(msg.Chat.ID, msgUnknownCommand, nil)
			return
		}
		req.Args = msg.CommandArguments()
		run = cmd
	} else if msg.Text == "" {
		return
	}
	if err := run(ctx, req); err != nil {
		h.replyError(req, err)
	}
}

// replyError сообщает пользователю об ошибке команды.
func (h *Handler) replyError(req Request, err error) {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		h.reply(req.ChatID(), string(usage), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		h.reply(req.ChatID(), msgUnauthorized, nil)
	case errors.Is(err, domain.ErrValidation):
		h.reply(req.ChatID(), msgBadChannelURL, nil)
	case errors.Is(err, domain.ErrStorageUnavailable):
		h.log.Error().Err(err).Int64("user", req.CallerID()).Msg("хранилище недоступно")
		h.reply(req.ChatID(), msgStorageDown, nil)
	case errors.Is(err, domain.ErrExternalService):
		h.log.Warn().Err(err).Int64("user", req.CallerID()).Msg("внешний сервис недоступен")
		h.reply(req.ChatID(), msgServiceDown, nil)
	default:
		h.log.Error().Err(err).Int64("user", req.CallerID()).Msg("ошибка обработки команды")
		h.reply(req.ChatID(), msgInternalError, nil)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Data == callbackCheckSubscription && cb.From != nil && cb.Message != nil && cb.Message.Chat != nil {
		text := msgNotSubscribed
		if h.gate.IsSubscribed(ctx, cb.From.ID, h.channels.List()) {
			text = msgSubscribed
		}
		edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
		start := time.Now()
		_, err := h.bot.Request(edit)
		metrics.ObserveNetworkRequest("telegram_bot", "edit_message", strconv.FormatInt(cb.Message.Chat.ID, 10), start, err)
		if err != nil {
			h.log.Warn().Err(err).Msg("не удалось обновить сообщение с проверкой подписки")
		}
	}
	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	target := "unknown"
	if cb.From != nil {
		target = strconv.FormatInt(cb.From.ID, 10)
	}
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", target, start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на callback")
	}
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == 0 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("не удалось отправить сообщение")
			return
		}
	}
}

func (h *Handler) sendSubscriptionPrompt(chatID int64) {
	list := h.channels.List()
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(list))
	for i, ch := range list {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(fmtChannelButton(i+1), ch.URL()))
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 2)
	if len(buttons) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(msgCheckButton, callbackCheckSubscription),
	))
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.reply(chatID, msgSubscribePrompt, &markup)
}
