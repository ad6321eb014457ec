package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tg-content-bot/internal/adapters/telegram"
	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/usecase/channels"
)

func fmtChannelButton(n int) string {
	return fmt.Sprintf(msgChannelButton, n)
}

func (h *Handler) handleStart(ctx context.Context, req Request) error {
	from := req.Msg.From
	if from == nil {
		h.reply(req.ChatID(), msgNoUser, nil)
		return nil
	}
	user := domain.UserRecord{UserID: from.ID, DisplayName: from.FirstName}
	if from.UserName != "" {
		name := from.UserName
		user.Username = &name
	}
	created, err := h.content.RegisterUser(ctx, user)
	if err != nil {
		return err
	}
	if created {
		h.log.Info().Int64("user", from.ID).Msg("новый пользователь")
	}

	if !h.gate.IsSubscribed(ctx, from.ID, h.channels.List()) {
		h.sendSubscriptionPrompt(req.ChatID())
		return nil
	}
	h.reply(req.ChatID(), fmt.Sprintf(msgWelcome, from.FirstName), nil)
	return nil
}

// handleLookup обрабатывает любой текст, не являющийся командой, как код контента.
func (h *Handler) handleLookup(ctx context.Context, req Request) error {
	code := strings.TrimSpace(req.Msg.Text)
	if code == "" || req.Msg.From == nil {
		return nil
	}
	if !h.gate.IsSubscribed(ctx, req.Msg.From.ID, h.channels.List()) {
		h.sendSubscriptionPrompt(req.ChatID())
		return nil
	}

	item, err := h.content.Lookup(code)
	if errors.Is(err, domain.ErrNotFound) {
		h.reply(req.ChatID(), msgCodeNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	if err := h.sender.Deliver(ctx, req.ChatID(), telegram.ContentPayload(item)); err != nil {
		h.log.Warn().Err(err).Str("code", code).Int64("user", req.CallerID()).Msg("не удалось отправить контент")
		h.reply(req.ChatID(), msgDeliveryFailed, nil)
		return nil
	}
	if _, err := h.content.IncrementView(code); err != nil {
		h.log.Warn().Err(err).Str("code", code).Msg("не удалось учесть просмотр")
	}
	return nil
}

func (h *Handler) handleStat(_ context.Context, req Request) error {
	stats := h.content.Stats()
	text := fmt.Sprintf(msgStatHeader, stats.Users, stats.Items)
	if h.opts.ContentChannelLink != "" {
		text += fmt.Sprintf(msgStatChannel, h.opts.ContentChannelLink)
	}
	h.reply(req.ChatID(), text, nil)
	return nil
}

func (h *Handler) handleTop(_ context.Context, req Request) error {
	items := h.content.Top(h.opts.TopLimit)
	if len(items) == 0 {
		h.reply(req.ChatID(), msgTopEmpty, nil)
		return nil
	}
	var b strings.Builder
	b.WriteString(msgTopHeader)
	for i, item := range items {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(msgTopLine, i+1, item.DisplayName, item.Code, item.ViewCount))
	}
	h.reply(req.ChatID(), b.String(), nil)
	return nil
}

func (h *Handler) handleAdmin(_ context.Context, req Request) error {
	if h.guard.IsAdmin(req.CallerID()) {
		h.reply(req.ChatID(), adminHelp, nil)
		return nil
	}
	if h.opts.AdminContact == "" {
		h.reply(req.ChatID(), msgNoAdminContact, nil)
		return nil
	}
	h.reply(req.ChatID(), fmt.Sprintf(msgAdminContact, h.opts.AdminContact), nil)
	return nil
}

func (h *Handler) handleUsers(_ context.Context, req Request) error {
	users := h.content.Users()
	if len(users) == 0 {
		h.reply(req.ChatID(), msgUsersEmpty, nil)
		return nil
	}
	var b strings.Builder
	b.WriteString(msgUsersHeader)
	for _, u := range users {
		username := "None"
		if u.HasUsername() {
			username = "@" + *u.Username
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(msgUsersLine, u.UserID, username, u.DisplayName))
	}
	h.reply(req.ChatID(), b.String(), nil)
	return nil
}

func (h *Handler) handleChannels(_ context.Context, req Request) error {
	list := h.channels.List()
	if len(list) == 0 {
		h.reply(req.ChatID(), msgChannelsEmpty, nil)
		return nil
	}
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, msgChannelsHeader)
	for _, ch := range list {
		lines = append(lines, ch.Handle())
	}
	h.reply(req.ChatID(), strings.Join(lines, "\n"), nil)
	return nil
}

func (h *Handler) handleAddChannel(ctx context.Context, req Request) error {
	ch, err := channels.ParseChannelURL(firstArg(req.Args))
	if err != nil {
		return err
	}
	err = h.channels.Add(ctx, ch)
	if errors.Is(err, domain.ErrAlreadyExists) {
		h.reply(req.ChatID(), msgChannelExists, nil)
		return nil
	}
	if err != nil {
		return err
	}
	h.log.Info().Str("channel", ch.Handle()).Msg("канал добавлен")
	h.reply(req.ChatID(), fmt.Sprintf(msgChannelAdded, ch.URL()), nil)
	return nil
}

func (h *Handler) handleRemoveChannel(ctx context.Context, req Request) error {
	ch, err := channels.ParseChannelURL(firstArg(req.Args))
	if err != nil {
		return err
	}
	err = h.channels.Remove(ctx, ch)
	if errors.Is(err, domain.ErrNotFound) {
		h.reply(req.ChatID(), msgChannelMissing, nil)
		return nil
	}
	if err != nil {
		return err
	}
	h.log.Info().Str("channel", ch.Handle()).Msg("канал удалён")
	h.reply(req.ChatID(), fmt.Sprintf(msgChannelRemoved, ch.URL()), nil)
	return nil
}

// handleBroadcast рассылает сообщение, на которое ответил администратор.
// Повторная команда для того же сообщения в пределах TTL игнорируется.
func (h *Handler) handleBroadcast(ctx context.Context, req Request) error {
	source := req.Msg.ReplyToMessage
	if source == nil {
		return usageError(msgBroadcastUsage)
	}
	payload, err := telegram.PayloadFromMessage(source)
	if err != nil {
		return usageError(msgBroadcastEmpty)
	}
	targets := h.content.UserIDs()
	if len(targets) == 0 {
		h.reply(req.ChatID(), msgBroadcastNoUsers, nil)
		return nil
	}

	key := fmt.Sprintf("broadcast:%d:%d", req.ChatID(), source.MessageID)
	var result domain.BroadcastResult
	ran, err := h.cache.Once(ctx, key, h.opts.BroadcastDedupTTL, func() error {
		result = h.dispatcher.Dispatch(ctx, payload, targets)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrExternalService, err)
	}
	if !ran {
		h.reply(req.ChatID(), msgBroadcastRepeat, nil)
		return nil
	}

	text := fmt.Sprintf(msgBroadcastDone, result.Delivered, len(targets))
	if len(result.Failed) > 0 {
		ids := make([]string, 0, len(result.Failed))
		for _, id := range result.Failed {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		text += "\n" + fmt.Sprintf(msgBroadcastFailed, strings.Join(ids, ", "))
	}
	h.reply(req.ChatID(), text, nil)
	return nil
}

func firstArg(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
