package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/usecase/access"
)

// Request описывает команду пользователя, прошедшая маршрутизацию.
type Request struct {
	Msg  *tgbotapi.Message
	Args string
}

// ChatID возвращает чат, в который нужно отвечать.
func (r Request) ChatID() int64 {
	return r.Msg.Chat.ID
}

// CallerID возвращает отправителя команды или 0, если он неизвестен.
func (r Request) CallerID() int64 {
	if r.Msg.From == nil {
		return 0
	}
	return r.Msg.From.ID
}

// HandlerFunc выполняет команду. Возвращённая ошибка превращается в
// сообщение пользователю.
type HandlerFunc func(ctx context.Context, req Request) error

// Middleware оборачивает HandlerFunc и может прервать выполнение.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain применяет middleware слева направо: первая выполняется первой.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// AdminOnly пропускает только администратора. Отказ не затрагивает
// реестры и рассылки: обработчик просто не вызывается.
func AdminOnly(guard *access.Guard) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) error {
			if err := guard.Authorize(req.CallerID()); err != nil {
				return err
			}
			return next(ctx, req)
		}
	}
}

// RequireArgs отвечает подсказкой, если у команды нет аргумента.
func RequireArgs(usage string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) error {
			if strings.TrimSpace(req.Args) == "" {
				return usageError(usage)
			}
			return next(ctx, req)
		}
	}
}

// usageError означает ошибку валидации с готовым текстом для пользователя.
type usageError string

func (e usageError) Error() string { return string(e) }

func (e usageError) Is(target error) bool { return target == domain.ErrValidation }
