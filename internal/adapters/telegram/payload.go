package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-content-bot/internal/domain"
)

// PayloadFromMessage превращает сообщение в содержимое рассылки.
// Поля проверяются в фиксированном порядке: текст, фото, видео, документ,
// анимация; побеждает первое заполненное. Telegram присылает GIF сразу
// с document и animation, поэтому такие сообщения уходят документом.
func PayloadFromMessage(msg *tgbotapi.Message) (domain.Payload, error) {
	if msg == nil {
		return domain.Payload{}, domain.ErrEmptyPayload
	}
	switch {
	case msg.Text != "":
		return domain.Payload{Kind: domain.PayloadText, Text: msg.Text}, nil
	case len(msg.Photo) > 0:
		// последний размер самый крупный
		photo := msg.Photo[len(msg.Photo)-1]
		return media(domain.PayloadPhoto, photo.FileID, msg.Caption), nil
	case msg.Video != nil:
		return media(domain.PayloadVideo, msg.Video.FileID, msg.Caption), nil
	case msg.Document != nil:
		return media(domain.PayloadDocument, msg.Document.FileID, msg.Caption), nil
	case msg.Animation != nil:
		return media(domain.PayloadAnimation, msg.Animation.FileID, msg.Caption), nil
	default:
		return domain.Payload{}, domain.ErrEmptyPayload
	}
}

func media(kind domain.PayloadKind, fileID, caption string) domain.Payload {
	return domain.Payload{Kind: kind, FileRef: fileID, Caption: caption}
}

// ContentPayload выбирает способ доставки единицы контента:
// видео, документ или текст подписи, если медиа нет.
func ContentPayload(item domain.ContentItem) domain.Payload {
	if item.MediaRef != "" {
		switch item.MediaKind {
		case domain.MediaVideo:
			return media(domain.PayloadVideo, item.MediaRef, item.Caption)
		case domain.MediaDocument:
			return media(domain.PayloadDocument, item.MediaRef, item.Caption)
		}
	}
	return domain.Payload{Kind: domain.PayloadText, Text: item.Caption}
}

// ContentFromPost собирает ContentItem из поста канала. Код и имя
// приходят из разбора подписи.
func ContentFromPost(post *tgbotapi.Message, code, displayName string) domain.ContentItem {
	item := domain.ContentItem{
		Code:        code,
		SourceRef:   int64(post.MessageID),
		MediaKind:   domain.MediaNone,
		Caption:     strings.TrimSpace(post.Caption),
		DisplayName: displayName,
	}
	switch {
	case post.Video != nil:
		item.MediaKind = domain.MediaVideo
		item.MediaRef = post.Video.FileID
	case post.Document != nil:
		item.MediaKind = domain.MediaDocument
		item.MediaRef = post.Document.FileID
	}
	return item
}
