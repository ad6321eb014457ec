package domain

// MediaKind описывает тип медиа, прикреплённого к посту с контентом.
type MediaKind string

const (
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaNone     MediaKind = "none"
)

// ParseMediaKind приводит сохранённое значение к MediaKind.
func ParseMediaKind(raw string) MediaKind {
	switch MediaKind(raw) {
	case MediaVideo:
		return MediaVideo
	case MediaDocument:
		return MediaDocument
	default:
		return MediaNone
	}
}

// ContentItem описывает единицу контента, доступную по коду.
type ContentItem struct {
	Code        string
	SourceRef   int64
	MediaKind   MediaKind
	MediaRef    string
	Caption     string
	DisplayName string
	ViewCount   int64
}

// UserRecord хранит профиль пользователя бота.
type UserRecord struct {
	UserID      int64
	Username    *string
	DisplayName string
}

// HasUsername сообщает, указан ли у пользователя username.
func (u UserRecord) HasUsername() bool {
	return u.Username != nil && *u.Username != ""
}

// Channel описывает обязательный для подписки канал.
type Channel struct {
	Username string
}

// URL возвращает публичную ссылку на канал.
func (c Channel) URL() string {
	return "https://t.me/" + c.Username
}

// Handle возвращает имя канала в формате @username.
func (c Channel) Handle() string {
	return "@" + c.Username
}

// Stats содержит счётчики для команды stat.
type Stats struct {
	Users int
	Items int
}
