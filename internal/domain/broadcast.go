package domain

// PayloadKind определяет способ отправки рассылки.
type PayloadKind string

const (
	PayloadText      PayloadKind = "text"
	PayloadPhoto     PayloadKind = "photo"
	PayloadVideo     PayloadKind = "video"
	PayloadDocument  PayloadKind = "document"
	PayloadAnimation PayloadKind = "animation"
)

// Payload описывает содержимое рассылки: либо текст, либо одно медиа с подписью.
type Payload struct {
	Kind    PayloadKind
	Text    string
	FileRef string
	Caption string
}

// DeliveryOutcome хранит результат доставки одному получателю.
type DeliveryOutcome struct {
	UserID int64
	Err    error
}

// Delivered сообщает, была ли доставка успешной.
func (o DeliveryOutcome) Delivered() bool {
	return o.Err == nil
}

// BroadcastResult агрегирует итог рассылки.
type BroadcastResult struct {
	JobID     string
	Delivered int
	Failed    []int64
	Outcomes  []DeliveryOutcome
}
