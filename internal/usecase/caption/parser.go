package caption

import "strings"

const (
	// NameMarker предшествует названию в кавычках: Nomi:"Matrix".
	NameMarker = "Nomi:"
	// PlaceholderName подставляется, если название не удалось извлечь.
	PlaceholderName = "Название недоступно"
)

// Result содержит результат разбора подписи поста.
type Result struct {
	Code        string
	DisplayName string
}

// HasCode сообщает, найден ли в подписи код контента.
func (r Result) HasCode() bool {
	return r.Code != ""
}

// Parse извлекает код и название из подписи.
// Используются первые вхождения: первая пара кавычек после маркера и
// первая пара <...>. Для подписей с несколькими парами это может дать
// неожиданный результат, но порядок выбора фиксирован.
func Parse(raw string) Result {
	text := strings.TrimSpace(raw)
	return Result{
		Code:        extractCode(text),
		DisplayName: extractName(text),
	}
}

func extractName(text string) string {
	idx := strings.Index(text, NameMarker)
	if idx < 0 {
		return PlaceholderName
	}
	rest := text[idx+len(NameMarker):]
	open := strings.IndexByte(rest, '"')
	if open < 0 {
		return PlaceholderName
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return PlaceholderName
	}
	name := strings.TrimSpace(rest[:end])
	if name == "" {
		return PlaceholderName
	}
	return name
}

func extractCode(text string) string {
	open := strings.IndexByte(text, '<')
	if open < 0 {
		return ""
	}
	rest := text[open+1:]
	end := strings.IndexByte(rest, '>')
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
