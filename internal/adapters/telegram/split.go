package telegram

import "strings"

// Ограничения bot API в символах (рунах).
const (
	MessageLimit = 4096
	CaptionLimit = 1024
)

// SplitMessage режет текст ответа на части по MessageLimit.
func SplitMessage(text string) []string {
	return Split(text, MessageLimit)
}

// Split режет текст на части не длиннее limit рун. Разрез ищется сначала
// по переводу строки, затем по пробелу, иначе ровно по границе.
func Split(text string, limit int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if limit <= 0 {
		return []string{string(runes)}
	}

	var parts []string
	for len(runes) > 0 {
		cut := len(runes)
		if cut > limit {
			cut = cutPoint(runes[:limit])
		}
		if chunk := strings.TrimSpace(string(runes[:cut])); chunk != "" {
			parts = append(parts, chunk)
		}
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \n"))
	}
	return parts
}

// ClipCaption оставляет первую часть подписи, которая влезает в CaptionLimit.
func ClipCaption(caption string) string {
	return clip(caption, CaptionLimit)
}

func clip(text string, limit int) string {
	parts := Split(text, limit)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func cutPoint(window []rune) int {
	if i := lastIndex(window, '\n'); i > 0 {
		return i + 1
	}
	if i := lastIndex(window, ' '); i > 0 {
		return i + 1
	}
	return len(window)
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
