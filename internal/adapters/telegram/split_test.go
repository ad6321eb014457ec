package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-content-bot/internal/domain"
)

func TestSplitPrefersNewline(t *testing.T) {
	text := strings.Repeat("а", 3000) + "\n\n" + strings.Repeat("б", 2000) + "\n" + strings.Repeat("в", 500)

	parts := SplitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("ожидали 2 части, получили %d", len(parts))
	}
	if parts[0] != strings.Repeat("а", 3000) {
		t.Fatalf("первая часть должна закончиться на переводе строки")
	}
	if !strings.HasPrefix(parts[1], "б") || !strings.HasSuffix(parts[1], strings.Repeat("в", 500)) {
		t.Fatalf("неожиданная вторая часть")
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > MessageLimit {
			t.Fatalf("часть %d длиннее лимита: %d", i, n)
		}
	}
}

func TestSplitFallsBackToSpaceAndHardCut(t *testing.T) {
	parts := Split("один два три", 8)
	if len(parts) != 2 || parts[0] != "один" || parts[1] != "два три" {
		t.Fatalf("разрез по пробелу: %q", parts)
	}

	parts = Split(strings.Repeat("x", 25), 10)
	if len(parts) != 3 || parts[2] != "xxxxx" {
		t.Fatalf("жёсткий разрез: %q", parts)
	}
}

func TestSplitEmptyAndShort(t *testing.T) {
	if parts := SplitMessage("   \n  "); len(parts) != 0 {
		t.Fatalf("ожидали пустой результат, получили %d частей", len(parts))
	}
	if parts := SplitMessage(" привет "); len(parts) != 1 || parts[0] != "привет" {
		t.Fatalf("короткий текст: %q", parts)
	}
}

func TestClipCaption(t *testing.T) {
	long := strings.Repeat("слово ", 400)
	got := ClipCaption(long)
	if n := utf8.RuneCountInString(got); n > CaptionLimit || n == 0 {
		t.Fatalf("подпись длиной %d", n)
	}
	if !strings.HasSuffix(got, "слово") {
		t.Fatal("подпись обрезана посреди слова")
	}
	if ClipCaption("коротко") != "коротко" {
		t.Fatal("короткая подпись не должна меняться")
	}
}

func TestChattableClipsLongCaption(t *testing.T) {
	c, err := Chattable(1, domain.Payload{Kind: domain.PayloadVideo, FileRef: "v", Caption: strings.Repeat("к", 2000)})
	if err != nil {
		t.Fatalf("Chattable: %v", err)
	}
	video, ok := c.(tgbotapi.VideoConfig)
	if !ok {
		t.Fatalf("ожидали VideoConfig, получили %T", c)
	}
	if n := utf8.RuneCountInString(video.Caption); n != CaptionLimit {
		t.Fatalf("длина подписи %d, ожидали %d", n, CaptionLimit)
	}

	text, err := Chattable(1, domain.Payload{Kind: domain.PayloadText, Text: strings.Repeat("т", 5000)})
	if err != nil {
		t.Fatalf("Chattable: %v", err)
	}
	if n := utf8.RuneCountInString(text.(tgbotapi.MessageConfig).Text); n != MessageLimit {
		t.Fatalf("длина текста %d, ожидали %d", n, MessageLimit)
	}
}
