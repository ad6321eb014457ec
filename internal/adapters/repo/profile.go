package repo

import (
	"encoding/json"
	"fmt"

	"tg-content-bot/internal/domain"
)

// profile задаёт JSON-представление профиля пользователя в колонке data.
type profile struct {
	Username  *string `json:"username"`
	FirstName string  `json:"first_name"`
}

func encodeProfile(u domain.UserRecord) ([]byte, error) {
	p := profile{FirstName: u.DisplayName}
	if u.HasUsername() {
		name := *u.Username
		p.Username = &name
	}
	return json.Marshal(p)
}

func decodeProfile(userID int64, raw []byte) (domain.UserRecord, error) {
	u := domain.UserRecord{UserID: userID}
	if len(raw) == 0 {
		return u, nil
	}
	var p profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return u, fmt.Errorf("профиль пользователя %d: %w", userID, err)
	}
	if p.Username != nil && *p.Username != "" {
		u.Username = p.Username
	}
	u.DisplayName = p.FirstName
	return u, nil
}
