package access

import "tg-content-bot/internal/domain"

// Guard проверяет, что команду вызывает администратор.
type Guard struct {
	adminID int64
}

// NewGuard создаёт проверку для указанного администратора.
func NewGuard(adminID int64) *Guard {
	return &Guard{adminID: adminID}
}

// Authorize возвращает domain.ErrUnauthorized для всех, кроме администратора.
func (g *Guard) Authorize(callerID int64) error {
	if g.adminID == 0 || callerID != g.adminID {
		return domain.ErrUnauthorized
	}
	return nil
}

// IsAdmin сообщает, является ли пользователь администратором.
func (g *Guard) IsAdmin(callerID int64) bool {
	return g.Authorize(callerID) == nil
}
