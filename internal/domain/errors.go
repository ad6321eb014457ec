package domain

import "errors"

var (
	ErrValidation         = errors.New("некорректные данные")
	ErrNotFound           = errors.New("не найдено")
	ErrAlreadyExists      = errors.New("уже существует")
	ErrUnauthorized       = errors.New("нет прав")
	ErrExternalService    = errors.New("внешний сервис недоступен")
	ErrStorageUnavailable = errors.New("хранилище недоступно")
	ErrEmptyPayload       = errors.New("пустое содержимое рассылки")
)
