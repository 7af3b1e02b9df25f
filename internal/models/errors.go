package models

import "errors"

// Типы ошибок, которые сервисы возвращают HTTP-слою. Проверяются через errors.Is.
var (
	// ErrNotFound — запрошенная сущность (тикет, контракт, парковка, пользователь) не существует.
	ErrNotFound = errors.New("not found")
	// ErrConflict — запись нарушает уникальность или уже изменена параллельным запросом.
	ErrConflict = errors.New("conflict")
	// ErrValidation — некорректные денежные значения, даты или длительность стоянки.
	ErrValidation = errors.New("validation failed")
)

// ErrInvalidCredentials — неверный email или пароль либо отключённая учётная запись.
var ErrInvalidCredentials = errors.New("invalid credentials")
