// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, роль и хэш пароля.
package models

import (
	"strings"
	"time"
)

// Role роль пользователя в системе.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleAdminParking Role = "ADMIN_PARKING"
	RoleOperator     Role = "OPERATOR"
	RoleClient       Role = "CLIENT"
)

// Valid сообщает, является ли роль известной.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdminParking, RoleOperator, RoleClient:
		return true
	}
	return false
}

// NormalizeEmail приводит адрес к нижнему регистру без пробелов по краям.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"` // Никогда не отдаётся наружу
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserFilter необязательные фильтры списка пользователей.
type UserFilter struct {
	Role     *Role
	IsActive *bool
}

// PasswordResetToken одноразовый код восстановления пароля (хранится только хэш).
type PasswordResetToken struct {
	ID        string
	UserID    string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// Attendance отметка присутствия сотрудника: открывается при входе,
// закрывается при выходе из системы.
type Attendance struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
}

// DummyUser используется для создания пользователя администратором.
type DummyUser struct {
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN_PARKING OPERATOR CLIENT"`
}

// DummyLogin тело запроса входа.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyPasswordRequest тело запроса кода восстановления.
type DummyPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DummyPasswordReset тело запроса смены пароля по коду.
type DummyPasswordReset struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// LoginResult ответ на успешный вход.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// PasswordResetNotification сообщение с кодом восстановления, публикуемое в RabbitMQ.
type PasswordResetNotification struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DummyRoleUpdate тело запроса смены роли.
type DummyRoleUpdate struct {
	Role string `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN_PARKING OPERATOR CLIENT"`
}

// DummyStatusUpdate тело запроса включения или отключения пользователя.
type DummyStatusUpdate struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
