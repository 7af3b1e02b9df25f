// Package services содержит учётные записи пользователей, вход по паролю
// и восстановление пароля одноразовым кодом.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/lib/password"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

const resetCodeLength = 6

// ErrInvalidResetCode возвращается при любой неудаче подтверждения кода,
// чтобы не раскрывать, существует ли учётная запись.
var ErrInvalidResetCode = fmt.Errorf("%w: invalid or expired code", models.ErrValidation)

// Repository хранилище пользователей и кодов восстановления.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id string, active bool) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	InvalidateResetTokens(ctx context.Context, userID string, now time.Time) error
	CreateResetToken(ctx context.Context, token models.PasswordResetToken) (*models.PasswordResetToken, error)
	GetLatestUnusedResetToken(ctx context.Context, email string) (*models.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, id string, at time.Time) error

	CreateAttendance(ctx context.Context, userID string, checkIn time.Time) (*models.Attendance, error)
	CloseLatestAttendance(ctx context.Context, userID string, checkOut time.Time) (*models.Attendance, error)
}

// TokenMaker выпускает токены доступа.
type TokenMaker interface {
	GenerateToken(userID, email, role string) (string, error)
}

// Publisher доставляет код восстановления в очередь рассылки.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// UserService реализует операции над пользователями.
type UserService struct {
	repo            Repository
	tokens          TokenMaker
	publisher       Publisher
	log             *slog.Logger
	resetRoutingKey string
	codeTTL         time.Duration
	now             func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo Repository, tokens TokenMaker, publisher Publisher, log *slog.Logger, resetRoutingKey string, codeTTL time.Duration) *UserService {
	return &UserService{
		repo:            repo,
		tokens:          tokens,
		publisher:       publisher,
		log:             log,
		resetRoutingKey: resetRoutingKey,
		codeTTL:         codeTTL,
		now:             time.Now,
	}
}

// CreateUser создаёт пользователя с указанной ролью. Занятый email возвращает ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, req models.DummyUser) (*models.User, error) {
	const op = "users.CreateUser"
	role := models.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown role %q", op, models.ErrValidation, req.Role)
	}
	email := models.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" || req.Password == "" {
		return nil, fmt.Errorf("%s: %w: email, full name and password are required", op, models.ErrValidation)
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.repo.CreateUser(ctx, models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user created", slog.String("op", op), slog.String("user_id", user.ID), slog.String("role", string(role)))
	return user, nil
}

// ListUsers возвращает пользователей с учётом фильтров.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	const op = "users.ListUsers"
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown role %q", op, models.ErrValidation, *filter.Role)
	}
	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateRole меняет роль пользователя.
func (s *UserService) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	const op = "users.UpdateRole"
	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown role %q", op, models.ErrValidation, role)
	}
	user, err := s.repo.UpdateUserRole(ctx, id, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user role updated", slog.String("op", op), slog.String("user_id", id), slog.String("role", string(role)))
	return user, nil
}

// UpdateStatus включает или отключает пользователя.
func (s *UserService) UpdateStatus(ctx context.Context, id string, active bool) (*models.User, error) {
	const op = "users.UpdateStatus"
	user, err := s.repo.UpdateUserStatus(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user status updated", slog.String("op", op), slog.String("user_id", id), slog.Bool("is_active", active))
	return user, nil
}

// Login проверяет пароль, открывает отметку присутствия и выпускает токен
// в одной транзакции. Неизвестный email, неверный пароль и отключённая
// учётная запись дают одну и ту же ошибку ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, pass string) (*models.LoginResult, error) {
	const op = "users.Login"
	user, err := s.repo.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, pass); err != nil || !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	var token string
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.CreateAttendance(ctx, user.ID, s.now().UTC()); err != nil {
			return err
		}
		issued, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
		if err != nil {
			return err
		}
		token = issued
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("attendance check-in recorded", slog.String("op", op), slog.String("user_id", user.ID))
	return &models.LoginResult{AccessToken: token, User: user}, nil
}

// Logout закрывает последнюю открытую отметку присутствия пользователя.
// Если открытой отметки нет, возвращает nil без ошибки.
func (s *UserService) Logout(ctx context.Context, userID string) (*models.Attendance, error) {
	const op = "users.Logout"
	attendance, err := s.repo.CloseLatestAttendance(ctx, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.log.Info("no open attendance on logout", slog.String("op", op), slog.String("user_id", userID))
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("attendance check-out recorded", slog.String("op", op), slog.String("user_id", userID))
	return attendance, nil
}

// Me возвращает профиль аутентифицированного пользователя.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	const op = "users.Me"
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// RequestPasswordReset создаёт одноразовый код и отправляет его в очередь рассылки.
// Для неизвестного или отключённого email ничего не делает и не возвращает ошибку.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "users.RequestPasswordReset"
	log := s.log.With(slog.String("op", op))
	email = models.NormalizeEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		log.Info("password reset requested for inactive user", slog.String("user_id", user.ID))
		return nil
	}

	code, err := password.GenerateCode(resetCodeLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.codeTTL)
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.InvalidateResetTokens(ctx, user.ID, now); err != nil {
			return err
		}
		_, err := s.repo.CreateResetToken(ctx, models.PasswordResetToken{
			UserID:    user.ID,
			Email:     user.Email,
			TokenHash: hash,
			ExpiresAt: expiresAt,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.Publish(ctx, s.resetRoutingKey, models.PasswordResetNotification{
		Email:     user.Email,
		FullName:  user.FullName,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		log.Error("failed to publish password reset code", slog.String("user_id", user.ID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("password reset code issued", slog.String("user_id", user.ID))
	return nil
}

// ConfirmPasswordReset меняет пароль по действующему коду. Пароль и отметка
// об использовании кода записываются в одной транзакции.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	const op = "users.ConfirmPasswordReset"
	email = models.NormalizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))

	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.repo.GetLatestUnusedResetToken(ctx, email)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return ErrInvalidResetCode
			}
			return err
		}
		now := s.now().UTC()
		if !token.ExpiresAt.After(now) {
			return ErrInvalidResetCode
		}
		if err := password.CompareHash(token.TokenHash, code); err != nil {
			return ErrInvalidResetCode
		}

		hash, err := password.GetHash(newPassword)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateUserPassword(ctx, token.UserID, hash); err != nil {
			return err
		}
		if err := s.repo.MarkResetTokenUsed(ctx, token.ID, now); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return ErrInvalidResetCode
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password reset confirmed", slog.String("op", op))
	return nil
}

// EnsureAdmin создаёт учётную запись SUPER_ADMIN, если пользователя с таким email ещё нет.
func (s *UserService) EnsureAdmin(ctx context.Context, email, pass, fullName string) error {
	const op = "users.EnsureAdmin"
	email = models.NormalizeEmail(email)
	if email == "" || pass == "" {
		s.log.Warn("bootstrap admin is not configured", slog.String("op", op))
		return nil
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.CreateUser(ctx, models.DummyUser{
		FullName: fullName,
		Email:    email,
		Password: pass,
		Role:     string(models.RoleSuperAdmin),
	}); err != nil && !errors.Is(err, models.ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("bootstrap admin ensured", slog.String("op", op), slog.String("email", email))
	return nil
}
