package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// ===== USER METHODS =====

const userColumns = `id, email, full_name, password_hash, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя. Повтор email возвращает ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	query := `INSERT INTO users (id, email, full_name, password_hash, role, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.conn(ctx).ExecContext(ctx, query, user.ID, user.Email, user.FullName,
		user.PasswordHash, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &user, nil
}

// GetUserByEmail ищет пользователя по нормализованному email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByID ищет пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// ListUsers возвращает пользователей с учётом фильтров, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		conds []string
		args  []any
	)
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserRole меняет роль пользователя.
func (s *Storage) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	const op = "storage.UpdateUserRole"
	u, err := s.updateUser(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3 RETURNING `+userColumns, role, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserStatus включает или отключает учётную запись.
func (s *Storage) UpdateUserStatus(ctx context.Context, id string, active bool) (*models.User, error) {
	const op = "storage.UpdateUserStatus"
	u, err := s.updateUser(ctx, `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3 RETURNING `+userColumns, active, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserPassword записывает новый хэш пароля.
func (s *Storage) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdateUserPassword"
	if _, err := s.updateUser(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3 RETURNING `+userColumns, passwordHash, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) updateUser(ctx context.Context, query string, value any, id string) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	row := s.conn(ctx).QueryRowContext(ctx, query, value, time.Now().UTC(), id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

// ===== PASSWORD RESET METHODS =====

// InvalidateResetTokens помечает использованными все действующие коды пользователя.
func (s *Storage) InvalidateResetTokens(ctx context.Context, userID string, now time.Time) error {
	const op = "storage.InvalidateResetTokens"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`
	if _, err := s.conn(ctx).ExecContext(ctx, query, now, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateResetToken сохраняет хэш нового кода восстановления.
func (s *Storage) CreateResetToken(ctx context.Context, token models.PasswordResetToken) (*models.PasswordResetToken, error) {
	const op = "storage.CreateResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	token.ID = uuid.NewString()
	query := `INSERT INTO password_reset_tokens (id, user_id, email, token_hash, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.conn(ctx).ExecContext(ctx, query, token.ID, token.UserID, token.Email,
		token.TokenHash, token.ExpiresAt, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &token, nil
}

// GetLatestUnusedResetToken возвращает последний неиспользованный код для email.
func (s *Storage) GetLatestUnusedResetToken(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	const op = "storage.GetLatestUnusedResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, email, token_hash, expires_at, used_at
			  FROM password_reset_tokens
			  WHERE email = $1 AND used_at IS NULL
			  ORDER BY created_at DESC
			  LIMIT 1`
	var (
		t      models.PasswordResetToken
		usedAt sql.NullTime
	)
	err := s.conn(ctx).QueryRowContext(ctx, query, email).Scan(
		&t.ID, &t.UserID, &t.Email, &t.TokenHash, &t.ExpiresAt, &usedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	t.UsedAt = nullTimePtr(usedAt)
	return &t, nil
}

// MarkResetTokenUsed отмечает код как использованный.
func (s *Storage) MarkResetTokenUsed(ctx context.Context, id string, at time.Time) error {
	const op = "storage.MarkResetTokenUsed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`
	res, err := s.conn(ctx).ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ===== ATTENDANCE METHODS =====

// CreateAttendance открывает отметку присутствия пользователя.
func (s *Storage) CreateAttendance(ctx context.Context, userID string, checkIn time.Time) (*models.Attendance, error) {
	const op = "storage.CreateAttendance"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	a := models.Attendance{
		ID:      uuid.NewString(),
		UserID:  userID,
		CheckIn: checkIn,
	}
	query := `INSERT INTO attendance (id, user_id, check_in) VALUES ($1, $2, $3)`
	if _, err := s.conn(ctx).ExecContext(ctx, query, a.ID, a.UserID, a.CheckIn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &a, nil
}

// CloseLatestAttendance закрывает последнюю открытую отметку пользователя.
// Если открытых отметок нет, возвращает ErrNotFound.
func (s *Storage) CloseLatestAttendance(ctx context.Context, userID string, checkOut time.Time) (*models.Attendance, error) {
	const op = "storage.CloseLatestAttendance"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE attendance SET check_out = $1
			  WHERE id = (
				  SELECT id FROM attendance
				  WHERE user_id = $2 AND check_out IS NULL
				  ORDER BY check_in DESC
				  LIMIT 1
				  FOR UPDATE
			  )
			  RETURNING id, user_id, check_in, check_out`
	var (
		a   models.Attendance
		out sql.NullTime
	)
	err := s.conn(ctx).QueryRowContext(ctx, query, checkOut, userID).Scan(&a.ID, &a.UserID, &a.CheckIn, &out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	a.CheckOut = nullTimePtr(out)
	return &a, nil
}
