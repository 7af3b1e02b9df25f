package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// ===== CONTRACT METHODS =====

// CreateContract сохраняет новый контракт клиента.
func (s *Storage) CreateContract(ctx context.Context, c models.Contract) (*models.Contract, error) {
	const op = "storage.CreateContract"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	query := `INSERT INTO contracts (id, user_id, site_id, start_date, end_date, status, plan_name,
			      monthly_fee, is_recurring, last_payment_date, next_payment_date, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		c.ID, c.UserID, c.SiteID, c.StartDate, c.EndDate, c.Status, c.PlanName,
		c.MonthlyFee, c.IsRecurring, c.LastPaymentDate, c.NextPaymentDate, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &c, nil
}

// GetContract возвращает контракт по ID.
func (s *Storage) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	const op = "storage.GetContract"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, site_id, start_date, end_date, status, plan_name, monthly_fee,
			      is_recurring, last_payment_date, next_payment_date, created_at
			  FROM contracts WHERE id = $1`
	var c models.Contract
	err := s.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.SiteID, &c.StartDate, &c.EndDate, &c.Status, &c.PlanName,
		&c.MonthlyFee, &c.IsRecurring, &c.LastPaymentDate, &c.NextPaymentDate, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &c, nil
}

// UpdateContractRenewal записывает новые даты, плату и статус после продления.
func (s *Storage) UpdateContractRenewal(ctx context.Context, c models.Contract) error {
	const op = "storage.UpdateContractRenewal"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE contracts
			  SET end_date = $1, status = $2, monthly_fee = $3,
			      last_payment_date = $4, next_payment_date = $5, updated_at = $6
			  WHERE id = $7`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		c.EndDate, c.Status, c.MonthlyFee, c.LastPaymentDate, c.NextPaymentDate, time.Now().UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateContractStatus перезаписывает сохранённый статус контракта.
func (s *Storage) UpdateContractStatus(ctx context.Context, id string, status models.ContractStatus) error {
	const op = "storage.UpdateContractStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE contracts SET status = $1 WHERE id = $2`
	res, err := s.conn(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListContractEndDates возвращает ID и дату окончания всех контрактов для сверки статусов.
func (s *Storage) ListContractEndDates(ctx context.Context) ([]models.Contract, error) {
	const op = "storage.ListContractEndDates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT id, end_date FROM contracts`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(&c.ID, &c.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListContracts возвращает все контракты с клиентом и площадкой, ближайшие к окончанию первыми.
func (s *Storage) ListContracts(ctx context.Context) ([]*models.Contract, error) {
	const op = "storage.ListContracts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT c.id, c.user_id, c.site_id, c.start_date, c.end_date, c.status, c.plan_name,
			      c.monthly_fee, c.is_recurring, c.last_payment_date, c.next_payment_date, c.created_at,
			      u.email, u.full_name, s.name
			  FROM contracts c
			  JOIN users u ON u.id = c.user_id
			  JOIN sites s ON s.id = c.site_id
			  ORDER BY c.end_date ASC`
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Contract
	for rows.Next() {
		var c models.Contract
		client := &models.User{Role: models.RoleClient}
		site := &models.Site{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.SiteID, &c.StartDate, &c.EndDate, &c.Status,
			&c.PlanName, &c.MonthlyFee, &c.IsRecurring, &c.LastPaymentDate, &c.NextPaymentDate,
			&c.CreatedAt, &client.Email, &client.FullName, &site.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		client.ID = c.UserID
		site.ID = c.SiteID
		c.Client = client
		c.Site = site
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ===== CONTRACT ALERT METHODS =====

// ResolvePendingAlerts закрывает все ожидающие уведомления контракта и возвращает их количество.
func (s *Storage) ResolvePendingAlerts(ctx context.Context, contractID string, now time.Time) (int64, error) {
	const op = "storage.ResolvePendingAlerts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE contract_alerts
			  SET status = 'RESOLVED', resolved_at = $1, updated_at = $1
			  WHERE contract_id = $2 AND status = 'PENDING'`
	res, err := s.conn(ctx).ExecContext(ctx, query, now, contractID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// UpsertAlert создаёт уведомление или обновляет существующее той же пары (contract_id, alert_type).
// Закрытое уведомление открывается заново и снова подлежит рассылке.
func (s *Storage) UpsertAlert(ctx context.Context, alert models.ContractAlert) (*models.ContractAlert, error) {
	const op = "storage.UpsertAlert"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO contract_alerts (id, contract_id, alert_type, status, message, created_at, updated_at)
			  VALUES ($1, $2, $3, 'PENDING', $4, $5, $5)
			  ON CONFLICT (contract_id, alert_type) DO UPDATE
			  SET message = EXCLUDED.message,
			      updated_at = EXCLUDED.updated_at,
			      notified_at = CASE WHEN contract_alerts.status = 'RESOLVED' THEN NULL
			                         ELSE contract_alerts.notified_at END,
			      status = 'PENDING',
			      resolved_at = NULL
			  RETURNING id, status, created_at, updated_at`
	err := s.conn(ctx).QueryRowContext(ctx, query,
		uuid.NewString(), alert.ContractID, alert.AlertType, alert.Message, alert.UpdatedAt).Scan(
		&alert.ID, &alert.Status, &alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	alert.ResolvedAt = nil
	return &alert, nil
}

const pendingAlertsQuery = `SELECT a.id, a.contract_id, a.alert_type, a.status, a.message,
			      a.created_at, a.updated_at, a.resolved_at,
			      c.end_date, c.status, c.plan_name, c.user_id, c.site_id,
			      u.email, u.full_name, s.name
			  FROM contract_alerts a
			  JOIN contracts c ON c.id = a.contract_id
			  JOIN users u ON u.id = c.user_id
			  JOIN sites s ON s.id = c.site_id
			  WHERE a.status = 'PENDING'`

// ListPendingAlerts возвращает ожидающие уведомления со сводкой контракта, новые первыми.
func (s *Storage) ListPendingAlerts(ctx context.Context) ([]*models.ContractAlert, error) {
	const op = "storage.ListPendingAlerts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	alerts, err := s.queryAlerts(ctx, pendingAlertsQuery+` ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return alerts, nil
}

// ListContractPendingAlerts возвращает ожидающие уведомления одного контракта, старые первыми.
func (s *Storage) ListContractPendingAlerts(ctx context.Context, contractID string) ([]*models.ContractAlert, error) {
	const op = "storage.ListContractPendingAlerts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	alerts, err := s.queryAlerts(ctx, pendingAlertsQuery+` AND a.contract_id = $1 ORDER BY a.created_at ASC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return alerts, nil
}

// ListAlertsToNotify возвращает ожидающие уведомления, о которых ещё не сообщали.
func (s *Storage) ListAlertsToNotify(ctx context.Context) ([]*models.ContractAlert, error) {
	const op = "storage.ListAlertsToNotify"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	alerts, err := s.queryAlerts(ctx, pendingAlertsQuery+` AND a.notified_at IS NULL ORDER BY a.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return alerts, nil
}

// MarkAlertNotified отмечает время отправки уведомления.
func (s *Storage) MarkAlertNotified(ctx context.Context, id string, at time.Time) error {
	const op = "storage.MarkAlertNotified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE contract_alerts SET notified_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) queryAlerts(ctx context.Context, query string, args ...any) ([]*models.ContractAlert, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ContractAlert
	for rows.Next() {
		var a models.ContractAlert
		var resolvedAt sql.NullTime
		c := &models.Contract{}
		client := &models.User{Role: models.RoleClient}
		site := &models.Site{}
		if err := rows.Scan(&a.ID, &a.ContractID, &a.AlertType, &a.Status, &a.Message,
			&a.CreatedAt, &a.UpdatedAt, &resolvedAt,
			&c.EndDate, &c.Status, &c.PlanName, &c.UserID, &c.SiteID,
			&client.Email, &client.FullName, &site.Name); err != nil {
			return nil, err
		}
		a.ResolvedAt = nullTimePtr(resolvedAt)
		c.ID = a.ContractID
		client.ID = c.UserID
		site.ID = c.SiteID
		c.Client = client
		c.Site = site
		a.Contract = c
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
