// Package services содержит управление контрактами клиентов: создание, продление,
// сверку статусов и ведение уведомлений об окончании.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/lib/contractstatus"
	"github.com/magabrotheeeer/parking-manager/internal/lib/password"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Repository хранилище контрактов, уведомлений и клиентов.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetSite(ctx context.Context, id string) (*models.Site, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)

	CreateContract(ctx context.Context, c models.Contract) (*models.Contract, error)
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	UpdateContractRenewal(ctx context.Context, c models.Contract) error
	UpdateContractStatus(ctx context.Context, id string, status models.ContractStatus) error
	ListContractEndDates(ctx context.Context) ([]models.Contract, error)
	ListContracts(ctx context.Context) ([]*models.Contract, error)

	ResolvePendingAlerts(ctx context.Context, contractID string, now time.Time) (int64, error)
	UpsertAlert(ctx context.Context, alert models.ContractAlert) (*models.ContractAlert, error)
	ListPendingAlerts(ctx context.Context) ([]*models.ContractAlert, error)
	ListContractPendingAlerts(ctx context.Context, contractID string) ([]*models.ContractAlert, error)
}

// ContractService реализует жизненный цикл контрактов.
type ContractService struct {
	repo          Repository
	log           *slog.Logger
	thresholdDays int
	now           func() time.Time
}

// NewContractService создает новый экземпляр ContractService.
// thresholdDays <= 0 заменяется значением по умолчанию.
func NewContractService(repo Repository, log *slog.Logger, thresholdDays int) *ContractService {
	if thresholdDays <= 0 {
		thresholdDays = contractstatus.DefaultThresholdDays
	}
	return &ContractService{
		repo:          repo,
		log:           log,
		thresholdDays: thresholdDays,
		now:           time.Now,
	}
}

// CreateClientContract находит или создаёт клиента по email и оформляет ему контракт.
// Email, занятый пользователем другой роли, возвращает ErrConflict.
func (s *ContractService) CreateClientContract(ctx context.Context, req models.NewClientContract) (*models.Contract, error) {
	const op = "contracts.CreateClientContract"
	fullName := strings.TrimSpace(req.FullName)
	email := models.NormalizeEmail(req.Email)
	if fullName == "" || email == "" {
		return nil, fmt.Errorf("%s: %w: full name and email are required", op, models.ErrValidation)
	}
	if req.MonthlyFee < 0 {
		return nil, fmt.Errorf("%s: %w: monthly fee must not be negative", op, models.ErrValidation)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("%s: %w: start and end dates are required", op, models.ErrValidation)
	}
	planName := strings.TrimSpace(req.PlanName)
	if planName == "" {
		planName = models.DefaultPlanName
	}

	var contract *models.Contract
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		site, err := s.repo.GetSite(ctx, req.SiteID)
		if err != nil {
			return err
		}
		client, err := s.upsertClient(ctx, fullName, email)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		contract, err = s.repo.CreateContract(ctx, models.Contract{
			UserID:          client.ID,
			SiteID:          site.ID,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			Status:          contractstatus.Compute(req.EndDate, now, s.thresholdDays),
			PlanName:        planName,
			MonthlyFee:      req.MonthlyFee,
			IsRecurring:     true,
			LastPaymentDate: req.StartDate,
			NextPaymentDate: req.EndDate,
		})
		if err != nil {
			return err
		}
		contract.Client = client
		contract.Site = site

		status, err := s.reconcile(ctx, contract.ID, contract.EndDate, now)
		if err != nil {
			return err
		}
		contract.Status = status
		contract.Alerts, err = s.pendingAlerts(ctx, contract.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("client contract created",
		slog.String("op", op),
		slog.String("contract_id", contract.ID),
		slog.String("user_id", contract.UserID),
		slog.String("status", string(contract.Status)),
	)
	return contract, nil
}

// RenewContract записывает оплату и новую дату окончания, затем сверяет уведомления.
// Новая дата не обязана быть позже текущей: продление в прошлое допустимо для исправлений.
func (s *ContractService) RenewContract(ctx context.Context, contractID string, req models.Renewal) (*models.Contract, error) {
	const op = "contracts.RenewContract"
	if req.NewEndDate.IsZero() || req.PaymentDate.IsZero() {
		return nil, fmt.Errorf("%s: %w: new end date and payment date are required", op, models.ErrValidation)
	}
	if req.MonthlyFee != nil && *req.MonthlyFee < 0 {
		return nil, fmt.Errorf("%s: %w: monthly fee must not be negative", op, models.ErrValidation)
	}

	var contract *models.Contract
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.repo.GetContract(ctx, contractID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		contract.EndDate = req.NewEndDate
		contract.LastPaymentDate = req.PaymentDate
		contract.NextPaymentDate = req.NewEndDate
		if req.MonthlyFee != nil {
			contract.MonthlyFee = *req.MonthlyFee
		}
		contract.Status = contractstatus.Compute(contract.EndDate, now, s.thresholdDays)
		if err := s.repo.UpdateContractRenewal(ctx, *contract); err != nil {
			return err
		}

		if _, err := s.reconcile(ctx, contract.ID, contract.EndDate, now); err != nil {
			return err
		}
		contract.Alerts, err = s.pendingAlerts(ctx, contract.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("contract renewed",
		slog.String("op", op),
		slog.String("contract_id", contract.ID),
		slog.Time("end_date", contract.EndDate),
		slog.String("status", string(contract.Status)),
	)
	return contract, nil
}

// ListContracts сверяет все контракты и возвращает их с ожидающими уведомлениями,
// ближайшие к окончанию первыми.
func (s *ContractService) ListContracts(ctx context.Context) ([]*models.Contract, error) {
	const op = "contracts.ListContracts"
	if err := s.ReconcileAll(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contracts, err := s.repo.ListContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	alerts, err := s.repo.ListPendingAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byContract := make(map[string][]models.ContractAlert, len(alerts))
	for _, a := range alerts {
		alert := *a
		alert.Contract = nil
		byContract[a.ContractID] = append(byContract[a.ContractID], alert)
	}
	for _, c := range contracts {
		c.Alerts = byContract[c.ID]
	}
	return contracts, nil
}

// ListAlerts сверяет все контракты и возвращает ожидающие уведомления, новые первыми.
func (s *ContractService) ListAlerts(ctx context.Context) ([]*models.ContractAlert, error) {
	const op = "contracts.ListAlerts"
	if err := s.ReconcileAll(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	alerts, err := s.repo.ListPendingAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return alerts, nil
}

// ReconcileAlerts пересчитывает статус одного контракта и приводит его уведомления в соответствие.
func (s *ContractService) ReconcileAlerts(ctx context.Context, contractID string, endDate time.Time) (models.ContractStatus, error) {
	const op = "contracts.ReconcileAlerts"
	var status models.ContractStatus
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		status, err = s.reconcile(ctx, contractID, endDate, s.now().UTC())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return status, nil
}

// ReconcileAll сверяет все контракты. Каждый контракт обрабатывается в своей транзакции,
// ошибки по отдельным контрактам собираются и возвращаются вместе.
func (s *ContractService) ReconcileAll(ctx context.Context) error {
	const op = "contracts.ReconcileAll"
	contracts, err := s.repo.ListContractEndDates(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var errs []error
	for _, c := range contracts {
		if _, err := s.ReconcileAlerts(ctx, c.ID, c.EndDate); err != nil {
			errs = append(errs, fmt.Errorf("contract %s: %w", c.ID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	s.log.Debug("contracts reconciled", slog.String("op", op), slog.Int("count", len(contracts)))
	return nil
}

// reconcile выполняет сверку внутри уже открытой транзакции.
func (s *ContractService) reconcile(ctx context.Context, contractID string, endDate, now time.Time) (models.ContractStatus, error) {
	decision := contractstatus.Decide(endDate, now, s.thresholdDays)
	if err := s.repo.UpdateContractStatus(ctx, contractID, decision.Status); err != nil {
		return "", err
	}

	if decision.Resolve {
		n, err := s.repo.ResolvePendingAlerts(ctx, contractID, now)
		if err != nil {
			return "", err
		}
		if n > 0 {
			s.log.Info("contract alerts resolved", slog.String("contract_id", contractID), slog.Int64("count", n))
		}
		return decision.Status, nil
	}

	_, err := s.repo.UpsertAlert(ctx, models.ContractAlert{
		ContractID: contractID,
		AlertType:  decision.AlertType,
		Message:    decision.Message,
		UpdatedAt:  now,
	})
	if err != nil {
		return "", err
	}
	return decision.Status, nil
}

// pendingAlerts загружает все ожидающие уведомления контракта без сводки контракта.
func (s *ContractService) pendingAlerts(ctx context.Context, contractID string) ([]models.ContractAlert, error) {
	alerts, err := s.repo.ListContractPendingAlerts(ctx, contractID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ContractAlert, 0, len(alerts))
	for _, a := range alerts {
		alert := *a
		alert.Contract = nil
		out = append(out, alert)
	}
	return out, nil
}

func (s *ContractService) upsertClient(ctx context.Context, fullName, email string) (*models.User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleClient {
			return nil, fmt.Errorf("email %s belongs to a %s user: %w", email, existing.Role, models.ErrConflict)
		}
		return existing, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	hash, err := password.GetHash(password.Temporary())
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         models.RoleClient,
		IsActive:     true,
	})
}
