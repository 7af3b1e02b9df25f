// Package services содержит операции площадок, тарифов и стоянок:
// регистрацию въезда, расчёт и регистрацию выезда, управление тарифами.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/cache"
	"github.com/magabrotheeeer/parking-manager/internal/lib/billing"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/metrics"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Repository хранилище площадок, тарифов и тикетов.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateSite(ctx context.Context, site models.Site) (*models.Site, error)
	GetSite(ctx context.Context, id string) (*models.Site, error)
	ListSites(ctx context.Context) ([]*models.Site, error)
	ListTariffs(ctx context.Context, siteID string) ([]models.Tariff, error)
	UpsertTariff(ctx context.Context, tariff models.Tariff) (*models.Tariff, error)

	UpsertVehicle(ctx context.Context, plate string, vehicleType models.VehicleType) (*models.Vehicle, error)
	HasActiveTicket(ctx context.Context, vehicleID string) (bool, error)
	CreateTicket(ctx context.Context, ticket models.Ticket) (*models.Ticket, error)
	FindActiveTicketByPlateForUpdate(ctx context.Context, plate string) (*models.Ticket, error)
	CreateExit(ctx context.Context, exit models.Exit) (*models.Exit, error)
	CloseTicket(ctx context.Context, ticketID string) error
}

// Cache хранит таблицы тарифов площадок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ParkingService реализует операции площадок и стоянок.
type ParkingService struct {
	repo     Repository
	cache    Cache
	log      *slog.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewParkingService создает новый экземпляр ParkingService.
func NewParkingService(repo Repository, cache Cache, log *slog.Logger, cacheTTL time.Duration) *ParkingService {
	return &ParkingService{
		repo:     repo,
		cache:    cache,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// CreateSite регистрирует новую площадку.
func (s *ParkingService) CreateSite(ctx context.Context, req models.DummySite) (*models.Site, error) {
	const op = "parking.CreateSite"
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Capacity < 0 || req.BaseRate < 0 {
		return nil, fmt.Errorf("%s: %w: name is required, capacity and base rate must not be negative", op, models.ErrValidation)
	}

	site, err := s.repo.CreateSite(ctx, models.Site{
		Name:     name,
		Address:  strings.TrimSpace(req.Address),
		Capacity: req.Capacity,
		BaseRate: req.BaseRate,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("site created", slog.String("op", op), slog.String("site_id", site.ID))
	return site, nil
}

// ListSites возвращает площадки вместе с тарифами.
func (s *ParkingService) ListSites(ctx context.Context) ([]*models.Site, error) {
	const op = "parking.ListSites"
	sites, err := s.repo.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, site := range sites {
		if site.Tariffs, err = s.tariffs(ctx, site.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return sites, nil
}

// GetSite возвращает площадку с тарифами.
func (s *ParkingService) GetSite(ctx context.Context, id string) (*models.Site, error) {
	const op = "parking.GetSite"
	site, err := s.repo.GetSite(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if site.Tariffs, err = s.tariffs(ctx, site.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return site, nil
}

// SetTariff создаёт или заменяет тариф площадки для типа транспорта.
func (s *ParkingService) SetTariff(ctx context.Context, siteID string, req models.DummyTariff) (*models.Tariff, error) {
	const op = "parking.SetTariff"
	vt := models.VehicleType(req.VehicleType)
	if !vt.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown vehicle type %q", op, models.ErrValidation, req.VehicleType)
	}
	if req.BaseRate < 0 || req.HourlyRate < 0 {
		return nil, fmt.Errorf("%s: %w: rates must not be negative", op, models.ErrValidation)
	}
	if _, err := s.repo.GetSite(ctx, siteID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tariff, err := s.repo.UpsertTariff(ctx, models.Tariff{
		SiteID:      siteID,
		VehicleType: vt,
		BaseRate:    req.BaseRate,
		HourlyRate:  req.HourlyRate,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, cache.TariffKey(siteID)); err != nil {
		s.log.Error("failed to invalidate tariff cache", slog.String("op", op), slog.String("site_id", siteID), sl.Err(err))
		return nil, fmt.Errorf("%s: tariff stored, cache invalidation failed: %w", op, err)
	}
	return tariff, nil
}

// RegisterEntry открывает тикет для транспорта на площадке.
// Повторный въезд при открытом тикете отклоняется с ErrConflict.
func (s *ParkingService) RegisterEntry(ctx context.Context, req models.DummyEntry) (*models.Ticket, error) {
	const op = "parking.RegisterEntry"
	plate := models.NormalizePlate(req.Plate)
	if plate == "" {
		return nil, fmt.Errorf("%s: %w: plate is required", op, models.ErrValidation)
	}
	vt := models.VehicleType(req.VehicleType)
	if !vt.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown vehicle type %q", op, models.ErrValidation, req.VehicleType)
	}

	var ticket *models.Ticket
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetSite(ctx, req.SiteID); err != nil {
			return err
		}
		vehicle, err := s.repo.UpsertVehicle(ctx, plate, vt)
		if err != nil {
			return err
		}
		active, err := s.repo.HasActiveTicket(ctx, vehicle.ID)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("vehicle %s already has an active ticket: %w", plate, models.ErrConflict)
		}
		ticket, err = s.repo.CreateTicket(ctx, models.Ticket{
			Code:      "TK-" + uuid.NewString(),
			SiteID:    req.SiteID,
			VehicleID: vehicle.ID,
			EntryTime: s.now().UTC(),
			Status:    models.TicketActive,
		})
		if err != nil {
			return err
		}
		ticket.Vehicle = vehicle
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.TicketsOpened.WithLabelValues(string(vt)).Inc()
	s.log.Info("vehicle entry registered",
		slog.String("op", op),
		slog.String("ticket_id", ticket.ID),
		slog.String("plate", plate),
		slog.String("site_id", ticket.SiteID),
	)
	return ticket, nil
}

// RegisterExit закрывает открытый тикет транспорта и рассчитывает стоимость стоянки.
// Поиск тикета, чтение тарифов, запись выезда и закрытие тикета выполняются в одной
// транзакции под блокировкой строки тикета. Кэш тарифов здесь не используется.
func (s *ParkingService) RegisterExit(ctx context.Context, plate string) (*models.ExitResult, error) {
	const op = "parking.RegisterExit"
	plate = models.NormalizePlate(plate)
	if plate == "" {
		return nil, fmt.Errorf("%s: %w: plate is required", op, models.ErrValidation)
	}

	var result models.ExitResult
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.repo.FindActiveTicketByPlateForUpdate(ctx, plate)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("no active ticket for plate %s: %w", plate, err)
			}
			return err
		}
		site, err := s.repo.GetSite(ctx, ticket.SiteID)
		if err != nil {
			return err
		}
		tariffs, err := s.repo.ListTariffs(ctx, site.ID)
		if err != nil {
			return err
		}
		table := billing.NewTable(tariffs)

		vt := models.VehicleCar
		if ticket.Vehicle != nil {
			vt = ticket.Vehicle.Type
		}
		exitTime := s.now().UTC()
		charge, err := billing.Compute(ticket.EntryTime, exitTime, vt, table, site.BaseRate)
		if err != nil {
			return err
		}

		exit, err := s.repo.CreateExit(ctx, models.Exit{
			TicketID:        ticket.ID,
			ExitTime:        exitTime,
			DurationMinutes: charge.DurationMinutes,
			TotalAmount:     charge.TotalAmount,
		})
		if err != nil {
			return err
		}
		if err := s.repo.CloseTicket(ctx, ticket.ID); err != nil {
			return err
		}
		ticket.Status = models.TicketClosed
		result = models.ExitResult{Ticket: ticket, Exit: exit}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vt := ""
	if result.Ticket.Vehicle != nil {
		vt = string(result.Ticket.Vehicle.Type)
	}
	metrics.ExitsRegistered.WithLabelValues(vt).Inc()
	metrics.AmountCharged.Add(float64(result.Exit.TotalAmount))
	s.log.Info("vehicle exit registered",
		slog.String("op", op),
		slog.String("ticket_id", result.Ticket.ID),
		slog.Int64("duration_minutes", result.Exit.DurationMinutes),
		slog.Int64("total_amount", result.Exit.TotalAmount),
	)
	return &result, nil
}

// tariffs читает тарифы площадки для выдачи через кэш. Ошибки чтения кэша не прерывают операцию.
func (s *ParkingService) tariffs(ctx context.Context, siteID string) ([]models.Tariff, error) {
	key := cache.TariffKey(siteID)
	var cached []models.Tariff
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read tariff cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	tariffs, err := s.repo.ListTariffs(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if tariffs == nil {
		tariffs = []models.Tariff{}
	}
	if err := s.cache.Set(ctx, key, tariffs, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache tariffs", slog.String("key", key), sl.Err(err))
	}
	return tariffs, nil
}
