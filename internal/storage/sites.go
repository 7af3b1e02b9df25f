package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// ===== SITE METHODS =====

// CreateSite сохраняет новую площадку и возвращает её с присвоенным ID.
func (s *Storage) CreateSite(ctx context.Context, site models.Site) (*models.Site, error) {
	const op = "storage.CreateSite"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	site.ID = uuid.NewString()
	site.CreatedAt = time.Now().UTC()
	query := `INSERT INTO sites (id, name, address, capacity, base_rate, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		site.ID, site.Name, site.Address, site.Capacity, site.BaseRate, site.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &site, nil
}

// GetSite возвращает площадку по ID без тарифов.
func (s *Storage) GetSite(ctx context.Context, id string) (*models.Site, error) {
	const op = "storage.GetSite"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, address, capacity, base_rate, created_at
			  FROM sites WHERE id = $1`
	var site models.Site
	err := s.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&site.ID, &site.Name, &site.Address, &site.Capacity, &site.BaseRate, &site.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &site, nil
}

// ListSites возвращает все площадки, упорядоченные по названию.
func (s *Storage) ListSites(ctx context.Context) ([]*models.Site, error) {
	const op = "storage.ListSites"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, address, capacity, base_rate, created_at
			  FROM sites
			  ORDER BY name`
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Site
	for rows.Next() {
		var site models.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Address, &site.Capacity,
			&site.BaseRate, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ===== TARIFF METHODS =====

// ListTariffs возвращает тарифы площадки.
func (s *Storage) ListTariffs(ctx context.Context, siteID string) ([]models.Tariff, error) {
	const op = "storage.ListTariffs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, site_id, vehicle_type, base_rate, hourly_rate, updated_at
			  FROM tariffs
			  WHERE site_id = $1
			  ORDER BY vehicle_type`
	rows, err := s.conn(ctx).QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Tariff
	for rows.Next() {
		var t models.Tariff
		if err := rows.Scan(&t.ID, &t.SiteID, &t.VehicleType, &t.BaseRate,
			&t.HourlyRate, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpsertTariff создаёт тариф или обновляет ставки существующего по паре (site_id, vehicle_type).
func (s *Storage) UpsertTariff(ctx context.Context, tariff models.Tariff) (*models.Tariff, error) {
	const op = "storage.UpsertTariff"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tariffs (id, site_id, vehicle_type, base_rate, hourly_rate, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (site_id, vehicle_type) DO UPDATE
			  SET base_rate = EXCLUDED.base_rate,
			      hourly_rate = EXCLUDED.hourly_rate,
			      updated_at = EXCLUDED.updated_at
			  RETURNING id, updated_at`
	err := s.conn(ctx).QueryRowContext(ctx, query,
		uuid.NewString(), tariff.SiteID, tariff.VehicleType, tariff.BaseRate, tariff.HourlyRate,
		time.Now().UTC()).Scan(&tariff.ID, &tariff.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &tariff, nil
}
