package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// ===== VEHICLE & TICKET METHODS =====

// UpsertVehicle находит транспорт по номеру или создаёт его.
// Тип существующего транспорта перезаписывается переданным значением.
func (s *Storage) UpsertVehicle(ctx context.Context, plate string, vehicleType models.VehicleType) (*models.Vehicle, error) {
	const op = "storage.UpsertVehicle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO vehicles (id, plate, type)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (plate) DO UPDATE SET type = EXCLUDED.type
			  RETURNING id`
	v := models.Vehicle{Plate: plate, Type: vehicleType}
	if err := s.conn(ctx).QueryRowContext(ctx, query, uuid.NewString(), plate, vehicleType).Scan(&v.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &v, nil
}

// HasActiveTicket сообщает, есть ли у транспорта открытый тикет.
func (s *Storage) HasActiveTicket(ctx context.Context, vehicleID string) (bool, error) {
	const op = "storage.HasActiveTicket"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
				SELECT 1 FROM tickets WHERE vehicle_id = $1 AND status = 'ACTIVE'
			  )`
	var exists bool
	if err := s.conn(ctx).QueryRowContext(ctx, query, vehicleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateTicket сохраняет новый тикет.
func (s *Storage) CreateTicket(ctx context.Context, ticket models.Ticket) (*models.Ticket, error) {
	const op = "storage.CreateTicket"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	ticket.ID = uuid.NewString()
	query := `INSERT INTO tickets (id, ticket_code, site_id, vehicle_id, entry_time, status)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		ticket.ID, ticket.Code, ticket.SiteID, ticket.VehicleID, ticket.EntryTime, ticket.Status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &ticket, nil
}

// FindActiveTicketByPlateForUpdate находит открытый тикет по номеру и блокирует строку
// до конца транзакции, чтобы параллельный выезд той же машины ждал.
func (s *Storage) FindActiveTicketByPlateForUpdate(ctx context.Context, plate string) (*models.Ticket, error) {
	const op = "storage.FindActiveTicketByPlateForUpdate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT t.id, t.ticket_code, t.site_id, t.vehicle_id, t.entry_time, t.status,
			      v.id, v.plate, v.type
			  FROM tickets t
			  JOIN vehicles v ON v.id = t.vehicle_id
			  WHERE v.plate = $1 AND t.status = 'ACTIVE'
			  ORDER BY t.entry_time DESC
			  LIMIT 1
			  FOR UPDATE OF t`
	var t models.Ticket
	var v models.Vehicle
	err := s.conn(ctx).QueryRowContext(ctx, query, plate).Scan(
		&t.ID, &t.Code, &t.SiteID, &t.VehicleID, &t.EntryTime, &t.Status,
		&v.ID, &v.Plate, &v.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	t.Vehicle = &v
	return &t, nil
}

// CreateExit сохраняет запись о выезде. Повторный выезд по тому же тикету считается конфликтом.
func (s *Storage) CreateExit(ctx context.Context, exit models.Exit) (*models.Exit, error) {
	const op = "storage.CreateExit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	exit.ID = uuid.NewString()
	query := `INSERT INTO exits (id, ticket_id, exit_time, duration_minutes, total_amount)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		exit.ID, exit.TicketID, exit.ExitTime, exit.DurationMinutes, exit.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &exit, nil
}

// CloseTicket переводит тикет из ACTIVE в CLOSED. Если тикет уже закрыт, возвращает ErrConflict.
func (s *Storage) CloseTicket(ctx context.Context, ticketID string) error {
	const op = "storage.CloseTicket"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tickets SET status = 'CLOSED'
			  WHERE id = $1 AND status = 'ACTIVE'`
	res, err := s.conn(ctx).ExecContext(ctx, query, ticketID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: ticket %s is not active: %w", op, ticketID, models.ErrConflict)
	}
	return nil
}
