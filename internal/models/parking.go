// Package models содержит доменные структуры парковочного сервиса:
// площадки, тарифы, транспорт, тикеты, контракты клиентов и пользователей.
// Денежные суммы хранятся целыми числами в минимальных единицах валюты площадки.
package models

import (
	"strings"
	"time"
)

// VehicleType тип транспортного средства, по которому выбирается тариф.
type VehicleType string

const (
	VehicleCar        VehicleType = "CAR"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleVan        VehicleType = "VAN"
)

// Valid сообщает, входит ли тип в поддерживаемый перечень.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleCar, VehicleMotorcycle, VehicleVan:
		return true
	}
	return false
}

// NormalizePlate приводит номерной знак к каноническому виду: без пробелов по краям, в верхнем регистре.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// Site отдельная парковочная площадка со своей вместимостью и таблицей тарифов.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Capacity  int       `json:"capacity"`
	BaseRate  int64     `json:"base_rate"` // Базовая ставка, если для типа транспорта нет тарифа
	CreatedAt time.Time `json:"created_at"`
	Tariffs   []Tariff  `json:"tariffs,omitempty"`
}

// DummySite используется для приёма данных новой площадки из JSON-запроса.
type DummySite struct {
	Name     string `json:"name" validate:"required,min=2"`
	Address  string `json:"address" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	BaseRate int64  `json:"base_rate" validate:"gte=0"`
}

// Tariff ставка для одного типа транспорта на одной площадке.
// Пара (SiteID, VehicleType) уникальна.
type Tariff struct {
	ID          string      `json:"id"`
	SiteID      string      `json:"site_id"`
	VehicleType VehicleType `json:"vehicle_type"`
	BaseRate    int64       `json:"base_rate"`   // Покрывает первый (в том числе неполный) час
	HourlyRate  int64       `json:"hourly_rate"` // За каждый следующий полный или неполный час
	UpdatedAt   time.Time   `json:"updated_at"`
}

// DummyTariff используется для приёма тарифа из JSON-запроса.
type DummyTariff struct {
	VehicleType string `json:"vehicle_type" validate:"required,oneof=CAR MOTORCYCLE VAN"`
	BaseRate    int64  `json:"base_rate" validate:"gte=0"`
	HourlyRate  int64  `json:"hourly_rate" validate:"gte=0"`
}

// Vehicle транспорт, опознаваемый по уникальному номеру.
// Тип перезаписывается при каждом новом въезде.
type Vehicle struct {
	ID    string      `json:"id"`
	Plate string      `json:"plate"`
	Type  VehicleType `json:"type"`
}

// TicketStatus состояние тикета стоянки.
type TicketStatus string

const (
	TicketActive TicketStatus = "ACTIVE"
	TicketClosed TicketStatus = "CLOSED"
)

// Ticket запись об одной стоянке транспорта от въезда до выезда.
type Ticket struct {
	ID        string       `json:"id"`
	Code      string       `json:"ticket_code"`
	SiteID    string       `json:"site_id"`
	VehicleID string       `json:"vehicle_id"`
	EntryTime time.Time    `json:"entry_time"`
	Status    TicketStatus `json:"status"`
	Vehicle   *Vehicle     `json:"vehicle,omitempty"`
}

// Exit неизменяемая запись о выезде, одна на закрытый тикет.
type Exit struct {
	ID              string    `json:"id"`
	TicketID        string    `json:"ticket_id"`
	ExitTime        time.Time `json:"exit_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	TotalAmount     int64     `json:"total_amount"`
}

// DummyEntry используется для приёма данных въезда из JSON-запроса.
type DummyEntry struct {
	Plate       string `json:"plate" validate:"required"`
	VehicleType string `json:"vehicle_type" validate:"required,oneof=CAR MOTORCYCLE VAN"`
	SiteID      string `json:"site_id" validate:"required,uuid"`
}

// DummyExit используется для приёма данных выезда из JSON-запроса.
type DummyExit struct {
	Plate string `json:"plate" validate:"required"`
}

// ExitResult результат регистрации выезда.
type ExitResult struct {
	Ticket *Ticket `json:"ticket"`
	Exit   *Exit   `json:"exit"`
}
