// Package billing рассчитывает стоимость стоянки по времени въезда и выезда
// и таблице тарифов площадки. Пакет не имеет состояния и побочных эффектов.
package billing

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Rate пара ставок для одного типа транспорта.
type Rate struct {
	BaseRate   int64
	HourlyRate int64
}

// Table тарифы площадки по типу транспорта.
type Table map[models.VehicleType]Rate

// NewTable строит таблицу из списка тарифов площадки.
func NewTable(tariffs []models.Tariff) Table {
	t := make(Table, len(tariffs))
	for _, tr := range tariffs {
		t[tr.VehicleType] = Rate{BaseRate: tr.BaseRate, HourlyRate: tr.HourlyRate}
	}
	return t
}

// Lookup возвращает ставку для типа транспорта. Если тарифа нет,
// используется базовая ставка площадки без почасовой доплаты.
func (t Table) Lookup(vt models.VehicleType, siteBaseRate int64) Rate {
	if r, ok := t[vt]; ok {
		return r
	}
	return Rate{BaseRate: siteBaseRate}
}

// Charge итог расчёта стоянки.
type Charge struct {
	DurationMinutes int64
	Hours           int64
	TotalAmount     int64
}

// DurationMinutes округляет длительность стоянки вверх до целых минут.
func DurationMinutes(entry, exit time.Time) int64 {
	d := exit.Sub(entry)
	m := int64(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}

// Compute рассчитывает стоимость стоянки.
//
// Базовая ставка покрывает первый час (или любую неполную стоянку),
// каждый следующий полный или неполный час добавляет почасовую ставку:
//
//	total = base + max(0, ceil(minutes/60) - 1) * hourly
//
// Выезд не позже въезда считается ошибкой вызывающей стороны и отклоняется с ErrValidation.
func Compute(entry, exit time.Time, vt models.VehicleType, table Table, siteBaseRate int64) (Charge, error) {
	const op = "billing.Compute"
	if !exit.After(entry) {
		return Charge{}, fmt.Errorf("%s: exit %s is not after entry %s: %w",
			op, exit.Format(time.RFC3339), entry.Format(time.RFC3339), models.ErrValidation)
	}

	minutes := DurationMinutes(entry, exit)
	hours := (minutes + 59) / 60
	rate := table.Lookup(vt, siteBaseRate)

	extra := hours - 1
	if extra < 0 {
		extra = 0
	}
	return Charge{
		DurationMinutes: minutes,
		Hours:           hours,
		TotalAmount:     rate.BaseRate + extra*rate.HourlyRate,
	}, nil
}
