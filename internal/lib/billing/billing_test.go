package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

func TestCompute(t *testing.T) {
	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	table := Table{
		models.VehicleCar:        {BaseRate: 5000, HourlyRate: 3000},
		models.VehicleMotorcycle: {BaseRate: 2000, HourlyRate: 1000},
	}

	tests := []struct {
		name        string
		exit        time.Time
		vehicle     models.VehicleType
		wantMinutes int64
		wantHours   int64
		wantTotal   int64
	}{
		{
			name:        "one second is billed as one minute and base rate",
			exit:        entry.Add(time.Second),
			vehicle:     models.VehicleCar,
			wantMinutes: 1,
			wantHours:   1,
			wantTotal:   5000,
		},
		{
			name:        "45 minutes costs base rate only",
			exit:        entry.Add(45 * time.Minute),
			vehicle:     models.VehicleCar,
			wantMinutes: 45,
			wantHours:   1,
			wantTotal:   5000,
		},
		{
			name:        "exactly one hour",
			exit:        entry.Add(time.Hour),
			vehicle:     models.VehicleCar,
			wantMinutes: 60,
			wantHours:   1,
			wantTotal:   5000,
		},
		{
			name:        "one hour and one second",
			exit:        entry.Add(time.Hour + time.Second),
			vehicle:     models.VehicleCar,
			wantMinutes: 61,
			wantHours:   2,
			wantTotal:   8000,
		},
		{
			name:        "90 minutes",
			exit:        entry.Add(90 * time.Minute),
			vehicle:     models.VehicleCar,
			wantMinutes: 90,
			wantHours:   2,
			wantTotal:   8000,
		},
		{
			name:        "exactly three hours",
			exit:        entry.Add(3 * time.Hour),
			vehicle:     models.VehicleCar,
			wantMinutes: 180,
			wantHours:   3,
			wantTotal:   11000,
		},
		{
			name:        "motorcycle tariff",
			exit:        entry.Add(150 * time.Minute),
			vehicle:     models.VehicleMotorcycle,
			wantMinutes: 150,
			wantHours:   3,
			wantTotal:   4000,
		},
		{
			name:        "missing tariff falls back to site base rate",
			exit:        entry.Add(10 * time.Hour),
			vehicle:     models.VehicleVan,
			wantMinutes: 600,
			wantHours:   10,
			wantTotal:   4500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(entry, tt.exit, tt.vehicle, table, 4500)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMinutes, got.DurationMinutes)
			assert.Equal(t, tt.wantHours, got.Hours)
			assert.Equal(t, tt.wantTotal, got.TotalAmount)
		})
	}
}

func TestCompute_RejectsNonPositiveDuration(t *testing.T) {
	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	_, err := Compute(entry, entry, models.VehicleCar, Table{}, 100)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = Compute(entry, entry.Add(-time.Minute), models.VehicleCar, Table{}, 100)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCompute_Deterministic(t *testing.T) {
	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(7*time.Hour + 13*time.Minute + 5*time.Second)
	table := Table{models.VehicleVan: {BaseRate: 7000, HourlyRate: 2500}}

	first, err := Compute(entry, exit, models.VehicleVan, table, 0)
	require.NoError(t, err)
	for range 5 {
		again, err := Compute(entry, exit, models.VehicleVan, table, 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, int64(434), first.DurationMinutes)
	assert.Equal(t, int64(7000+7*2500), first.TotalAmount)
}

func TestNewTable(t *testing.T) {
	table := NewTable([]models.Tariff{
		{VehicleType: models.VehicleCar, BaseRate: 5000, HourlyRate: 3000},
		{VehicleType: models.VehicleVan, BaseRate: 8000, HourlyRate: 4000},
	})

	assert.Equal(t, Rate{BaseRate: 5000, HourlyRate: 3000}, table.Lookup(models.VehicleCar, 1))
	assert.Equal(t, Rate{BaseRate: 1}, table.Lookup(models.VehicleMotorcycle, 1))
}
