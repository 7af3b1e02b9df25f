package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/lib/password"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*ContractService, *fakeRepo) {
	repo := newFakeRepo()
	repo.sites["site-1"] = &models.Site{ID: "site-1", Name: "Centro"}
	svc := NewContractService(repo, newNoopLogger(), 5)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func newContractRequest(endDate time.Time) models.NewClientContract {
	return models.NewClientContract{
		FullName:   "Ana Pérez",
		Email:      "  Ana@Example.com ",
		SiteID:     "site-1",
		StartDate:  testNow.AddDate(0, -1, 0),
		EndDate:    endDate,
		MonthlyFee: 120000,
	}
}

func TestCreateClientContract_ExpiringSoonCreatesAlert(t *testing.T) {
	svc, repo := newTestService()

	contract, err := svc.CreateClientContract(context.Background(), newContractRequest(testNow.AddDate(0, 0, 3)))
	require.NoError(t, err)

	assert.Equal(t, models.ContractExpiringSoon, contract.Status)
	assert.Equal(t, models.DefaultPlanName, contract.PlanName)
	assert.True(t, contract.IsRecurring)
	assert.Equal(t, contract.StartDate, contract.LastPaymentDate)
	assert.Equal(t, contract.EndDate, contract.NextPaymentDate)
	require.NotNil(t, contract.Client)
	assert.Equal(t, "ana@example.com", contract.Client.Email)
	assert.Equal(t, models.RoleClient, contract.Client.Role)

	alerts := repo.alertsOf(contract.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertExpiringSoon, alerts[0].AlertType)
	assert.Equal(t, models.AlertPending, alerts[0].Status)
	require.Len(t, contract.Alerts, 1)
}

func TestCreateClientContract_ActiveCreatesNoAlert(t *testing.T) {
	svc, repo := newTestService()

	contract, err := svc.CreateClientContract(context.Background(), newContractRequest(testNow.AddDate(0, 1, 0)))
	require.NoError(t, err)

	assert.Equal(t, models.ContractActive, contract.Status)
	assert.Empty(t, repo.alertsOf(contract.ID))
	assert.Empty(t, contract.Alerts)
}

func TestCreateClientContract_ReusesExistingClient(t *testing.T) {
	svc, repo := newTestService()
	repo.users["user-x"] = &models.User{ID: "user-x", Email: "ana@example.com", Role: models.RoleClient}

	contract, err := svc.CreateClientContract(context.Background(), newContractRequest(testNow.AddDate(0, 1, 0)))
	require.NoError(t, err)
	assert.Equal(t, "user-x", contract.UserID)
	assert.Len(t, repo.users, 1)
}

func TestCreateClientContract_EmailOfOtherRoleConflicts(t *testing.T) {
	svc, repo := newTestService()
	repo.users["user-op"] = &models.User{ID: "user-op", Email: "ana@example.com", Role: models.RoleOperator}

	_, err := svc.CreateClientContract(context.Background(), newContractRequest(testNow.AddDate(0, 1, 0)))
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Empty(t, repo.contracts)
}

func TestCreateClientContract_NewClientGetsHashedPassword(t *testing.T) {
	svc, repo := newTestService()

	contract, err := svc.CreateClientContract(context.Background(), newContractRequest(testNow.AddDate(0, 1, 0)))
	require.NoError(t, err)

	stored := repo.users[contract.UserID]
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.Error(t, password.CompareHash(stored.PasswordHash, ""))
}

func TestCreateClientContract_Validation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(r *models.NewClientContract)
		want   error
	}{
		{name: "negative fee", mutate: func(r *models.NewClientContract) { r.MonthlyFee = -1 }, want: models.ErrValidation},
		{name: "missing email", mutate: func(r *models.NewClientContract) { r.Email = " " }, want: models.ErrValidation},
		{name: "missing end date", mutate: func(r *models.NewClientContract) { r.EndDate = time.Time{} }, want: models.ErrValidation},
		{name: "unknown site", mutate: func(r *models.NewClientContract) { r.SiteID = "missing" }, want: models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newContractRequest(testNow.AddDate(0, 1, 0))
			tt.mutate(&req)
			_, err := svc.CreateClientContract(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRenewContract_ResolvesAlerts(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	contract, err := svc.CreateClientContract(ctx, newContractRequest(testNow.AddDate(0, 0, 3)))
	require.NoError(t, err)
	require.Equal(t, models.ContractExpiringSoon, contract.Status)

	paymentDate := testNow
	renewed, err := svc.RenewContract(ctx, contract.ID, models.Renewal{
		NewEndDate:  testNow.AddDate(0, 0, 40),
		PaymentDate: paymentDate,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ContractActive, renewed.Status)
	assert.Equal(t, int64(120000), renewed.MonthlyFee)
	assert.Equal(t, paymentDate, renewed.LastPaymentDate)
	assert.Equal(t, renewed.EndDate, renewed.NextPaymentDate)

	alerts := repo.alertsOf(contract.ID)
	require.Len(t, alerts, 1, "renewal must not create a new alert")
	assert.Equal(t, models.AlertResolved, alerts[0].Status)
	require.NotNil(t, alerts[0].ResolvedAt)
	assert.Equal(t, testNow, *alerts[0].ResolvedAt)

	// Повторная сверка не трогает уже закрытое уведомление.
	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	_, err = svc.ReconcileAlerts(ctx, contract.ID, renewed.EndDate)
	require.NoError(t, err)
	alerts = repo.alertsOf(contract.ID)
	assert.Equal(t, testNow, *alerts[0].ResolvedAt)
}

func TestRenewContract_OverridesFee(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	contract, err := svc.CreateClientContract(ctx, newContractRequest(testNow.AddDate(0, 1, 0)))
	require.NoError(t, err)

	fee := int64(150000)
	renewed, err := svc.RenewContract(ctx, contract.ID, models.Renewal{
		NewEndDate: testNow.AddDate(0, 2, 0), PaymentDate: testNow, MonthlyFee: &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, fee, renewed.MonthlyFee)
}

func TestRenewContract_IntoThePastIsAllowed(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	contract, err := svc.CreateClientContract(ctx, newContractRequest(testNow.AddDate(0, 1, 0)))
	require.NoError(t, err)

	renewed, err := svc.RenewContract(ctx, contract.ID, models.Renewal{
		NewEndDate: testNow.AddDate(0, 0, -1), PaymentDate: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContractExpired, renewed.Status)

	alerts := repo.alertsOf(contract.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertExpired, alerts[0].AlertType)
}

func TestRenewContract_ResponseCarriesAllPendingAlerts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	contract, err := svc.CreateClientContract(ctx, newContractRequest(testNow.AddDate(0, 0, 3)))
	require.NoError(t, err)
	require.Len(t, contract.Alerts, 1)

	renewed, err := svc.RenewContract(ctx, contract.ID, models.Renewal{
		NewEndDate: testNow.AddDate(0, 0, -1), PaymentDate: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContractExpired, renewed.Status)

	require.Len(t, renewed.Alerts, 2)
	types := []models.AlertType{renewed.Alerts[0].AlertType, renewed.Alerts[1].AlertType}
	assert.ElementsMatch(t, []models.AlertType{models.AlertExpiringSoon, models.AlertExpired}, types)
	for _, a := range renewed.Alerts {
		assert.Equal(t, models.AlertPending, a.Status)
		assert.Nil(t, a.Contract)
	}
}

func TestRenewContract_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.RenewContract(context.Background(), "missing", models.Renewal{
		NewEndDate: testNow.AddDate(0, 1, 0), PaymentDate: testNow,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReconcileAlerts_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.contracts["c-1"] = &models.Contract{ID: "c-1", EndDate: testNow.AddDate(0, 0, 2)}

	for i := 0; i < 3; i++ {
		status, err := svc.ReconcileAlerts(ctx, "c-1", testNow.AddDate(0, 0, 2))
		require.NoError(t, err)
		assert.Equal(t, models.ContractExpiringSoon, status)
	}

	alerts := repo.alertsOf("c-1")
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertPending, alerts[0].Status)
}

func TestReconcileAlerts_ExpiringSoonThenExpiredKeepsBoth(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	end := testNow.AddDate(0, 0, 2)
	repo.contracts["c-1"] = &models.Contract{ID: "c-1", EndDate: end}

	_, err := svc.ReconcileAlerts(ctx, "c-1", end)
	require.NoError(t, err)

	svc.now = func() time.Time { return end.Add(time.Minute) }
	status, err := svc.ReconcileAlerts(ctx, "c-1", end)
	require.NoError(t, err)
	assert.Equal(t, models.ContractExpired, status)

	alerts := repo.alertsOf("c-1")
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, models.AlertPending, a.Status, "expiring-soon alert stays pending after expiry")
	}
	assert.Equal(t, models.ContractExpired, repo.contracts["c-1"].Status)
}

func TestListContracts_ReconcilesStaleStatus(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.contracts["c-1"] = &models.Contract{ID: "c-1", EndDate: testNow.AddDate(0, 0, -2), Status: models.ContractActive}
	repo.contracts["c-2"] = &models.Contract{ID: "c-2", EndDate: testNow.AddDate(0, 2, 0), Status: models.ContractExpired}

	contracts, err := svc.ListContracts(ctx)
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	assert.Equal(t, "c-1", contracts[0].ID, "ordered by end date")
	assert.Equal(t, models.ContractExpired, contracts[0].Status)
	require.Len(t, contracts[0].Alerts, 1)
	assert.Equal(t, models.AlertExpired, contracts[0].Alerts[0].AlertType)

	assert.Equal(t, models.ContractActive, contracts[1].Status)
	assert.Empty(t, contracts[1].Alerts)
}

func TestListAlerts_OnlyPending(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.contracts["c-1"] = &models.Contract{ID: "c-1", EndDate: testNow.AddDate(0, 0, 1)}
	repo.contracts["c-2"] = &models.Contract{ID: "c-2", EndDate: testNow.AddDate(0, 3, 0)}
	repo.alerts["old"] = &models.ContractAlert{
		ID: "old", ContractID: "c-2", AlertType: models.AlertExpiringSoon, Status: models.AlertPending,
	}

	alerts, err := svc.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "c-1", alerts[0].ContractID)
	assert.Equal(t, models.AlertResolved, repo.alerts["old"].Status)
}

type failingStatusRepo struct {
	*fakeRepo
	failID string
}

func (r *failingStatusRepo) UpdateContractStatus(ctx context.Context, id string, status models.ContractStatus) error {
	if id == r.failID {
		return errors.New("db unavailable")
	}
	return r.fakeRepo.UpdateContractStatus(ctx, id, status)
}

func TestReconcileAll_ContinuesAfterFailure(t *testing.T) {
	fake := newFakeRepo()
	fake.contracts["bad"] = &models.Contract{ID: "bad", EndDate: testNow.AddDate(0, 0, 1)}
	fake.contracts["good"] = &models.Contract{ID: "good", EndDate: testNow.AddDate(0, 0, 1)}
	svc := NewContractService(&failingStatusRepo{fakeRepo: fake, failID: "bad"}, newNoopLogger(), 0)
	svc.now = func() time.Time { return testNow }

	err := svc.ReconcileAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract bad")
	assert.Equal(t, models.ContractExpiringSoon, fake.contracts["good"].Status)
}
