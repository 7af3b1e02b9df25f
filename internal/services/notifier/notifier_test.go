package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/metrics"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type ReconcilerMock struct{ mock.Mock }

func (m *ReconcilerMock) ReconcileAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListAlertsToNotify(ctx context.Context) ([]*models.ContractAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ContractAlert), args.Error(1)
}

func (m *RepoMock) MarkAlertNotified(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var sweepNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService() (*NotifierService, *ReconcilerMock, *RepoMock, *PublisherMock) {
	rec := new(ReconcilerMock)
	repo := new(RepoMock)
	pub := new(PublisherMock)
	svc := NewNotifierService(rec, repo, pub, newNoopLogger(), "contract.alert")
	svc.now = func() time.Time { return sweepNow }
	return svc, rec, repo, pub
}

func testAlert(id string, alertType models.AlertType) *models.ContractAlert {
	return &models.ContractAlert{
		ID:         id,
		ContractID: "c-" + id,
		AlertType:  alertType,
		Status:     models.AlertPending,
		Message:    "El contrato vence pronto",
		Contract: &models.Contract{
			ID:      "c-" + id,
			EndDate: sweepNow.AddDate(0, 0, 3),
			Client:  &models.User{Email: "ana@example.com", FullName: "Ana"},
			Site:    &models.Site{Name: "Centro"},
		},
	}
}

func TestSweep_PublishesAndMarks(t *testing.T) {
	svc, rec, repo, pub := newTestService()
	alert := testAlert("a-1", models.AlertExpiringSoon)
	before := testutil.ToFloat64(metrics.AlertsPublished.WithLabelValues(string(models.AlertExpiringSoon)))

	rec.On("ReconcileAll", mock.Anything).Return(nil)
	repo.On("ListAlertsToNotify", mock.Anything).Return([]*models.ContractAlert{alert}, nil)
	pub.On("Publish", mock.Anything, "contract.alert", models.AlertNotification{
		AlertID:     "a-1",
		ContractID:  "c-a-1",
		AlertType:   models.AlertExpiringSoon,
		Message:     "El contrato vence pronto",
		ClientEmail: "ana@example.com",
		ClientName:  "Ana",
		SiteName:    "Centro",
		EndDate:     sweepNow.AddDate(0, 0, 3),
	}).Return(nil)
	repo.On("MarkAlertNotified", mock.Anything, "a-1", sweepNow).Return(nil)

	require.NoError(t, svc.Sweep(context.Background()))
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
	after := testutil.ToFloat64(metrics.AlertsPublished.WithLabelValues(string(models.AlertExpiringSoon)))
	assert.Equal(t, before+1, after)
}

func TestSweep_PublishFailureLeavesAlertUnmarked(t *testing.T) {
	svc, rec, repo, pub := newTestService()
	failing := testAlert("a-1", models.AlertExpired)
	ok := testAlert("a-2", models.AlertExpiringSoon)

	rec.On("ReconcileAll", mock.Anything).Return(nil)
	repo.On("ListAlertsToNotify", mock.Anything).Return([]*models.ContractAlert{failing, ok}, nil)
	pub.On("Publish", mock.Anything, "contract.alert", mock.MatchedBy(func(n models.AlertNotification) bool {
		return n.AlertID == "a-1"
	})).Return(errors.New("channel closed"))
	pub.On("Publish", mock.Anything, "contract.alert", mock.MatchedBy(func(n models.AlertNotification) bool {
		return n.AlertID == "a-2"
	})).Return(nil)
	repo.On("MarkAlertNotified", mock.Anything, "a-2", sweepNow).Return(nil)

	require.NoError(t, svc.Sweep(context.Background()))
	repo.AssertNotCalled(t, "MarkAlertNotified", mock.Anything, "a-1", mock.Anything)
	repo.AssertExpectations(t)
}

func TestSweep_ReconcileErrorStillNotifies(t *testing.T) {
	svc, rec, repo, _ := newTestService()
	before := testutil.ToFloat64(metrics.SweepErrors)

	rec.On("ReconcileAll", mock.Anything).Return(errors.New("contract c-9 failed"))
	repo.On("ListAlertsToNotify", mock.Anything).Return([]*models.ContractAlert{}, nil)

	require.NoError(t, svc.Sweep(context.Background()))
	repo.AssertExpectations(t)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SweepErrors))
}

func TestSweep_ListFailure(t *testing.T) {
	svc, rec, repo, pub := newTestService()
	rec.On("ReconcileAll", mock.Anything).Return(nil)
	repo.On("ListAlertsToNotify", mock.Anything).Return(nil, errors.New("db down"))

	err := svc.Sweep(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "notifier.Sweep")
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
