// Package services содержит фоновую сверку контрактов и публикацию
// неотправленных уведомлений в RabbitMQ.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/metrics"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Reconciler выполняет полную сверку статусов контрактов.
type Reconciler interface {
	ReconcileAll(ctx context.Context) error
}

// Repository хранилище уведомлений, ожидающих отправки.
type Repository interface {
	ListAlertsToNotify(ctx context.Context) ([]*models.ContractAlert, error)
	MarkAlertNotified(ctx context.Context, id string, at time.Time) error
}

// Publisher доставляет сообщение в обменник уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// NotifierService сверяет контракты и рассылает новые уведомления.
type NotifierService struct {
	reconciler Reconciler
	repo       Repository
	publisher  Publisher
	log        *slog.Logger
	routingKey string
	now        func() time.Time
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(reconciler Reconciler, repo Repository, publisher Publisher, log *slog.Logger, routingKey string) *NotifierService {
	return &NotifierService{
		reconciler: reconciler,
		repo:       repo,
		publisher:  publisher,
		log:        log,
		routingKey: routingKey,
		now:        time.Now,
	}
}

// Sweep сверяет все контракты и публикует каждое PENDING-уведомление, которое ещё
// не отправлялось. Отметка об отправке ставится только после успешной публикации,
// поэтому при сбое сообщение уйдёт при следующем запуске.
func (s *NotifierService) Sweep(ctx context.Context) error {
	const op = "notifier.Sweep"
	log := s.log.With(slog.String("op", op))
	log.Info("starting contract alert sweep")

	if err := s.reconciler.ReconcileAll(ctx); err != nil {
		// Частичная сверка не мешает отправить уже созданные уведомления.
		metrics.SweepErrors.Inc()
		log.Error("reconcile finished with errors", sl.Err(err))
	}

	alerts, err := s.repo.ListAlertsToNotify(ctx)
	if err != nil {
		metrics.SweepErrors.Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(alerts) == 0 {
		log.Info("no alerts to notify")
		return nil
	}
	log.Info("found alerts to notify", slog.Int("count", len(alerts)))

	var published int
	for _, alert := range alerts {
		if err := s.publisher.Publish(ctx, s.routingKey, toNotification(alert)); err != nil {
			metrics.SweepErrors.Inc()
			log.Error("failed to publish alert", slog.String("alert_id", alert.ID), sl.Err(err))
			continue
		}
		if err := s.repo.MarkAlertNotified(ctx, alert.ID, s.now().UTC()); err != nil {
			metrics.SweepErrors.Inc()
			log.Error("failed to mark alert notified", slog.String("alert_id", alert.ID), sl.Err(err))
			continue
		}
		metrics.AlertsPublished.WithLabelValues(string(alert.AlertType)).Inc()
		published++
	}
	log.Info("contract alert sweep finished", slog.Int("published", published))
	return nil
}

func toNotification(alert *models.ContractAlert) models.AlertNotification {
	n := models.AlertNotification{
		AlertID:    alert.ID,
		ContractID: alert.ContractID,
		AlertType:  alert.AlertType,
		Message:    alert.Message,
	}
	if c := alert.Contract; c != nil {
		n.EndDate = c.EndDate
		if c.Client != nil {
			n.ClientEmail = c.Client.Email
			n.ClientName = c.Client.FullName
		}
		if c.Site != nil {
			n.SiteName = c.Site.Name
		}
	}
	return n
}
