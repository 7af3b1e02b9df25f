// Package notifier содержит фоновое приложение: сверка уведомлений по расписанию,
// публикация их в RabbitMQ и отправка писем из очередей.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/parking-manager/internal/config"
	"github.com/magabrotheeeer/parking-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/lib/smtp"
	contractservice "github.com/magabrotheeeer/parking-manager/internal/services/contracts"
	notifierservice "github.com/magabrotheeeer/parking-manager/internal/services/notifier"
	senderservice "github.com/magabrotheeeer/parking-manager/internal/services/sender"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение рассылки уведомлений.
type App struct {
	notifierService *notifierservice.NotifierService
	senderService   *senderservice.SenderService
	cron            *cron.Cron
	db              *storage.Storage
	conn            *amqp.Connection
	ch              *amqp.Channel
	cfg             *config.Config
	logger          *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range dbReadyAttempts {
		if err := storage.CheckDatabaseReady(db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.NotificationQueues(cfg.RabbitMQ))
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		_ = db.DB.Close()
		return nil, err
	}

	contractService := contractservice.NewContractService(db, logger, cfg.AlertThresholdDays)
	publisher := rabbitmq.NewPublisher(ch, cfg.Exchange)
	notifierService := notifierservice.NewNotifierService(contractService, db, publisher, logger, cfg.AlertRoutingKey)
	senderService := senderservice.NewSenderService(logger, smtp.NewTransport(cfg.SMTP, logger))

	return &App{
		notifierService: notifierService,
		senderService:   senderService,
		cron:            cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		db:              db,
		conn:            conn,
		ch:              ch,
		cfg:             cfg,
		logger:          logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает потребителей очередей и сверку по расписанию, ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.cfg.AlertQueue, a.senderService.SendContractAlert); err != nil {
		return err
	}
	if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.cfg.ResetQueue, a.senderService.SendPasswordReset); err != nil {
		return err
	}

	sweep := func() {
		if err := a.notifierService.Sweep(ctx); err != nil {
			a.logger.Error("alert sweep failed", sl.Err(err))
		}
	}
	if _, err := a.cron.AddFunc(a.cfg.Schedule, sweep); err != nil {
		return fmt.Errorf("invalid notifier schedule %q: %w", a.cfg.Schedule, err)
	}

	sweep()
	a.cron.Start()
	a.logger.Info("notifier started", slog.String("schedule", a.cfg.Schedule))

	<-ctx.Done()

	a.logger.Info("shutting down notifier")
	<-a.cron.Stop().Done()

	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
