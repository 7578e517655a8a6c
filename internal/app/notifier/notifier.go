// Package notifier собирает сервис почтовых уведомлений: подключение
// к RabbitMQ, SMTP-транспорт и потребителя событий изменения цены.
package notifier

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-splitter/internal/config"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/subscription-splitter/internal/services/notifier"
)

// App — сервис почтовых уведомлений.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.NotifierService
	logger          *slog.Logger
}

// New собирает сервис уведомлений из конфигурации.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.RetriesRabbit, cfg.DelayRabbit)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTPConnection, logger)
	notifierService := notifierservice.NewNotifierService(transport, logger)

	return &App{
		conn:            conn,
		ch:              ch,
		notifierService: notifierService,
		logger:          logger,
	}, nil
}

// Run запускает потребителя очереди уведомлений и блокируется до
// отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		if err := rabbitmq.ConsumeMessages(ctx, a.ch, q.QueueName, a.notifierService.HandlePriceChange); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
