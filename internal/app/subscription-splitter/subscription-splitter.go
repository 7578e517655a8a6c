// Package subscriptionsplitter собирает основное приложение: хранилище,
// миграции, кеш, очередь уведомлений, сервисы и HTTP-сервер.
package subscriptionsplitter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-splitter/internal/cache"
	"github.com/magabrotheeeer/subscription-splitter/internal/config"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/migrations"
	authservice "github.com/magabrotheeeer/subscription-splitter/internal/services/auth"
	memberservice "github.com/magabrotheeeer/subscription-splitter/internal/services/member"
	subservice "github.com/magabrotheeeer/subscription-splitter/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// App — основное приложение с HTTP-сервером и его зависимостями.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
}

// New собирает приложение из конфигурации: подключается к PostgreSQL,
// применяет миграции, поднимает Redis и RabbitMQ, строит сервисы и роутер.
// RabbitMQ необязателен: при недоступности события изменения цены
// не публикуются, остальное работает как обычно.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var rabbitConn *amqp.Connection
	var publisher subservice.Publisher
	rabbitConn, err = rabbitmq.Connect(cfg.AddressRabbit, cfg.RetriesRabbit, cfg.DelayRabbit)
	if err != nil {
		logger.Warn("rabbitmq is unavailable, price change events disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetNotificationQueues())
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch)
	}

	maker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, maker, logger)
	subscriptionService := subservice.NewSubscriptionService(db, db, cacheRedis, publisher, logger)
	memberService := memberservice.NewMemberService(db, db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, maker, db, authService, subscriptionService, memberService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.rabbitConn != nil {
			_ = a.rabbitConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
