// Package notifier содержит приложение, которое читает уведомления из RabbitMQ и отправляет письма.
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/17marcomoreira-hue/sportswissapp/internal/config"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/mailer"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/metrics"
	"github.com/17marcomoreira-hue/sportswissapp/internal/rabbitmq"
	notifierservice "github.com/17marcomoreira-hue/sportswissapp/internal/services/notifier"
)

// App — отправитель писем.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.NotifierService
	metricsServer   *http.Server
	logger          *slog.Logger
}

// New подключается к брокеру и настраивает SMTP-отправку.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQRetries, cfg.RabbitMQDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	m := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	notifierService := notifierservice.NewNotifierService(m, metrics.MustNew(prometheus.DefaultRegisterer), logger)

	app := &App{
		conn:            conn,
		ch:              ch,
		notifierService: notifierService,
		logger:          logger,
	}
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		app.metricsServer = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return app, nil
}

// Run запускает потребителей всех очередей уведомлений и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, a.notifierService.Handle)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
	}

	if a.metricsServer != nil {
		go func() {
			a.logger.Info("metrics server starting on", slog.String("address", a.metricsServer.Addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", sl.Err(err))
			}
		}()
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")

	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to stop metrics server", sl.Err(err))
		}
	}

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
