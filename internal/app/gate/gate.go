package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/17marcomoreira-hue/sportswissapp/internal/cache"
	"github.com/17marcomoreira-hue/sportswissapp/internal/config"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/health"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/jwt"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/metrics"
	"github.com/17marcomoreira-hue/sportswissapp/internal/migrations"
	"github.com/17marcomoreira-hue/sportswissapp/internal/rabbitmq"
	adminservice "github.com/17marcomoreira-hue/sportswissapp/internal/services/admin"
	authservice "github.com/17marcomoreira-hue/sportswissapp/internal/services/auth"
	gateservice "github.com/17marcomoreira-hue/sportswissapp/internal/services/gate"
	snapshotservice "github.com/17marcomoreira-hue/sportswissapp/internal/services/snapshot"
	"github.com/17marcomoreira-hue/sportswissapp/internal/storage/repository"
)

// publisher — общий интерфейс публикации уведомлений для сервисов.
type publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// App — HTTP-приложение сервиса доступа.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает маршруты.
// Без RABBITMQ_URL уведомления не отправляются, остальное работает.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var pub publisher
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQRetries, cfg.RabbitMQDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		pub = rabbitmq.NewPublisher(app.ch, rabbitmq.ExchangeNotifications)
	} else {
		logger.Warn("RabbitMQ is not configured, notifications are disabled")
	}

	m := metrics.MustNew(prometheus.DefaultRegisterer)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, cfg.VerificationTTL)

	gateService := gateservice.NewGateService(logger, db, cacheRedis, pub, m, gateservice.Options{
		TrialSeconds:  cfg.TrialSeconds,
		DefaultMonths: cfg.DefaultMonths,
		OfflineGrace:  cfg.OfflineGrace,
	})
	authService := authservice.NewAuthService(logger, db, gateService, jwtMaker, pub, cfg.AdminEmail, cfg.VerifyURL)
	snapshotService := snapshotservice.NewSnapshotService(db, logger)
	adminService := adminservice.NewAdminService(logger, db, cacheRedis, m, adminservice.Options{
		AdminEmail:      cfg.AdminEmail,
		DefaultMonths:   cfg.DefaultMonths,
		MaxKeysPerBatch: cfg.MaxKeysPerBatch,
		UsersLimit:      cfg.UsersListLimit,
		KeysLimit:       cfg.KeysListLimit,
		CacheTTL:        cfg.RedisCacheTTL,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Auth:      authService,
		Gate:      gateService,
		Snapshots: snapshotService,
		Admin:     adminService,
		Checkers: map[string]health.Checker{
			"postgres": db,
			"redis":    cacheRedis,
		},
		Metrics: promhttp.Handler(),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
