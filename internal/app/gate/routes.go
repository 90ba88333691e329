// Package gate собирает HTTP API сервиса доступа: маршруты, зависимости и жизненный цикл сервера.
package gate

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/17marcomoreira-hue/sportswissapp/internal/config"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/access/activate"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/access/check"
	keyexport "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/keys/export"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/keys/generate"
	keylist "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/keys/list"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/keys/revoke"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/licenses"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/users/action"
	userexport "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/users/export"
	userlist "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/users/list"
	userremove "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/admin/users/remove"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/auth/login"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/auth/register"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/auth/verify"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/health"
	snapshotlist "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/snapshot/list"
	snapshotread "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/snapshot/read"
	snapshotremove "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/snapshot/remove"
	snapshotsave "github.com/17marcomoreira-hue/sportswissapp/internal/http/handlers/snapshot/save"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/middlewarectx"
)

// AuthService — регистрация, вход, подтверждение email и проверка JWT.
type AuthService interface {
	register.Service
	login.Service
	verify.Service
	middlewarectx.Service
}

// GateService — онлайн-проверка доступа и активация ключа.
type GateService interface {
	check.Service
	activate.Service
}

// SnapshotService — снимки состояния пользователя.
type SnapshotService interface {
	snapshotsave.Service
	snapshotlist.Service
	snapshotread.Service
	snapshotremove.Service
}

// AdminService — операции консоли администратора.
type AdminService interface {
	userlist.Service
	userexport.Service
	action.Service
	userremove.Service
	licenses.Service
	keylist.Service
	keyexport.Service
	generate.Service
	revoke.Service
}

// Services — зависимости маршрутов.
type Services struct {
	Auth      AuthService
	Gate      GateService
	Snapshots SnapshotService
	Admin     AdminService
	Checkers  map[string]health.Checker
	Metrics   http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/verify", verify.New(logger, s.Auth).ServeHTTP)
		r.Get("/health", health.New(logger, s.Checkers).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RequestsPerSecond, cfg.Burst))

			r.Get("/access", check.New(logger, s.Gate).ServeHTTP)
			r.Post("/license/activate", activate.New(logger, s.Gate).ServeHTTP)

			r.Post("/snapshots", snapshotsave.New(logger, s.Snapshots).ServeHTTP)
			r.Get("/snapshots", snapshotlist.New(logger, s.Snapshots).ServeHTTP)
			r.Get("/snapshots/{id}", snapshotread.New(logger, s.Snapshots).ServeHTTP)
			r.Delete("/snapshots/{id}", snapshotremove.New(logger, s.Snapshots).ServeHTTP)

			// Консоль администратора
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(cfg.AdminEmail, logger))

				r.Get("/users", userlist.New(logger, s.Admin).ServeHTTP)
				r.Get("/users/export", userexport.New(logger, s.Admin).ServeHTTP)
				r.Post("/users/{uid}/{action}", action.New(logger, s.Admin).ServeHTTP)
				r.Delete("/users/{uid}", userremove.New(logger, s.Admin).ServeHTTP)

				r.Post("/licenses/{action}", licenses.New(logger, s.Admin).ServeHTTP)

				r.Get("/keys", keylist.New(logger, s.Admin).ServeHTTP)
				r.Get("/keys/export", keyexport.New(logger, s.Admin).ServeHTTP)
				r.Post("/keys", generate.New(logger, s.Admin).ServeHTTP)
				r.Post("/keys/{key}/revoke", revoke.New(logger, s.Admin).ServeHTTP)
			})
		})
	})

	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
