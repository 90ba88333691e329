// Package health отдаёт состояние сервиса и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
)

// Checker проверяет доступность зависимости.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler обрабатывает GET /health.
type Handler struct {
	log      *slog.Logger
	checkers map[string]Checker
}

// New создает новый экземпляр Handler. checkers — именованные зависимости для проверки.
func New(log *slog.Logger, checkers map[string]Checker) *Handler {
	return &Handler{
		log:      log,
		checkers: checkers,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	deps := make(map[string]string, len(h.checkers))
	healthy := true
	for name, c := range h.checkers {
		if err := c.Ping(r.Context()); err != nil {
			h.log.Error("dependency unavailable", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			deps[name] = "unavailable"
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	status := "ok"
	if !healthy {
		status = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":       status,
		"dependencies": deps,
	}))
}
