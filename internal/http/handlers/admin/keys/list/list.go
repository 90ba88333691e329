// Package list реализует список лицензионных ключей в админке.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Service описывает получение списка ключей.
type Service interface {
	ListKeys(ctx context.Context, filter models.KeyFilter, query string) ([]models.LicenseKey, error)
	RefreshKeys(ctx context.Context) ([]models.LicenseKey, error)
}

// Handler обрабатывает GET /admin/keys.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список ключей
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param filter query string false "all, available, used, revoked или expired"
// @Param q query string false "Подстрока ключа или email"
// @Param refresh query bool false "Перечитать из базы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный фильтр"
// @Router /admin/keys [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.keys.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	filter := models.KeyFilter(q.Get("filter"))
	if filter == "" {
		filter = models.KeyFilterAll
	}

	if v := q.Get("refresh"); v == "1" || v == "true" {
		if _, err := h.service.RefreshKeys(r.Context()); err != nil {
			log.Error("failed to refresh keys", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
	}

	keys, err := h.service.ListKeys(r.Context(), filter, q.Get("q"))
	if err != nil {
		log.Error("failed to list keys", slog.String("filter", string(filter)), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count":  len(keys),
		"filter": filter,
		"keys":   keys,
	}))
}
