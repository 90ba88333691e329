// Package revoke реализует отзыв лицензионного ключа.
package revoke

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
)

// Service описывает отзыв ключа.
type Service interface {
	RevokeKey(ctx context.Context, rawKey string) error
}

// Handler обрабатывает POST /admin/keys/{key}/revoke.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отзыв ключа
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "Лицензионный ключ"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Пустой ключ"
// @Failure 404 {object} response.ErrorResponse "Ключ не найден"
// @Router /admin/keys/{key}/revoke [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.keys.revoke"

	key := chi.URLParam(r, "key")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("key", key),
	)

	if err := h.service.RevokeKey(r.Context(), key); err != nil {
		log.Error("failed to revoke key", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("key revoked")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"key":     key,
		"revoked": true,
	}))
}
