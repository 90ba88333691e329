// Package remove реализует удаление снимка. Снимок помечается удалённым, строка остаётся.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/middlewarectx"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Service описывает удаление снимка.
type Service interface {
	Delete(ctx context.Context, uid, id string) error
}

// Handler обрабатывает DELETE /snapshots/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление снимка
// @Tags Snapshots
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID снимка"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Снимок не найден"
// @Router /snapshots/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.snapshot.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrNotSignedIn)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), p.UID, id); err != nil {
		log.Error("failed to delete snapshot", slog.String("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
