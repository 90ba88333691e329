// Package remove удаляет профиль пользователя вместе со всеми его снимками.
package remove

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

// Service описывает удаление данных пользователя.
type Service interface {
	DeleteUserData(ctx context.Context, uid string) (int64, error)
}

// Handler обрабатывает DELETE /admin/users/{uid}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление данных пользователя
// @Description Удаляет снимки пачками и затем профиль. Учётная запись для входа сохраняется.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse "Удаление прервано"
// @Router /admin/users/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.remove"

	uid := chi.URLParam(r, "uid")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("uid", uid),
	)

	deleted, err := h.service.DeleteUserData(r.Context(), uid)
	if err != nil {
		log.Error("failed to delete user data", slog.Int64("snapshots_deleted", deleted), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user data deleted", slog.Int64("snapshots_deleted", deleted))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uid":               uid,
		"snapshots_deleted": deleted,
	}))
}
