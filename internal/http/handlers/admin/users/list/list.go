// Package list реализует список пользователей в админке.
//
// Список берётся из кэша Redis; параметр refresh=1 перечитывает его из базы.
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
	services "github.com/17marcomoreira-hue/sportswissapp/internal/services/admin"
)

// Service описывает получение списка пользователей.
type Service interface {
	ListUsers(ctx context.Context, query string) ([]models.User, error)
	RefreshUsers(ctx context.Context) ([]models.User, error)
}

// Handler обрабатывает GET /admin/users.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description До 500 последних профилей, поиск по подстроке email.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Подстрока email"
// @Param refresh query bool false "Перечитать из базы"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query().Get("q")

	var (
		users []models.User
		err   error
	)
	if isRefresh(r) {
		users, err = h.service.RefreshUsers(r.Context())
		users = services.FilterUsers(users, query)
	} else {
		users, err = h.service.ListUsers(r.Context(), query)
	}
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count": len(users),
		"users": users,
	}))
}

func isRefresh(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	return v == "1" || v == "true"
}
