// Package verify реализует переход по ссылке подтверждения email.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/jwt"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
)

// Service описывает подтверждение email.
type Service interface {
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// Handler обрабатывает GET /verify?token=.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение email
// @Tags Auth
// @Produce json
// @Param token query string true "Токен из письма"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Токен недействителен"
// @Failure 404 {object} response.ErrorResponse "Учётная запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /verify [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}

	uid, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		log.Error("email verification failed", sl.Err(err))
		if errors.Is(err, jwt.ErrInvalidToken) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(jwt.ErrInvalidToken.Error()))
			return
		}
		response.RenderError(w, r, err)
		return
	}

	log.Info("email verified", slog.String("uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uid":      uid,
		"verified": true,
	}))
}
