// Package action выполняет действия администратора над профилем пользователя:
// ручное подтверждение email, запрос повторного письма и отзыв лицензии.
package action

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Действия над пользователем.
const (
	ActionVerifyOverride     = "verify-override"
	ActionResendVerification = "resend-verification"
	ActionRevokeLicense      = "revoke-license"
)

// Request — тело запроса для verify-override. Для остальных действий тело не нужно.
type Request struct {
	On bool `json:"on"`
}

// Service описывает действия администратора над пользователем.
type Service interface {
	SetVerificationOverride(ctx context.Context, uid string, on bool) error
	RequestResendVerification(ctx context.Context, uid string) error
	RevokeUserLicense(ctx context.Context, uid string) error
}

// Handler обрабатывает POST /admin/users/{uid}/{action}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Действие над пользователем
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param action path string true "verify-override, resend-verification или revoke-license"
// @Param request body Request false "Флаг для verify-override"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестное действие"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /admin/users/{uid}/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.action"

	uid := chi.URLParam(r, "uid")
	action := chi.URLParam(r, "action")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("uid", uid),
		slog.String("action", action),
	)

	var err error
	switch action {
	case ActionVerifyOverride:
		var req Request
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		err = h.service.SetVerificationOverride(r.Context(), uid, req.On)
	case ActionResendVerification:
		err = h.service.RequestResendVerification(r.Context(), uid)
	case ActionRevokeLicense:
		err = h.service.RevokeUserLicense(r.Context(), uid)
	default:
		err = models.ErrInvalidAction
	}
	if err != nil {
		log.Error("admin action failed", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("admin action applied")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uid":    uid,
		"action": action,
	}))
}
