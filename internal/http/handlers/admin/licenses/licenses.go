// Package licenses реализует ручное управление лицензией по email:
// выдачу, продление и отзыв.
package licenses

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Действия над лицензией.
const (
	ActionGrant  = "grant"
	ActionExtend = "extend"
	ActionRevoke = "revoke"
)

// Request — email пользователя и срок в месяцах (для grant и extend, 0 — значение по умолчанию).
type Request struct {
	Email  string `json:"email" validate:"required,email"`
	Months int    `json:"months" validate:"gte=0,lte=120"`
}

// Service описывает ручное управление лицензиями.
type Service interface {
	GrantManual(ctx context.Context, email string, months int) (*models.License, error)
	ExtendManual(ctx context.Context, email string, months int) (*models.License, error)
	RevokeByEmail(ctx context.Context, email string) error
}

// Handler обрабатывает POST /admin/licenses/{action}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Ручное управление лицензией
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param action path string true "grant, extend или revoke"
// @Param request body Request true "Email и срок"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестное действие"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/licenses/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.licenses"

	action := chi.URLParam(r, "action")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("action", action),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var (
		lic *models.License
		err error
	)
	switch action {
	case ActionGrant:
		lic, err = h.service.GrantManual(r.Context(), req.Email, req.Months)
	case ActionExtend:
		lic, err = h.service.ExtendManual(r.Context(), req.Email, req.Months)
	case ActionRevoke:
		err = h.service.RevokeByEmail(r.Context(), req.Email)
	default:
		err = models.ErrInvalidAction
	}
	if err != nil {
		log.Error("license action failed", slog.String("email", req.Email), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("license action applied", slog.String("email", req.Email))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"email":   req.Email,
		"action":  action,
		"license": lic,
	}))
}
