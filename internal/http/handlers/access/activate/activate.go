// Package activate реализует активацию лицензии ключом.
package activate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/middlewarectx"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Request — ключ в любом регистре, с пробелами или без дефисов.
type Request struct {
	Key string `json:"key" validate:"required,max=64"`
}

// Service описывает интерфейс активации ключа.
type Service interface {
	Activate(ctx context.Context, p models.Principal, rawKey string) (*models.Activation, error)
}

// Handler обрабатывает POST /license/activate.
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
// @Summary Активация лицензии
// @Description Погашает лицензионный ключ и продлевает лицензию пользователя.
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Лицензионный ключ"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Ключ не найден"
// @Failure 409 {object} response.ErrorResponse "Ключ отозван или уже использован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /license/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.activate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		log.Error("no principal in context")
		response.RenderError(w, r, models.ErrNotSignedIn)
		return
	}

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

	act, err := h.service.Activate(r.Context(), p, req.Key)
	if err != nil {
		log.Error("activation failed", slog.String("uid", p.UID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("license activated", slog.String("uid", p.UID), slog.String("key", act.Key))
	render.JSON(w, r, response.StatusOKWithData(act))
}
