// Package generate реализует выпуск пачки лицензионных ключей.
package generate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
)

// Request — размер пачки и срок действия ключей. Нули заменяются значениями по умолчанию.
type Request struct {
	Count  int `json:"count" validate:"gte=0"`
	Months int `json:"months" validate:"gte=0,lte=120"`
}

// Service описывает выпуск ключей.
type Service interface {
	GenerateKeys(ctx context.Context, count, months int) ([]string, error)
}

// Handler обрабатывает POST /admin/keys.
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
// @Summary Выпуск ключей
// @Description Создаёт от 1 до 500 ключей формата XXXX-XXXX-XXXX.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Количество и срок"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/keys [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.keys.generate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
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

	keys, err := h.service.GenerateKeys(r.Context(), req.Count, req.Months)
	if err != nil {
		log.Error("failed to generate keys", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("keys generated", slog.Int("count", len(keys)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count": len(keys),
		"keys":  keys,
	}))
}
