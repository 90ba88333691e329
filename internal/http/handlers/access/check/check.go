// Package check реализует онлайн-проверку доступа к приложению.
//
// Запрос привязывает устройство из заголовка X-Device-ID к профилю, создаёт профиль
// с пробным периодом при первом входе и возвращает режим доступа вместе
// с записью для работы без сети.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/middlewarectx"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// DeviceHeader — заголовок с идентификатором устройства клиента.
const DeviceHeader = "X-Device-ID"

// Service описывает интерфейс проверки доступа.
type Service interface {
	Check(ctx context.Context, p models.Principal, deviceID string) (*models.GateResult, error)
}

// Handler обрабатывает GET /access.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверка доступа
// @Description Привязывает устройство, вычисляет режим доступа (license или trial) и возвращает запись для офлайн-режима.
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Param X-Device-ID header string true "Идентификатор устройства"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Нет идентификатора устройства"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"

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

	res, err := h.service.Check(r.Context(), p, r.Header.Get(DeviceHeader))
	if err != nil {
		log.Error("access check failed", slog.String("uid", p.UID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("access checked",
		slog.String("uid", p.UID),
		slog.String("mode", res.Access.Mode),
		slog.Bool("allowed", res.Access.Allowed),
	)
	render.JSON(w, r, response.StatusOKWithData(res))
}
