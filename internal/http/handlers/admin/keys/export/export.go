// Package export отдаёт CSV-выгрузку лицензионных ключей.
package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
)

// Service описывает выгрузку ключей.
type Service interface {
	ExportKeysCSV(ctx context.Context, w io.Writer) (int, error)
}

// Handler обрабатывает GET /admin/keys/export.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выгрузка ключей в CSV
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/keys/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.keys.export"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var buf bytes.Buffer
	n, err := h.service.ExportKeysCSV(r.Context(), &buf)
	if err != nil {
		log.Error("failed to export keys", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="license_keys.csv"`)
	w.Header().Set("X-Export-Rows", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(buf.Bytes()); err != nil {
		log.Error("failed to write response", sl.Err(err))
	}
}
