// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "gte", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is out of range", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// StatusFor сопоставляет доменную ошибку HTTP-статусу и тексту для клиента.
// Неизвестные ошибки скрываются за "internal error".
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotSignedIn):
		return http.StatusUnauthorized, models.ErrNotSignedIn.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, models.ErrInvalidCredentials.Error()
	case errors.Is(err, models.ErrAccessDenied):
		return http.StatusForbidden, models.ErrAccessDenied.Error()
	}

	for _, e := range []error{models.ErrUserNotFound, models.ErrKeyNotFound, models.ErrSnapshotNotFound} {
		if errors.Is(err, e) {
			return http.StatusNotFound, e.Error()
		}
	}
	for _, e := range []error{models.ErrKeyAlreadyUsed, models.ErrKeyRevoked, models.ErrUserExists, models.ErrKeyExists} {
		if errors.Is(err, e) {
			return http.StatusConflict, e.Error()
		}
	}
	for _, e := range []error{
		models.ErrEmptyKey, models.ErrEmptyEmail, models.ErrEmptyDeviceID, models.ErrEmptySnapshotID,
		models.ErrInvalidSnapshot, models.ErrInvalidFilter, models.ErrInvalidAction,
	} {
		if errors.Is(err, e) {
			return http.StatusBadRequest, e.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// RenderError пишет ответ с ошибкой и статусом из StatusFor.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}
