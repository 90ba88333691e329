package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/17marcomoreira-hue/sportswissapp/internal/access"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// AdminOnly пропускает запрос, только если email пользователя совпадает с адресом администратора.
// Роль из токена не учитывается: адрес администратора мог смениться после выпуска токена.
func AdminOnly(adminEmail string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminOnly"

			p, ok := PrincipalFrom(r.Context())
			if !ok {
				response.RenderError(w, r, models.ErrNotSignedIn)
				return
			}
			if !access.IsAdminEmail(p.Email, adminEmail) {
				log.Warn("admin access denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("uid", p.UID))
				response.RenderError(w, r, models.ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
