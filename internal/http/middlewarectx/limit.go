package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
)

// maxLimiters ограничивает число отслеживаемых клиентов; при переполнении таблица сбрасывается.
const maxLimiters = 10000

// limiters хранит отдельный token bucket на каждого клиента.
type limiters struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byKey map[string]*rate.Limiter
}

func (l *limiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.byKey[key]
	if !ok {
		if len(l.byKey) >= maxLimiters {
			l.byKey = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.rps, l.burst)
		l.byKey[key] = lim
	}
	return lim
}

// RateLimitMiddleware ограничивает частоту запросов клиента: rps в секунду с запасом burst.
// Клиент определяется по пользователю из контекста, а до аутентификации по IP.
func RateLimitMiddleware(log *slog.Logger, rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	l := &limiters{rps: rate.Limit(rps), burst: burst, byKey: make(map[string]*rate.Limiter)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.get(clientKey(r)).Allow() {
				log.Error("too many requests", slog.String("client", clientKey(r)))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if p, ok := PrincipalFrom(r.Context()); ok {
		return "uid:" + p.UID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
