package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"time"

	"github.com/gorilla/handlers"
)

// CORSMiddleware allows any origin and answers preflight requests with 204.
func CORSMiddleware(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)(next)
}

// MaxBodyMiddleware rejects bodies larger than limit with 413. Declared
// lengths are checked up front; chunked bodies are cut off while reading.
func MaxBodyMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Request body too large"})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware writes one info line per request with status and duration.
func LoggingMiddleware(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
			logger.Info("%s %s %d %s", p.Request.Method, p.URL.Path, p.StatusCode, time.Since(p.TimeStamp).Round(time.Microsecond))
		})
	}
}
