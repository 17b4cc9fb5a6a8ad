package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/JaimeStill/vantage/pkg/handlers"
)

// Recover returns middleware that converts a handler panic into a 500
// JSON error and logs the stack. http.ErrAbortHandler is re-panicked so
// the server can abort the connection.
func Recover(logger *slog.Logger) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logger.Error("handler panic",
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"panic", v,
					"stack", string(debug.Stack()),
				)
				handlers.RespondError(w, logger, http.StatusInternalServerError, fmt.Errorf("internal error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
