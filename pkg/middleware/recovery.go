package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
	"github.com/eduhaag/GoMarketplace/pkg/httputil"
)

// Recovery recovers from panics and returns a 500 error instead of crashing.
// A panic carrying a misuse error keeps its code in the response so the
// wiring fault is visible to the caller.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				resp := &httputil.ErrorResponse{
					Code:    "INTERNAL_ERROR",
					Message: "an internal error occurred",
				}
				var appErr *apperrors.AppError
				if err, ok := rec.(error); ok && apperrors.IsMisuse(err) && errors.As(err, &appErr) {
					resp.Code = appErr.Code
					resp.Message = appErr.Message
				}
				httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{Error: resp})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
