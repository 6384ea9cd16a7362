package middleware

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/eduhaag/GoMarketplace/pkg/logger"
)

// DeviceIDHeader identifies the client device owning a cart.
const DeviceIDHeader = "X-Device-ID"

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, device_id, trace_id and span_id, then stores it in
// context via logger.NewContext.
//
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Malformed device ids are dropped rather than logged verbatim.
			if id := r.Header.Get(DeviceIDHeader); deviceIDPattern.MatchString(id) {
				ctx = logger.WithDeviceID(ctx, id)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// JSONContentType forces a JSON content type on every response.
func JSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
