package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/2beens/fitdiary/internal/telemetry/metrics"
	"github.com/2beens/fitdiary/pkg"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type errorResponse struct {
	Error string `json:"error"`
}

// PanicRecovery turns a handler panic into a json 500 and reports it to
// sentry and the request span. http.ErrAbortHandler is passed through so
// net/http can abort the connection.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(r)
				}

				log.Errorf("http: panic serving [%s] %s: %v\n%s", req.Method, req.URL.Path, r, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				hub := sentry.GetHubFromContext(req.Context())
				if hub == nil {
					hub = sentry.CurrentHub()
				}
				hub.RecoverWithContext(req.Context(), r)

				span := trace.SpanFromContext(req.Context())
				span.RecordError(fmt.Errorf("panic: %v", r))
				span.SetStatus(codes.Error, "panic")

				pkg.WriteJSONResponse(respWriter, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
