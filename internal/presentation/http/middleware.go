package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rubenrizquez10/comicstore/internal/domain/user"
	"github.com/rubenrizquez10/comicstore/internal/pkg/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type userKey struct{}

func contextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey{}).(*user.User)
	return u, ok
}

// requireAuth parses the bearer token, loads the account, and injects it
// plus a user-scoped logger into the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			writeFail(w, http.StatusUnauthorized, "Token de acceso requerido")
			return
		}

		u, err := h.auth.Verify(r.Context(), token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		ctx := contextWithUser(r.Context(), u)
		logger := logging.FromContext(ctx).With(zap.Uint("user_id", u.ID))
		ctx = logging.ContextWithLogger(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestLogger binds the base logger (plus request id, when the client
// sent one) into the context for every handler downstream.
func (h *Handler) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := h.log
		if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
			logger = logger.With(zap.String("request_id", reqID))
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			logger = logger.With(
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		ctx := logging.ContextWithLogger(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withTrace opens a server span per request with W3C context propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("comicstore.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(parentCtx,
			r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withAccessLog writes one access line after the handler completes, and
// records the HTTP RED metrics with the low-cardinality route template.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unknown"
		}
		latency := time.Since(start)

		logging.FromContext(r.Context()).Info("http_access",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.status),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)

		if h.metrics.Requests != nil {
			h.metrics.Requests.WithLabelValues(r.Method, route, strconv.Itoa(lrw.status)).Inc()
		}
		if h.metrics.Duration != nil {
			h.metrics.Duration.WithLabelValues(r.Method, route).Observe(latency.Seconds())
		}
	})
}
