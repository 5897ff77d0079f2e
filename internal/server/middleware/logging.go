package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"task-board/backend/internal/logging"
	"task-board/backend/internal/server/httpx"
)

const tracerName = "task-board/backend/http"

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wrote {
		s.status = code
		s.wrote = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wrote {
		s.status = http.StatusOK
		s.wrote = true
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// requestInfo is filled in by inner handlers so the outer logger can report the account.
type requestInfo struct {
	accountID string
}

var requestInfoKey = contextKey{"request_info"}

func noteAccount(ctx context.Context, accountID string) {
	if ri, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		ri.accountID = accountID
	}
}

// RequestLogger assigns a request id, records the client IP, opens a span, and logs one line per request.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	tracer := otel.Tracer(tracerName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}
			ip := RequestClientIP(r)
			info := &requestInfo{}

			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("client.address", ip),
				))
			defer span.End()

			ctx = WithRequestID(ctx, reqID)
			ctx = WithClientIP(ctx, ip)
			ctx = context.WithValue(ctx, requestInfoKey, info)

			w.Header().Set(RequestIDHeader, reqID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
			args := []any{
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", ip,
			}
			if info.accountID != "" {
				args = append(args, "account_id", info.accountID)
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				log.Error(ctx, "http request", args...)
			case rec.status >= http.StatusBadRequest:
				log.Warn(ctx, "http request", args...)
			default:
				log.Info(ctx, "http request", args...)
			}
		})
	}
}

// Recover turns a panic into a logged 500 INTERNAL response. detail includes the panic value (development).
func Recover(log logging.Logger, detail bool) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
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
				err := fmt.Errorf("panic: %v", v)
				args := []any{
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
				}
				if id, ok := GetAccountID(r.Context()); ok {
					args = append(args, "account_id", id)
				}
				log.Error(r.Context(), "http handler panicked", args...)
				if rec, ok := w.(*statusRecorder); ok && rec.wrote {
					return
				}
				httpx.WriteInternal(w, err, detail)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
