package middleware

import (
	"net/http"

	"task-board/backend/internal/audit"
)

// AuditWrites records an audit entry after each successful state-changing request of an authenticated
// account. Use it inside the route so r.Pattern is set. Entries are best-effort.
func AuditWrites(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if isSafeMethod(r.Method) || rec.status >= http.StatusBadRequest {
				return
			}
			accountID, ok := GetAccountID(r.Context())
			if !ok {
				return
			}
			ar := audit.ParseRoute(r.Method, r.Pattern)
			meta := ""
			if id := r.PathValue("id"); id != "" {
				meta = audit.Metadata(map[string]string{"id": id})
			}
			logger.LogEvent(r.Context(), accountID, ar.Action, ar.Resource, meta)
		})
	}
}
