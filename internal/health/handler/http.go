package handler

import (
	"net/http"
	"sort"

	"task-board/backend/internal/server/httpx"
)

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// ServeHTTP handles GET /healthz: 200 when every probe passes, 503 with the failing probe names otherwise.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	failed := s.Probe(r.Context())
	if len(failed) == 0 {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Failed: names})
}
