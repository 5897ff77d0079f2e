package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for a request method and route pattern
// (e.g. "PUT", "/api/tasks/{id}" -> update/task). The resource is the first path segment after /api,
// singularized; the action follows the method.
func ParseRoute(method, pattern string) ActionResource {
	// ServeMux patterns may carry the method ("PUT /api/tasks/{id}").
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	path := strings.TrimPrefix(strings.Trim(pattern, "/"), "api/")
	seg := path
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	resource := singular(seg)
	if resource == "" {
		resource = "unknown"
	}
	return ActionResource{Action: methodToAction(method), Resource: resource}
}

func singular(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return strings.TrimSuffix(s, "s")
	}
	return s
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
