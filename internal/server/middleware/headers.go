package middleware

import (
	"net/http"
	"strings"
)

// DevServerOrigin is the frontend dev server allowed to load scripts and open connections in development.
const DevServerOrigin = "http://127.0.0.1:1337"

// ContentSecurityPolicy builds the CSP header value.
func ContentSecurityPolicy(development bool) string {
	scriptSrc, connectSrc := "'self'", "'self'"
	if development {
		scriptSrc += " " + DevServerOrigin
		connectSrc += " " + DevServerOrigin
	}
	directives := []string{
		"default-src 'self'",
		"script-src " + scriptSrc,
		"style-src 'self'",
		"font-src 'self'",
		"connect-src " + connectSrc,
		"img-src 'self' data:",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	// Plain-HTTP local development would otherwise have every subresource upgraded to https.
	if !development {
		directives = append(directives, "upgrade-insecure-requests", "block-all-mixed-content")
	}
	return strings.Join(directives, "; ")
}

// SecurityHeaders sets CSP and the usual hardening headers on every response.
func SecurityHeaders(development bool) func(http.Handler) http.Handler {
	csp := ContentSecurityPolicy(development)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "same-origin")
			next.ServeHTTP(w, r)
		})
	}
}
