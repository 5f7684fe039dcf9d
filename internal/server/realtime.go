package server

import (
	"net/http"
	"strings"
)

// NewOriginChecker returns the websocket origin policy matching the CORS
// allow-list. Requests without an Origin header come from non-browser clients
// and are accepted.
func NewOriginChecker(origins []string) func(r *http.Request) bool {
	if allowsAnyOrigin(origins) {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}
