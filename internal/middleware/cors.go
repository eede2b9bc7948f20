package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/cors"
)

// OriginPolicy is the allow-list shared by CORS and the websocket upgrade.
// A "*" entry allows any origin.
type OriginPolicy struct {
	allowAll bool
	origins  map[string]struct{}
}

// NewOriginPolicy builds a policy from configured origins.
func NewOriginPolicy(allowed []string) OriginPolicy {
	p := OriginPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			p.allowAll = true
			continue
		}
		if origin != "" {
			p.origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether a cross-origin caller may use the API.
func (p OriginPolicy) Allowed(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[strings.ToLower(strings.TrimRight(origin, "/"))]
	return ok
}

// CheckOrigin is a websocket.Upgrader check: requests without an Origin
// header (non-browser clients) and same-host pages are always accepted.
func (p OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if p.Allowed(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// CORS allows the portfolio page to call the API from its own origin.
func CORS(policy OriginPolicy) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return policy.Allowed(origin)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
}
