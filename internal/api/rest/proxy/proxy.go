// Package proxy forwards pass-through API traffic to the downstream service
// that owns it. The gateway adds authentication; the services keep their own
// request and response contracts.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/ecomstack/api-gateway/internal/api/rest/response"
)

// Router picks the owning service from the path segment after /api/public or
// /api/secure and forwards the request unchanged.
type Router struct {
	proxies map[string]*httputil.ReverseProxy
}

// New creates a Router for the given service targets, keyed by the path
// segment that names the service (e.g. "products", "carts").
func New(targets map[string]*url.URL) *Router {
	proxies := make(map[string]*httputil.ReverseProxy, len(targets))
	for name, target := range targets {
		proxies[name] = httputil.NewSingleHostReverseProxy(target)
	}

	return &Router{proxies: proxies}
}

// ServeHTTP implements http.Handler
func (p *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	service, ok := serviceSegment(r.URL.Path)
	if !ok {
		response.WriteError(w, http.StatusBadRequest, "invalid_request",
			`Bad request; endpoint should start with "/api/public" or "/api/secure"`)
		return
	}

	proxy, ok := p.proxies[service]
	if !ok {
		response.WriteError(w, http.StatusNotFound, "unknown_service", "No such service: "+service)
		return
	}

	proxy.ServeHTTP(w, r)
}

// serviceSegment extracts the service name from /api/{public|secure}/{service}/...
func serviceSegment(path string) (string, bool) {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 4)
	if len(parts) < 3 || parts[0] != "api" {
		return "", false
	}
	if parts[1] != "public" && parts[1] != "secure" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}

	return parts[2], true
}
