package mw

import (
	"net/http"
	"strings"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/utils"
)

// EnforceHost allows requests whose Host (port ignored) matches one of
// allowedHosts. Patterns like "*.example.com" match any subdomain.
// An empty list lets everything through.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(utils.ParseHostNoPort(r.Host))
			for _, pattern := range allowedHosts {
				if matchHost(host, strings.ToLower(pattern)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("rejected request for unknown host",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return false
}
