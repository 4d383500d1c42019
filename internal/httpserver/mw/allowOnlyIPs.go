package mw

import (
	"net/http"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/utils"
)

// AllowOnlyCIDRS rejects callers outside allowed with 403. An empty list lets
// everyone through. trustProxy resolves the caller from proxy headers.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("rejected caller outside allowed CIDRs",
					logger.String("remote_ip", ip),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
