package handlers

import (
	"net/http"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz answers 200 once the proxy has activated reconciliation, 503 before.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Loop != nil && d.Loop.Activated()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: ready})
	}
}
