package handlers

import (
	"net/http"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

type reconcileResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reconcile queues an extra reconciliation tick.
func Reconcile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Loop == nil || !d.Loop.Activated() {
			writeJSON(w, http.StatusConflict, reconcileResponse{
				Message: "reconciliation not started yet",
			})
			return
		}

		select {
		case d.ReconcileTrigger <- struct{}{}:
			d.Logger.Info("manual reconciliation triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reconcileResponse{
				Triggered: true,
				Message:   "reconciliation triggered",
			})
		default:
			d.Logger.Warn("manual reconciliation already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, reconcileResponse{
				Message: "reconciliation already pending, please wait",
			})
		}
	}
}
