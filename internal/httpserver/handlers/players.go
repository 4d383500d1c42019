package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/events"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

const maxPlayerBody = 16 << 10

// Routing actions returned to the proxy.
const (
	ActionConnect    = "connect"
	ActionRedirect   = "redirect"
	ActionDisconnect = "disconnect"
	ActionNone       = "none"
)

type initialServerRequest struct {
	Player        string `json:"player"`
	CurrentServer string `json:"current_server,omitempty"`
}

type kickedRequest struct {
	Player        string `json:"player"`
	KickedFrom    string `json:"kicked_from"`
	CurrentServer string `json:"current_server,omitempty"`
}

type decisionResponse struct {
	Action  string `json:"action"`
	Server  string `json:"server,omitempty"`
	Message string `json:"message,omitempty"`
}

// requestPlayer is the player of one routing request. A disconnect is
// recorded and returned to the proxy, which performs it.
type requestPlayer struct {
	name          string
	current       string
	disconnected  bool
	disconnectMsg string
}

func (p *requestPlayer) Username() string { return p.name }

func (p *requestPlayer) CurrentServer() (string, bool) { return p.current, p.current != "" }

func (p *requestPlayer) Disconnect(message string) {
	p.disconnected = true
	p.disconnectMsg = message
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxPlayerBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// InitialServer decides where a joining player is placed.
func InitialServer(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req initialServerRequest
		if !decode(w, r, &req) {
			return
		}
		req.Player = strings.TrimSpace(req.Player)
		if req.Player == "" {
			writeError(w, http.StatusBadRequest, "player is required")
			return
		}

		player := &requestPlayer{name: req.Player, current: req.CurrentServer}
		ev := &events.PlayerChooseInitialServerEvent{Player: player}
		d.Bus.Fire(r.Context(), ev)

		resp := decisionResponse{Action: ActionNone}
		if server, ok := ev.InitialServer(); ok {
			resp = decisionResponse{Action: ActionConnect, Server: server}
		} else if player.disconnected {
			resp = decisionResponse{Action: ActionDisconnect, Message: player.disconnectMsg}
		}

		d.Logger.Debug("initial server decided",
			logger.String("player", req.Player),
			logger.String("action", resp.Action),
			logger.String("server", resp.Server))
		writeJSON(w, http.StatusOK, resp)
	}
}

// Kicked decides what happens to a player kicked from a server.
func Kicked(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req kickedRequest
		if !decode(w, r, &req) {
			return
		}
		req.Player = strings.TrimSpace(req.Player)
		if req.Player == "" || req.KickedFrom == "" {
			writeError(w, http.StatusBadRequest, "player and kicked_from are required")
			return
		}

		player := &requestPlayer{name: req.Player, current: req.CurrentServer}
		ev := &events.KickedFromServerEvent{Player: player, Server: req.KickedFrom}
		d.Bus.Fire(r.Context(), ev)

		resp := decisionResponse{Action: ActionNone}
		switch res := ev.Result().(type) {
		case events.RedirectPlayer:
			resp = decisionResponse{Action: ActionRedirect, Server: res.Server}
		case events.DisconnectPlayer:
			resp = decisionResponse{Action: ActionDisconnect, Message: res.Message}
		default:
			if player.disconnected {
				resp = decisionResponse{Action: ActionDisconnect, Message: player.disconnectMsg}
			}
		}

		d.Logger.Debug("kick outcome decided",
			logger.String("player", req.Player),
			logger.String("kicked_from", req.KickedFrom),
			logger.String("action", resp.Action),
			logger.String("server", resp.Server))
		writeJSON(w, http.StatusOK, resp)
	}
}
