package handlers

import (
	"net/http"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

type serverView struct {
	Name    string `json:"name"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Address string `json:"address"`
}

type serversResponse struct {
	Count   int          `json:"count"`
	Servers []serverView `json:"servers"`
}

// Servers lists the registry, which is how the proxy reads the memory backend.
func Servers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		servers, err := d.Registry.List(r.Context())
		if err != nil {
			d.Logger.Error("failed to list registry",
				logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "registry unavailable")
			return
		}

		resp := serversResponse{
			Count:   len(servers),
			Servers: make([]serverView, 0, len(servers)),
		}
		for _, s := range servers {
			resp.Servers = append(resp.Servers, serverView{
				Name:    s.Name,
				Host:    s.Host,
				Port:    s.Port,
				Address: s.Address(),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
