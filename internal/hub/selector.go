// Package hub picks the fallback server a player is sent to.
package hub

import (
	"context"
	"math/rand"
	"strings"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry"
)

// Selector chooses a hub uniformly at random among the eligible servers.
type Selector struct {
	marker string
	logger logger.Logger
	intn   func(n int) int
}

// NewSelector returns a selector treating servers whose name contains marker as hubs.
func NewSelector(marker string, log logger.Logger) *Selector {
	return &Selector{
		marker: marker,
		logger: log,
		intn:   rand.Intn,
	}
}

// Candidates returns the hubs among servers, excluding the one named current.
// An empty current excludes nothing.
func (s *Selector) Candidates(servers []domain.RegisteredServer, current string) []domain.RegisteredServer {
	out := make([]domain.RegisteredServer, 0, len(servers))
	for _, srv := range servers {
		if !strings.Contains(srv.Name, s.marker) {
			continue
		}
		if current != "" && srv.Name == current {
			continue
		}
		out = append(out, srv)
	}
	return out
}

// Select picks one candidate. The bool is false when there is none.
func (s *Selector) Select(servers []domain.RegisteredServer, current string) (domain.RegisteredServer, bool) {
	candidates := s.Candidates(servers, current)
	if len(candidates) == 0 {
		return domain.RegisteredServer{}, false
	}
	return candidates[s.intn(len(candidates))], true
}

// SelectFromRegistry reads reg and picks a hub. A registry that cannot be read has no hubs.
func (s *Selector) SelectFromRegistry(ctx context.Context, reg registry.Registry, current string) (domain.RegisteredServer, bool) {
	servers, err := reg.List(ctx)
	if err != nil {
		s.logger.Error("failed to list servers for hub selection",
			logger.Error(err))
		return domain.RegisteredServer{}, false
	}
	return s.Select(servers, current)
}
