// Package routing decides where players go when they join or get kicked.
package routing

import (
	"context"
	"fmt"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/events"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/hub"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/metrics"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry"
)

// Trigger label values of hub selections.
const (
	TriggerInitial = "initial"
	TriggerKicked  = "kicked"
)

// Policy sends players to a hub, or disconnects them when there is none.
type Policy struct {
	registry        registry.Registry
	selector        *hub.Selector
	noServerMessage string
	logger          logger.Logger
	metrics         *metrics.Metrics
}

// NewPolicy creates a policy reading candidates from reg.
func NewPolicy(
	reg registry.Registry,
	selector *hub.Selector,
	noServerMessage string,
	log logger.Logger,
	m *metrics.Metrics,
) *Policy {
	return &Policy{
		registry:        reg,
		selector:        selector,
		noServerMessage: noServerMessage,
		logger:          log,
		metrics:         m,
	}
}

// Register subscribes the policy to the player events of bus.
func (p *Policy) Register(bus *events.Bus) {
	bus.Subscribe(events.PlayerChooseInitialServer, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(*events.PlayerChooseInitialServerEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		p.ChooseInitialServer(ctx, ev)
		return nil
	})

	bus.Subscribe(events.KickedFromServer, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(*events.KickedFromServerEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		p.Kicked(ctx, ev)
		return nil
	})
}

// ChooseInitialServer places a joining player on any hub.
func (p *Policy) ChooseInitialServer(ctx context.Context, e *events.PlayerChooseInitialServerEvent) {
	log := p.logger.With(logger.String("player", e.Player.Username()))

	target, ok := p.selector.SelectFromRegistry(ctx, p.registry, "")
	if !ok {
		p.metrics.HubSelections.WithLabelValues(TriggerInitial, metrics.ResultNone).Inc()
		log.Warn("no hub available for joining player")
		e.Player.Disconnect(p.noServerMessage)
		return
	}

	p.metrics.HubSelections.WithLabelValues(TriggerInitial, metrics.ResultOK).Inc()
	log.Info("placing player on hub",
		logger.String("server", target.Name))
	e.SetInitialServer(target.Name)
}

// Kicked redirects a kicked player to a hub other than the one it was kicked
// from. Players that are not connected anywhere are left alone.
func (p *Policy) Kicked(ctx context.Context, e *events.KickedFromServerEvent) {
	log := p.logger.With(
		logger.String("player", e.Player.Username()),
		logger.String("kicked_from", e.Server))

	if _, connected := e.Player.CurrentServer(); !connected {
		log.Debug("kicked player has no current server, ignoring")
		return
	}

	target, ok := p.selector.SelectFromRegistry(ctx, p.registry, e.Server)
	if !ok {
		p.metrics.HubSelections.WithLabelValues(TriggerKicked, metrics.ResultNone).Inc()
		log.Warn("no hub available for kicked player")
		e.Player.Disconnect(p.noServerMessage)
		e.SetResult(events.DisconnectPlayer{Message: p.noServerMessage})
		return
	}

	p.metrics.HubSelections.WithLabelValues(TriggerKicked, metrics.ResultOK).Inc()
	log.Info("redirecting kicked player",
		logger.String("server", target.Name))
	e.SetResult(events.RedirectPlayer{Server: target.Name})
}
