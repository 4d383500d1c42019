// Package events dispatches proxy lifecycle and player events to handlers.
package events

import "sync"

// Type identifies an event kind.
type Type string

const (
	ProxyInitialize           Type = "proxy_initialize"
	PlayerChooseInitialServer Type = "player_choose_initial_server"
	KickedFromServer          Type = "kicked_from_server"
)

// Event is anything fired on a Bus.
type Event interface {
	Type() Type
}

// Player is the proxy session of one connected player.
type Player interface {
	Username() string
	// CurrentServer returns the server the player is connected to, if any.
	CurrentServer() (string, bool)
	Disconnect(message string)
}

// ProxyInitializeEvent signals that the proxy is up and routing may begin.
type ProxyInitializeEvent struct{}

func (ProxyInitializeEvent) Type() Type { return ProxyInitialize }

// PlayerChooseInitialServerEvent asks where a joining player is placed.
type PlayerChooseInitialServerEvent struct {
	Player Player

	mu     sync.Mutex
	server string
}

func (*PlayerChooseInitialServerEvent) Type() Type { return PlayerChooseInitialServer }

// SetInitialServer places the player on server.
func (e *PlayerChooseInitialServerEvent) SetInitialServer(server string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.server = server
}

// InitialServer returns the server set by a handler.
func (e *PlayerChooseInitialServerEvent) InitialServer() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.server, e.server != ""
}

// KickResult is what happens to a player after a kick.
type KickResult interface {
	kickResult()
}

// RedirectPlayer sends the player to Server.
type RedirectPlayer struct {
	Server string
}

// DisconnectPlayer drops the player with Message.
type DisconnectPlayer struct {
	Message string
}

func (RedirectPlayer) kickResult()   {}
func (DisconnectPlayer) kickResult() {}

// KickedFromServerEvent reports that Player was kicked from Server.
type KickedFromServerEvent struct {
	Player Player
	Server string

	mu     sync.Mutex
	result KickResult
}

func (*KickedFromServerEvent) Type() Type { return KickedFromServer }

// SetResult decides the outcome of the kick.
func (e *KickedFromServerEvent) SetResult(r KickResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = r
}

// Result returns the outcome set by a handler, nil when none was set.
func (e *KickedFromServerEvent) Result() KickResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}
