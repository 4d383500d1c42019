package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
)

// Memory is an in-process registry.
type Memory struct {
	mu      sync.RWMutex
	servers map[string]domain.RegisteredServer // name -> server
}

// NewMemory creates an empty registry.
func NewMemory() *Memory {
	return &Memory{
		servers: make(map[string]domain.RegisteredServer),
	}
}

// List returns all servers sorted by name.
func (m *Memory) List(_ context.Context) ([]domain.RegisteredServer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.RegisteredServer, 0, len(m.servers))
	for _, s := range m.servers {
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Register adds or replaces a server.
func (m *Memory) Register(_ context.Context, name, host string, port int) error {
	if err := validate(name, host, port); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.servers[name] = domain.RegisteredServer{Name: name, Host: host, Port: port}
	return nil
}

// Unregister removes a server. Removing an unknown name is a no-op.
func (m *Memory) Unregister(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.servers, name)
	return nil
}
