// Package registrytest provides a registry for tests that records calls and
// can be told to fail.
package registrytest

import (
	"context"
	"errors"
	"sync"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("injected registry failure")

// Call is one recorded mutation.
type Call struct {
	Op   string // "register" | "unregister"
	Name string
}

// Recorder wraps a memory registry.
type Recorder struct {
	*registry.Memory

	mu       sync.Mutex
	calls    []Call
	failOn   map[string]bool // server names whose mutations fail
	listErr  error
	listHits int
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		Memory: registry.NewMemory(),
		failOn: make(map[string]bool),
	}
}

// Seed registers servers without recording the calls.
func (r *Recorder) Seed(servers ...domain.RegisteredServer) {
	for _, s := range servers {
		_ = r.Memory.Register(context.Background(), s.Name, s.Host, s.Port)
	}
}

// FailOn makes every mutation for name fail.
func (r *Recorder) FailOn(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[name] = true
}

// Heal undoes FailOn.
func (r *Recorder) Heal(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failOn, name)
}

// FailList makes List return err (nil to reset).
func (r *Recorder) FailList(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

// Calls returns the recorded mutations in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// ListCalls returns how many times List was called.
func (r *Recorder) ListCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listHits
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Names returns the registered names, sorted.
func (r *Recorder) Names() []string {
	servers, _ := r.Memory.List(context.Background())
	return domain.Names(servers)
}

func (r *Recorder) List(ctx context.Context) ([]domain.RegisteredServer, error) {
	r.mu.Lock()
	r.listHits++
	err := r.listErr
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return r.Memory.List(ctx)
}

func (r *Recorder) Register(ctx context.Context, name, host string, port int) error {
	if r.record("register", name) {
		return ErrInjected
	}
	return r.Memory.Register(ctx, name, host, port)
}

func (r *Recorder) Unregister(ctx context.Context, name string) error {
	if r.record("unregister", name) {
		return ErrInjected
	}
	return r.Memory.Unregister(ctx, name)
}

func (r *Recorder) record(op, name string) (fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: op, Name: name})
	return r.failOn[name]
}
