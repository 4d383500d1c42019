// Package registry holds the proxy's server table: name -> address.
//
// Three backends implement Registry. Memory keeps the table in process and the
// proxy reads it over HTTP; Redis and etcd keep it where a proxy plugin can
// read and watch it directly.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
)

// ErrInvalidServer is returned for a registration without name, host or port.
var ErrInvalidServer = errors.New("invalid server")

// Registry is the proxy's server registry.
//
// Every call is atomic on its own. Callers never need to lock across calls.
type Registry interface {
	List(ctx context.Context) ([]domain.RegisteredServer, error)
	Register(ctx context.Context, name, host string, port int) error
	Unregister(ctx context.Context, name string) error
}

func validate(name, host string, port int) error {
	if name == "" || host == "" || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: name=%q host=%q port=%d", ErrInvalidServer, name, host, port)
	}
	return nil
}
