package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
)

// EtcdOptions configures the etcd backend.
type EtcdOptions struct {
	Endpoints   []string
	DialTimeout time.Duration
	Prefix      string // ex: "/registrar/servers/"
}

// Etcd keeps the registry in etcd:
//
//	Key:   {prefix}{name}
//	Value: JSON-encoded RegisteredServer
//
// A proxy plugin can Watch the prefix to follow changes.
type Etcd struct {
	client *clientv3.Client // thread-safe, shared across goroutines
	prefix string
}

// NewEtcd connects to etcd.
func NewEtcd(opts EtcdOptions) (*Etcd, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return &Etcd{client: c, prefix: normalizePrefix(opts.Prefix)}, nil
}

func normalizePrefix(prefix string) string {
	if prefix == "" {
		prefix = "/registrar/servers/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func (e *Etcd) key(name string) string {
	return e.prefix + name
}

// List returns all servers under the prefix sorted by name.
// Malformed values are skipped.
func (e *Etcd) List(ctx context.Context) ([]domain.RegisteredServer, error) {
	resp, err := e.client.Get(ctx, e.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	servers := make([]domain.RegisteredServer, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var s domain.RegisteredServer
		if err := json.Unmarshal(kv.Value, &s); err != nil {
			continue
		}
		servers = append(servers, s)
	}

	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers, nil
}

// Register puts the server under its key.
func (e *Etcd) Register(ctx context.Context, name, host string, port int) error {
	if err := validate(name, host, port); err != nil {
		return err
	}

	val, err := json.Marshal(domain.RegisteredServer{Name: name, Host: host, Port: port})
	if err != nil {
		return fmt.Errorf("failed to marshal server: %w", err)
	}

	if _, err := e.client.Put(ctx, e.key(name), string(val)); err != nil {
		return fmt.Errorf("failed to register server %s: %w", name, err)
	}
	return nil
}

// Unregister deletes the server key.
func (e *Etcd) Unregister(ctx context.Context, name string) error {
	if _, err := e.client.Delete(ctx, e.key(name)); err != nil {
		return fmt.Errorf("failed to unregister server %s: %w", name, err)
	}
	return nil
}

// Close closes the etcd client.
func (e *Etcd) Close() error {
	return e.client.Close()
}

// Ping checks that the cluster answers a read under the prefix.
func (e *Etcd) Ping(ctx context.Context) error {
	_, err := e.client.Get(ctx, e.prefix, clientv3.WithPrefix(), clientv3.WithCountOnly())
	return err
}
