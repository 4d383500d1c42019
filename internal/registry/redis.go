package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
)

// ServerEvent is published on ChannelServerEvents after each mutation.
type ServerEvent struct {
	Op   string `json:"op"` // "register" | "unregister"
	Name string `json:"name"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Redis keeps the registry in Redis: one JSON value per server plus a set of names.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed registry.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
	}
}

// List returns all servers sorted by name. Set members whose value vanished
// or cannot be decoded are pruned, so a later Register can restore them.
func (r *Redis) List(ctx context.Context) ([]domain.RegisteredServer, error) {
	names, err := r.client.SMembers(ctx, KeyAllServers).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get server names: %w", err)
	}

	if len(names) == 0 {
		return []domain.RegisteredServer{}, nil
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, ServerKey(name))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get servers: %w", err)
	}

	servers := make([]domain.RegisteredServer, 0, len(values))
	var dangling []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			dangling = append(dangling, names[i])
			continue
		}
		var s domain.RegisteredServer
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			dangling = append(dangling, names[i])
			continue
		}
		servers = append(servers, s)
	}

	if len(dangling) > 0 {
		if err := r.prune(ctx, dangling); err != nil {
			return nil, err
		}
	}

	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers, nil
}

// prune drops names from the set together with whatever value they still have.
func (r *Redis) prune(ctx context.Context, names []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range names {
			pipe.Del(ctx, ServerKey(name))
		}
		pipe.SRem(ctx, KeyAllServers, toAny(names)...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to prune dangling servers %v: %w", names, err)
	}
	return nil
}

func toAny(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// Register stores a server and announces it.
func (r *Redis) Register(ctx context.Context, name, host string, port int) error {
	if err := validate(name, host, port); err != nil {
		return err
	}

	server := domain.RegisteredServer{Name: name, Host: host, Port: port}
	data, err := json.Marshal(server)
	if err != nil {
		return fmt.Errorf("failed to marshal server: %w", err)
	}
	event, err := json.Marshal(ServerEvent{Op: "register", Name: name, Host: host, Port: port})
	if err != nil {
		return fmt.Errorf("failed to marshal server event: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ServerKey(name), data, 0)
		pipe.SAdd(ctx, KeyAllServers, name)
		pipe.Publish(ctx, ChannelServerEvents, event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register server %s: %w", name, err)
	}

	return nil
}

// Unregister deletes a server and announces it.
func (r *Redis) Unregister(ctx context.Context, name string) error {
	event, err := json.Marshal(ServerEvent{Op: "unregister", Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal server event: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ServerKey(name))
		pipe.SRem(ctx, KeyAllServers, name)
		pipe.Publish(ctx, ChannelServerEvents, event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to unregister server %s: %w", name, err)
	}

	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
