package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// DockerOptions configures the Docker Engine client.
type DockerOptions struct {
	Host    string        // ex: "unix:///var/run/docker.sock"; empty => DOCKER_HOST env
	Timeout time.Duration // per-request timeout (ex: 45s)
}

// Docker lists containers from a Docker Engine.
type Docker struct {
	cli *client.Client
}

// NewDocker creates a Docker inventory. No request is made until the first call.
func NewDocker(opts DockerOptions) (*Docker, error) {
	clientOpts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(opts.Timeout))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &Docker{cli: cli}, nil
}

// ListContainers returns the running containers.
func (d *Docker) ListContainers(ctx context.Context) ([]Container, error) {
	list, err := d.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	out := make([]Container, 0, len(list))
	for _, c := range list {
		out = append(out, fromDocker(c))
	}
	return out, nil
}

// Ping checks that the engine answers.
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying HTTP transport.
func (d *Docker) Close() error {
	return d.cli.Close()
}

func fromDocker(c types.Container) Container {
	out := Container{
		ID:      c.ID,
		ImageID: trimDigestAlgorithm(c.ImageID),
		Names:   c.Names,
	}

	if c.NetworkSettings == nil {
		return out
	}

	out.Networks = make(map[string]Attachment, len(c.NetworkSettings.Networks))
	for name, ep := range c.NetworkSettings.Networks {
		if ep == nil {
			out.Networks[name] = Attachment{}
			continue
		}
		out.Networks[name] = Attachment{Address: ep.IPAddress}
	}
	return out
}

// trimDigestAlgorithm turns "sha256:abcdef..." into "abcdef...".
// Server names therefore carry hex image prefixes, unlike the Velocity plugin
// whose names start the image part with "sha25".
func trimDigestAlgorithm(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}
