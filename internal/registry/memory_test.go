package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
)

func TestMemoryRegisterAndList(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	require.NoError(t, reg.Register(ctx, "lobby-b", "10.0.0.2", 25565))
	require.NoError(t, reg.Register(ctx, "lobby-a", "10.0.0.1", 25565))

	servers, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.RegisteredServer{
		{Name: "lobby-a", Host: "10.0.0.1", Port: 25565},
		{Name: "lobby-b", Host: "10.0.0.2", Port: 25565},
	}, servers)
}

func TestMemoryRegisterReplaces(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	require.NoError(t, reg.Register(ctx, "hub-1", "10.0.0.1", 25565))
	require.NoError(t, reg.Register(ctx, "hub-1", "10.0.0.7", 25566))

	servers, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "10.0.0.7:25566", servers[0].Address())
}

func TestMemoryUnregister(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()
	require.NoError(t, reg.Register(ctx, "hub-1", "10.0.0.1", 25565))

	require.NoError(t, reg.Unregister(ctx, "hub-1"))
	require.NoError(t, reg.Unregister(ctx, "does-not-exist"))

	servers, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestMemoryRegisterRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	tests := []struct {
		name string
		host string
		port int
	}{
		{name: "", host: "10.0.0.1", port: 25565},
		{name: "hub-1", host: "", port: 25565},
		{name: "hub-1", host: "10.0.0.1", port: 0},
		{name: "hub-1", host: "10.0.0.1", port: 70000},
	}

	for _, tt := range tests {
		err := reg.Register(ctx, tt.name, tt.host, tt.port)
		assert.True(t, errors.Is(err, ErrInvalidServer), "Register(%q, %q, %d) = %v", tt.name, tt.host, tt.port, err)
	}
	servers, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = reg.Register(ctx, fmt.Sprintf("srv-%d", i), "10.0.0.1", 25565)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = reg.List(ctx)
		}()
	}
	wg.Wait()

	servers, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, servers, 50)
}
