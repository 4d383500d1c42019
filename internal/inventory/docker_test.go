package inventory

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDocker(t *testing.T) {
	c := types.Container{
		ID:      "987654321fedcba",
		ImageID: "sha256:abcdef123",
		Names:   []string{"/lobby-1"},
		NetworkSettings: &types.SummaryNetworkSettings{
			Networks: map[string]*network.EndpointSettings{
				"minecraft-network": {IPAddress: "10.0.0.5"},
				"bridge":            nil,
			},
		},
	}

	got := fromDocker(c)

	assert.Equal(t, "987654321fedcba", got.ID)
	assert.Equal(t, "abcdef123", got.ImageID)
	assert.Equal(t, []string{"/lobby-1"}, got.Names)
	require.Len(t, got.Networks, 2)
	assert.Equal(t, "10.0.0.5", got.Networks["minecraft-network"].Address)
	assert.Empty(t, got.Networks["bridge"].Address)
}

func TestFromDockerWithoutNetworkSettings(t *testing.T) {
	got := fromDocker(types.Container{ID: "abc", Names: []string{"/x"}})

	assert.Nil(t, got.Networks)
	assert.Empty(t, got.ImageID)
}

func TestTrimDigestAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "sha256:abcdef", want: "abcdef"},
		{in: "abcdef", want: "abcdef"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, trimDigestAlgorithm(tt.in), "input %q", tt.in)
	}
}
