package registry

import "fmt"

const (
	// KeyPrefixServer is the prefix for server keys
	KeyPrefixServer = "registrar:server:"
	// KeyAllServers is the key for the set of all registered server names
	KeyAllServers = "registrar:servers:all"
	// ChannelServerEvents receives one message per register/unregister
	ChannelServerEvents = "registrar:servers:events"
)

// ServerKey returns the Redis key for a server by name
func ServerKey(name string) string {
	return KeyPrefixServer + name
}

// ExtractServerName extracts the server name from a Redis key
func ExtractServerName(key string) (string, error) {
	if len(key) <= len(KeyPrefixServer) || key[:len(KeyPrefixServer)] != KeyPrefixServer {
		return "", fmt.Errorf("invalid server key: %s", key)
	}
	return key[len(KeyPrefixServer):], nil
}
