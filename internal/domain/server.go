package domain

import (
	"net"
	"strconv"
)

// Service is one backend discovered from the container inventory.
//
// A Service is uniquely identified by its Name within a reconciliation
// cycle. Two services with the same Name are the same logical backend,
// whatever their Host or Port.
type Service struct {
	// Name is derived from the container name, image id and container id.
	// Example: lobby-1-abcde-98765
	Name string `json:"name"`

	// Host is the address of the container on the backend network.
	Host string `json:"host"`

	// Port is the backend protocol port.
	Port int `json:"port"`
}

// Address returns host:port.
func (s Service) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RegisteredServer is an entry of the proxy's server registry.
type RegisteredServer struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Address returns host:port.
func (r RegisteredServer) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Names returns the names of servers, in order.
func Names(servers []RegisteredServer) []string {
	names := make([]string, 0, len(servers))
	for _, s := range servers {
		names = append(names, s.Name)
	}
	return names
}
