package discovery

import (
	"fmt"
	"strings"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/domain"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/inventory"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

const (
	// shortIDLen is the number of id characters kept in a service name.
	shortIDLen = 5
	// unknownImage replaces the image part when the runtime reports no image id.
	unknownImage = "unknown"
)

// Adapter turns a container inventory snapshot into backend services.
type Adapter struct {
	network     string
	port        int
	proxyMarker string
	logger      logger.Logger
}

// NewAdapter creates an adapter that keeps containers attached to network,
// skipping any whose name contains proxyMarker. Every service gets port.
func NewAdapter(network string, port int, proxyMarker string, log logger.Logger) *Adapter {
	return &Adapter{
		network:     network,
		port:        port,
		proxyMarker: proxyMarker,
		logger:      log,
	}
}

// Discover maps the snapshot to services keyed by name.
// Records that are not backends are skipped silently. When two records derive
// the same name the later one wins.
func (a *Adapter) Discover(containers []inventory.Container) map[string]domain.Service {
	services := make(map[string]domain.Service, len(containers))
	owners := make(map[string]string, len(containers))

	for _, c := range containers {
		svc, ok := a.toService(c)
		if !ok {
			continue
		}

		if prev, seen := owners[svc.Name]; seen {
			a.logger.Warn("derived service name collision, keeping the later container",
				logger.String("service", svc.Name),
				logger.String("previous_container", prev),
				logger.String("container", c.ID))
		}

		services[svc.Name] = svc
		owners[svc.Name] = c.ID
	}

	return services
}

func (a *Adapter) toService(c inventory.Container) (domain.Service, bool) {
	if c.Networks == nil {
		return domain.Service{}, false
	}
	attachment, ok := c.Networks[a.network]
	if !ok || attachment.Address == "" {
		return domain.Service{}, false
	}

	if len(c.Names) == 0 {
		return domain.Service{}, false
	}
	base := strings.TrimPrefix(c.Names[0], "/")
	if base == "" {
		return domain.Service{}, false
	}

	if strings.Contains(base, a.proxyMarker) {
		return domain.Service{}, false
	}

	if c.ID == "" {
		return domain.Service{}, false
	}

	return domain.Service{
		Name: ServiceName(base, c.ImageID, c.ID),
		Host: attachment.Address,
		Port: a.port,
	}, true
}

// ServiceName derives the registry name of a container:
// "{base}-{first 5 of image id | unknown}-{first 5 of container id}".
func ServiceName(base, imageID, containerID string) string {
	image := unknownImage
	if imageID != "" {
		image = shortID(imageID)
	}
	return fmt.Sprintf("%s-%s-%s", base, image, shortID(containerID))
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
