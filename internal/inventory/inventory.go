// Package inventory describes the container host as a list of raw records.
//
// The records carry only what discovery needs: ids, names and the network
// attachments. Whether a record is a valid backend is decided elsewhere.
package inventory

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the inventory snapshot could not be taken.
var ErrUnavailable = errors.New("container inventory unavailable")

// Container is one raw record of the container inventory.
type Container struct {
	// ID is the unique container id.
	ID string

	// ImageID identifies the image; empty when the runtime does not report one.
	ImageID string

	// Names are the human readable names, as reported by the runtime ("/lobby-1").
	Names []string

	// Networks maps network name to attachment. Nil when the runtime
	// exposes no network information for the container.
	Networks map[string]Attachment
}

// Attachment is the attachment of a container to one network.
type Attachment struct {
	// Address is the assigned IP, empty when none is assigned yet.
	Address string
}

// Inventory lists the containers of the host.
type Inventory interface {
	ListContainers(ctx context.Context) ([]Container, error)
	Close() error
}
