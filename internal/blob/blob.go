// Package blob provides durable storage for uploaded media, returning a
// retrievable URL for each stored object.
package blob

import "context"

// Store persists opaque byte payloads and resolves them to URLs.
type Store interface {
	// Put stores the payload under a generated name derived from the media
	// type and returns the URL it is retrievable from.
	Put(ctx context.Context, mediaType string, data []byte) (string, error)
}
