// Package storage defines the item collection store.
package storage

import "github.com/starford/namohub/internal/models"

// DefaultKey is the key the collection is stored under inside the blob.
const DefaultKey = "namo.hub.v1"

// Provider is the collection store. It is an opaque get/set blob: the whole
// collection is loaded and replaced at once, with no partial writes.
type Provider interface {
	// Load returns the stored collection in insertion order. A store that
	// was never written yields an empty collection.
	Load() ([]models.Item, error)
	// Replace overwrites the whole collection.
	Replace(items []models.Item) error
	// Raw returns the serialized blob, or nil when nothing was written yet.
	Raw() ([]byte, error)
}
