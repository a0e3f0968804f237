package index

import (
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/views"
)

// ItemIndex defines the query operations over indexed items.
// Consumers should depend on this interface rather than the concrete *DB type.
type ItemIndex interface {
	Rebuild(items []models.Item, checksum string) error
	List(f views.Filter) ([]models.Item, error)
	Get(id string) (*models.Item, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Checksum() (string, error)
	Close() error
}

// Verify *DB satisfies ItemIndex at compile time.
var _ ItemIndex = (*DB)(nil)
