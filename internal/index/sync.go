package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/namohub/internal/checksum"
	"github.com/starford/namohub/internal/storage"
)

// Sync rebuilds the index from the store when the stored blob differs from
// the one the index was built from. It reports whether a rebuild happened.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (bool, error) {
	raw, err := store.Raw()
	if err != nil {
		return false, err
	}
	cs := checksum.Sum(raw)

	current, err := db.Checksum()
	if err != nil {
		return false, err
	}
	if current == cs {
		logger.Debug("sync: index up to date", slog.String("checksum", cs))
		return false, nil
	}

	items, err := store.Load()
	if err != nil {
		return false, fmt.Errorf("sync: load: %w", err)
	}
	if err := db.Rebuild(items, cs); err != nil {
		return false, fmt.Errorf("sync: rebuild: %w", err)
	}
	logger.Debug("sync: rebuilt", slog.Int("items", len(items)), slog.String("checksum", cs))
	return true, nil
}
