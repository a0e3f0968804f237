package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/namohub/internal/apperr"
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/views"
)

const checksumKey = "blob_checksum"

const itemColumns = `id, title, author, content, nature, domain, status, completeness, tags, created_at`

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Rebuild replaces every indexed item with items, in order, and records the
// checksum of the blob they came from. Runs in one transaction.
func (db *DB) Rebuild(items []models.Item, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("index: clear items: %w", err)
	}
	if err := ftsReset(tx); err != nil {
		return err
	}

	if len(items) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO items (position, ` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i, it := range items {
			tags := it.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, _ := json.Marshal(tags)
			if _, err := stmt.Exec(i, it.ID, it.Title, it.Author, it.Content,
				string(it.Nature), string(it.Domain), string(it.Status),
				it.Completeness, string(tagsJSON), it.CreatedAt); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
			if err := ftsInsert(tx, i, it.ID, it.Title, it.Content, tags); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, checksumKey, checksum); err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	return tx.Commit()
}

// Checksum returns the blob checksum the index was last built from, or
// empty string if it was never built.
func (db *DB) Checksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, checksumKey).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// List returns items matching f in insertion order. Classification fields
// are filtered in SQL; the text filter is applied with views.Filter so case
// folding matches the in-memory projections.
func (db *DB) List(f views.Filter) ([]models.Item, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct{ col, val string }{
		{"nature", f.Nature},
		{"domain", f.Domain},
		{"status", f.Status},
	} {
		if c.val == "" || c.val == views.All {
			continue
		}
		where = append(where, c.col+" = ?")
		args = append(args, c.val)
	}

	q := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY position`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	text := views.Filter{Text: f.Text}
	out := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if text.Match(it) {
			out = append(out, it)
		}
	}
	return out, rows.Err()
}

// Get returns the first item with the given id.
func (db *DB) Get(id string) (*models.Item, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ? ORDER BY position LIMIT 1`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Count returns the number of indexed items.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (models.Item, error) {
	var (
		it                     models.Item
		nature, domain, status string
		tagsJSON               string
	)
	if err := s.Scan(&it.ID, &it.Title, &it.Author, &it.Content,
		&nature, &domain, &status, &it.Completeness, &tagsJSON, &it.CreatedAt); err != nil {
		return models.Item{}, err
	}
	it.Nature = models.Nature(nature)
	it.Domain = models.Domain(domain)
	it.Status = models.Status(status)
	it.Tags = []string{}
	if tagsJSON != "" {
		_ = json.Unmarshal([]byte(tagsJSON), &it.Tags)
	}
	return it, nil
}
