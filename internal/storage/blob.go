package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/namohub/internal/models"
)

// TempPrefix is the prefix of temporary files created during atomic writes.
const TempPrefix = ".namohub-tmp-"

// Blob implements Provider as a single JSON document on disk. The document
// is an object of key -> value; the collection lives under one fixed key and
// any other keys are preserved on write.
type Blob struct {
	path string // absolute path to the blob file
	key  string

	mu sync.Mutex
}

// NewBlob creates a Blob at path. The parent directory must already exist;
// the file itself is created on first Replace.
func NewBlob(path, key string) (*Blob, error) {
	if key == "" {
		key = DefaultKey
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	dir, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("storage: stat dir: %w", err)
	}
	if !dir.IsDir() {
		return nil, fmt.Errorf("storage: parent is not a directory: %s", filepath.Dir(abs))
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: blob path is a directory: %s", abs)
	}
	return &Blob{path: abs, key: key}, nil
}

// Path returns the absolute path of the blob file.
func (b *Blob) Path() string {
	return b.path
}

// Raw returns the blob file contents, or nil if it does not exist yet.
func (b *Blob) Raw() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	return data, nil
}

// Load decodes the collection stored under the key.
func (b *Blob) Load() ([]models.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.readDoc()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[b.key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return []models.Item{}, nil
	}
	var items []models.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", b.key, err)
	}
	for i := range items {
		if items[i].Tags == nil {
			items[i].Tags = []string{}
		}
	}
	return items, nil
}

// Replace writes the collection under the key.
func (b *Blob) Replace(items []models.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.readDoc()
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	doc[b.key] = raw

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode blob: %w", err)
	}
	return writeAtomic(b.path, append(data, '\n'))
}

// readDoc loads the key/value document. A missing file is an empty document.
func (b *Blob) readDoc() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode blob: %w", err)
	}
	return doc, nil
}

// writeAtomic writes content via tmp file, fsync and rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
