// Package itemservice holds the item use cases shared by the REST API, the
// MCP server and the CLI.
package itemservice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/namohub/internal/apperr"
	"github.com/starford/namohub/internal/checksum"
	"github.com/starford/namohub/internal/classify"
	"github.com/starford/namohub/internal/decode"
	"github.com/starford/namohub/internal/importer"
	"github.com/starford/namohub/internal/index"
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/storage"
	"github.com/starford/namohub/internal/views"
)

// Notifier receives a change event after every successful write.
type Notifier interface {
	PublishItemEvent(kind, id string)
}

// Event kinds passed to Notifier.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventReplaced = "replaced"
	EventCleared  = "cleared"
)

// CreateInput is the form payload for a new item. Empty classification
// fields are filled in by the classifier.
type CreateInput struct {
	Title   string
	Author  string
	Content string
	Nature  models.Nature
	Domain  models.Domain
	Status  models.Status
	Tags    string // comma-separated
}

// Validate checks the create payload.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.By(notBlank)),
		validation.Field(&in.Nature, validation.By(validNature)),
		validation.Field(&in.Domain, validation.By(validDomain)),
		validation.Field(&in.Status, validation.By(validStatus)),
	)
}

func notBlank(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}

func validNature(v any) error {
	n, _ := v.(models.Nature)
	if n != "" && !n.Valid() {
		return validation.NewError("validation_nature", "must be Blueprint or Solution")
	}
	return nil
}

func validDomain(v any) error {
	d, _ := v.(models.Domain)
	if d != "" && !d.Valid() {
		return validation.NewError("validation_domain", "must be Technical, Business, Process or Research")
	}
	return nil
}

func validStatus(v any) error {
	s, _ := v.(models.Status)
	if s != "" && !s.Valid() {
		return validation.NewError("validation_status", "must be Draft, Reviewed or Final")
	}
	return nil
}

// Service coordinates the collection store, the query index and change
// notifications. Writes are serialized; reads go to the index.
type Service struct {
	store      storage.Provider
	db         index.ItemIndex
	classifier *classify.Classifier
	normalizer *importer.Normalizer
	notify     Notifier

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClassifier overrides the classifier used for create and import.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithNormalizer overrides the import normalizer.
func WithNormalizer(n *importer.Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// New creates a Service. Unless overridden the normalizer shares the
// service classifier.
func New(store storage.Provider, db index.ItemIndex, opts ...Option) *Service {
	s := &Service{store: store, db: db, classifier: classify.Default}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = importer.New(importer.WithClassifier(s.classifier))
	}
	return s
}

// Classify runs the classifier over text.
func (s *Service) Classify(text string) models.Classification {
	return s.classifier.Classify(text)
}

// Create appends a new item. Completeness always comes from the classifier.
func (s *Service) Create(_ context.Context, in CreateInput) (*models.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}

	auto := s.classifier.Classify(in.Content)
	it := models.Item{
		ID:           s.normalizer.NewID(),
		Title:        strings.TrimSpace(in.Title),
		Author:       in.Author,
		Content:      in.Content,
		Nature:       orDefault(in.Nature, auto.Nature),
		Domain:       orDefault(in.Domain, auto.Domain),
		Status:       orDefault(in.Status, auto.Status),
		Completeness: auto.Completeness,
		Tags:         splitTags(in.Tags),
		CreatedAt:    s.normalizer.Timestamp(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if err := s.save(append(items, it), EventCreated, it.ID); err != nil {
		return nil, err
	}
	return &it, nil
}

// SetStatus moves the first item with id to status.
func (s *Service) SetStatus(_ context.Context, id string, status models.Status) (*models.Item, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalid, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID != id {
			continue
		}
		updated := items[i].Clone()
		updated.Status = status
		items[i] = updated
		if err := s.save(items, EventUpdated, id); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, apperr.ErrNotFound
}

// Import decodes data, normalizes its records and, when no record was
// rejected, replaces the whole collection with the result. A non-empty
// ifMatch must match the current blob checksum.
//
// The outcome is returned alongside apperr.ErrImportRejected so callers can
// report the per-record errors. Decode failures wrap apperr.ErrInvalid.
func (s *Service) Import(_ context.Context, data []byte, format decode.Format, ifMatch string) (importer.Outcome, error) {
	records, err := decode.Records(data, format)
	if err != nil {
		return importer.Outcome{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	out := s.normalizer.Normalize(records)
	if out.Verdict() == importer.VerdictRejected {
		return out, apperr.ErrImportRejected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ifMatch != "" {
		raw, err := s.store.Raw()
		if err != nil {
			return out, err
		}
		if !checksum.Matches(ifMatch, checksum.Sum(raw)) {
			return out, apperr.ErrConflict
		}
	}
	if err := s.save(out.Normalized, EventReplaced, ""); err != nil {
		return out, err
	}
	return out, nil
}

// Preview decodes and normalizes data without touching the collection.
func (s *Service) Preview(_ context.Context, data []byte, format decode.Format) (importer.Outcome, error) {
	records, err := decode.Records(data, format)
	if err != nil {
		return importer.Outcome{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	return s.normalizer.Normalize(records), nil
}

// Export returns the whole collection and the checksum of the stored blob.
func (s *Service) Export(_ context.Context) ([]models.Item, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load()
	if err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", apperr.ErrEmpty
	}
	raw, err := s.store.Raw()
	if err != nil {
		return nil, "", err
	}
	return items, checksum.Sum(raw), nil
}

// Clear empties the collection.
func (s *Service) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]models.Item{}, EventCleared, "")
}

// List returns the items matching f in insertion order.
func (s *Service) List(_ context.Context, f views.Filter) ([]models.Item, error) {
	return s.db.List(f)
}

// Get returns the item with id.
func (s *Service) Get(_ context.Context, id string) (*models.Item, error) {
	return s.db.Get(id)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.db.Search(query, limit)
}

// View projects the filtered items for the given presentation mode.
func (s *Service) View(ctx context.Context, mode views.Mode, f views.Filter) (any, error) {
	items, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return views.Build(mode, items), nil
}

// save replaces the stored collection, rebuilds the index from the new
// blob and notifies listeners. Callers hold s.mu.
func (s *Service) save(items []models.Item, kind, id string) error {
	if err := s.store.Replace(items); err != nil {
		return fmt.Errorf("itemservice: save: %w", err)
	}
	raw, err := s.store.Raw()
	if err != nil {
		return fmt.Errorf("itemservice: read back: %w", err)
	}
	if err := s.db.Rebuild(items, checksum.Sum(raw)); err != nil {
		return fmt.Errorf("itemservice: reindex: %w", err)
	}
	if s.notify != nil {
		s.notify.PublishItemEvent(kind, id)
	}
	return nil
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

// splitTags turns "a, b,,c" into [a b c].
func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
