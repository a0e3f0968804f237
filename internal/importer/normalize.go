// Package importer validates and repairs externally supplied records into
// well-formed items, backfilling classification from the classifier.
package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/namohub/internal/classify"
	"github.com/starford/namohub/internal/models"
)

// ISOLayout is the createdAt timestamp format (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z"

const (
	defaultTitle  = "Untitled"
	defaultAuthor = "Unknown"
)

// Verdict summarises an Outcome for the caller.
type Verdict string

const (
	// VerdictEmpty means there were no records and no errors.
	VerdictEmpty Verdict = "empty"
	// VerdictRejected means at least one error was recorded; the batch
	// should not be committed.
	VerdictRejected Verdict = "rejected"
	// VerdictClean means the batch can be committed. Warnings may be present.
	VerdictClean Verdict = "clean"
)

// Outcome is the result of normalizing a batch.
type Outcome struct {
	Normalized []models.Item `json:"normalized"`
	Errors     []string      `json:"errors"`
	Warnings   []string      `json:"warnings"`
}

// Verdict classifies the outcome.
func (o Outcome) Verdict() Verdict {
	switch {
	case len(o.Errors) > 0:
		return VerdictRejected
	case len(o.Normalized) == 0:
		return VerdictEmpty
	}
	return VerdictClean
}

// Normalizer turns loosely typed records into items. It has no mutable
// state; id generation and the clock are injected.
type Normalizer struct {
	classifier *classify.Classifier
	newID      func() string
	now        func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClassifier sets the classifier used to backfill classification fields.
func WithClassifier(c *classify.Classifier) Option {
	return func(n *Normalizer) {
		n.classifier = c
	}
}

// WithIDGenerator sets the generator for records without an id.
func WithIDGenerator(fn func() string) Option {
	return func(n *Normalizer) {
		n.newID = fn
	}
}

// WithClock sets the time source for records without createdAt.
func WithClock(fn func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = fn
	}
}

// New creates a Normalizer. Defaults: classify.Default, random UUIDs, time.Now.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		classifier: classify.Default,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewID returns a fresh id from the configured generator.
func (n *Normalizer) NewID() string {
	return n.newID()
}

// Timestamp returns the current time in ISOLayout.
func (n *Normalizer) Timestamp() string {
	return n.now().UTC().Format(ISOLayout)
}

// Normalize never fails: problems are reported in the Outcome. Records that
// are not objects are skipped; every other record yields exactly one item,
// even when errors were recorded for it. Messages number records from 1.
func (n *Normalizer) Normalize(records []Value) Outcome {
	out := Outcome{
		Normalized: make([]models.Item, 0, len(records)),
		Errors:     []string{},
		Warnings:   []string{},
	}

	for i, rec := range records {
		pos := i + 1
		// Sequences count as objects with no fields.
		if !rec.IsObject() && rec.Kind() != KindSequence {
			out.Errors = append(out.Errors, fmt.Sprintf("Item %d is not an object.", pos))
			continue
		}

		title := decodeTitle(rec)
		content := decodeContent(rec)
		if title == "" {
			out.Errors = append(out.Errors, fmt.Sprintf("Item %d is missing title.", pos))
			title = defaultTitle
		}
		if content == "" {
			out.Warnings = append(out.Warnings, fmt.Sprintf("Item %d is missing content.", pos))
		}

		id := textOr(rec, "id", "")
		if id == "" {
			id = n.newID()
		}

		auto := n.classifier.Classify(content)

		createdAt := textOr(rec, "createdAt", "")
		if createdAt == "" {
			createdAt = n.Timestamp()
		}

		out.Normalized = append(out.Normalized, models.Item{
			ID:           id,
			Title:        title,
			Author:       textOr(rec, "author", defaultAuthor),
			Content:      content,
			Nature:       models.Nature(textOr(rec, "nature", string(auto.Nature))),
			Domain:       models.Domain(textOr(rec, "domain", string(auto.Domain))),
			Status:       models.Status(textOr(rec, "status", string(auto.Status))),
			Completeness: completenessOr(rec, auto.Completeness),
			Tags:         decodeTags(rec),
			CreatedAt:    createdAt,
		})
	}

	return out
}

// NormalizeAny wraps each element with FromAny before normalizing.
func (n *Normalizer) NormalizeAny(records []any) Outcome {
	vals := make([]Value, len(records))
	for i, r := range records {
		vals[i] = FromAny(r)
	}
	return n.Normalize(vals)
}

// Records converts items back into plain records.
func Records(items []models.Item) []Value {
	out := make([]Value, len(items))
	for i, it := range items {
		tags := make([]Value, len(it.Tags))
		for j, t := range it.Tags {
			tags[j] = String(t)
		}
		out[i] = Object(map[string]Value{
			"id":           String(it.ID),
			"title":        String(it.Title),
			"author":       String(it.Author),
			"content":      String(it.Content),
			"nature":       String(string(it.Nature)),
			"domain":       String(string(it.Domain)),
			"status":       String(string(it.Status)),
			"completeness": Number(float64(it.Completeness)),
			"tags":         Sequence(tags...),
			"createdAt":    String(it.CreatedAt),
		})
	}
	return out
}
