// Package testutil provides shared test helpers for stores, indexes and
// fixed item fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/namohub/internal/index"
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "namohub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBlob creates a blob store in a temporary directory.
func TestBlob(t *testing.T) *storage.Blob {
	t.Helper()
	store, err := storage.NewBlob(filepath.Join(t.TempDir(), "hub.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Items returns a small fixed collection covering every nature and status.
func Items() []models.Item {
	return []models.Item{
		{ID: "bp-1", Title: "Market sizing", Author: "ana", Content: "problem: estimate sales", Nature: models.NatureBlueprint, Domain: models.DomainBusiness, Status: models.StatusDraft, Completeness: 25, Tags: []string{"biz"}, CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "so-1", Title: "Deploy api", Author: "bo", Content: "step 1 deploy the api", Nature: models.NatureSolution, Domain: models.DomainTechnical, Status: models.StatusReviewed, Completeness: 35, Tags: []string{}, CreatedAt: "2024-01-02T00:00:00.000Z"},
		{ID: "so-2", Title: "Benchmark", Author: "", Content: "benchmark result table", Nature: models.NatureSolution, Domain: models.DomainResearch, Status: models.StatusFinal, Completeness: 35, Tags: []string{"perf", "q1"}, CreatedAt: "2024-01-03T00:00:00.000Z"},
	}
}
