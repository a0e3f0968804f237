package api

import (
	"github.com/starford/namohub/internal/importer"
	"github.com/starford/namohub/internal/models"
)

// CreateItemRequest is the request body for creating an item. Empty
// nature, domain and status are filled in by the classifier.
type CreateItemRequest struct {
	Title   string `json:"title" example:"Deploy checklist" validate:"required"`
	Author  string `json:"author,omitempty" example:"ana"`
	Content string `json:"content" example:"step 1: deploy the api"`
	Nature  string `json:"nature,omitempty" example:"Solution"`
	Domain  string `json:"domain,omitempty" example:"Technical"`
	Status  string `json:"status,omitempty" example:"Draft"`
	Tags    string `json:"tags,omitempty" example:"ops,release"`
}

// SetStatusRequest is the request body for moving an item between lanes.
type SetStatusRequest struct {
	Status string `json:"status" example:"Final" validate:"required"`
}

// ClassifyRequest is the request body for the classifier endpoint.
type ClassifyRequest struct {
	Text string `json:"text" example:"market sizing: problem statement" validate:"required"`
}

// Item is the item response type (aliased from the domain layer).
type Item = models.Item

// Classification is the classifier response type.
type Classification = models.Classification

// ImportOutcome is the import response type.
type ImportOutcome = importer.Outcome

// ItemListResponse wraps item listings.
type ItemListResponse struct {
	Items []Item `json:"items" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id" example:"3f1c..." validate:"required"`
	Title   string `json:"title" example:"Deploy checklist" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
