// Package models defines the domain types for namohub.
package models

// Nature tells whether an item frames a problem or describes an executed answer.
type Nature string

const (
	NatureBlueprint Nature = "Blueprint"
	NatureSolution  Nature = "Solution"
)

// Domain is the topical category of an item.
type Domain string

const (
	DomainTechnical Domain = "Technical"
	DomainBusiness  Domain = "Business"
	DomainProcess   Domain = "Process"
	DomainResearch  Domain = "Research"
)

// Status is the workflow stage of an item.
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusReviewed Status = "Reviewed"
	StatusFinal    Status = "Final"
)

// Natures, Domains and Statuses list the enum values in display order.
var (
	Natures  = []Nature{NatureBlueprint, NatureSolution}
	Domains  = []Domain{DomainTechnical, DomainBusiness, DomainProcess, DomainResearch}
	Statuses = []Status{StatusDraft, StatusReviewed, StatusFinal}
)

// Valid reports whether n is a known nature.
func (n Nature) Valid() bool {
	return n == NatureBlueprint || n == NatureSolution
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainTechnical, DomainBusiness, DomainProcess, DomainResearch:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReviewed, StatusFinal:
		return true
	}
	return false
}

// Item is a single recorded artifact with its classification metadata.
// JSON field names match the persisted blob format.
type Item struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Content      string   `json:"content"`
	Nature       Nature   `json:"nature"`
	Domain       Domain   `json:"domain"`
	Status       Status   `json:"status"`
	Completeness int      `json:"completeness"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"createdAt"`
}

// Clone returns a copy of the item that shares no memory with the original.
func (it Item) Clone() Item {
	out := it
	out.Tags = append([]string{}, it.Tags...)
	return out
}

// Classification is the transient output of the classifier.
type Classification struct {
	Nature       Nature `json:"nature"`
	Domain       Domain `json:"domain"`
	Status       Status `json:"status"`
	Completeness int    `json:"completeness"`
}
