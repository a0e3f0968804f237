// Package views builds the matrix, kanban and mindmap projections of an
// item collection. Projections never modify items.
package views

import (
	"fmt"
	"strings"

	"github.com/starford/namohub/internal/models"
)

// Mode names a presentation mode.
type Mode string

const (
	ModeMatrix  Mode = "matrix"
	ModeKanban  Mode = "kanban"
	ModeMindmap Mode = "mindmap"
)

// ParseMode parses a mode name. Empty means matrix.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMatrix:
		return ModeMatrix, nil
	case ModeKanban:
		return ModeKanban, nil
	case ModeMindmap:
		return ModeMindmap, nil
	}
	return "", fmt.Errorf("views: unknown mode %q", s)
}

// All is the filter value that matches any nature, domain or status.
const All = "All"

// Filter selects items by classification and text. Empty fields and All
// match everything.
type Filter struct {
	Nature string `json:"nature,omitempty"`
	Domain string `json:"domain,omitempty"`
	Status string `json:"status,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Match reports whether it passes the filter. Text matches as a
// case-insensitive substring of title followed by content.
func (f Filter) Match(it models.Item) bool {
	if !anyOrEqual(f.Nature, string(it.Nature)) ||
		!anyOrEqual(f.Domain, string(it.Domain)) ||
		!anyOrEqual(f.Status, string(it.Status)) {
		return false
	}
	if f.Text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Title+it.Content), strings.ToLower(f.Text))
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []models.Item) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func anyOrEqual(want, got string) bool {
	return want == "" || want == All || want == got
}

// Card is the compact item representation shown in every view.
type Card struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Nature       models.Nature `json:"nature"`
	Domain       models.Domain `json:"domain"`
	Status       models.Status `json:"status"`
	Completeness int           `json:"completeness"`
}

func cardOf(it models.Item) Card {
	return Card{
		ID:           it.ID,
		Title:        it.Title,
		Nature:       it.Nature,
		Domain:       it.Domain,
		Status:       it.Status,
		Completeness: it.Completeness,
	}
}

// MatrixCell holds the cards for one nature/domain pair.
type MatrixCell struct {
	Nature models.Nature `json:"nature"`
	Domain models.Domain `json:"domain"`
	Cards  []Card        `json:"cards"`
}

// MatrixView is a nature × domain grid.
type MatrixView struct {
	Domains []models.Domain `json:"domains"`
	Rows    [][]MatrixCell  `json:"rows"`
}

// Matrix places each item in its nature/domain cell. Items whose nature or
// domain is not a known value have no cell and are left out.
func Matrix(items []models.Item) MatrixView {
	v := MatrixView{Domains: models.Domains}
	for _, n := range models.Natures {
		row := make([]MatrixCell, len(models.Domains))
		for j, d := range models.Domains {
			row[j] = MatrixCell{Nature: n, Domain: d, Cards: []Card{}}
		}
		v.Rows = append(v.Rows, row)
	}
	for _, it := range items {
		r, c := natureIndex(it.Nature), domainIndex(it.Domain)
		if r < 0 || c < 0 {
			continue
		}
		v.Rows[r][c].Cards = append(v.Rows[r][c].Cards, cardOf(it))
	}
	return v
}

// Lane is one kanban column.
type Lane struct {
	Status models.Status `json:"status"`
	Cards  []Card        `json:"cards"`
}

// KanbanView groups cards by status.
type KanbanView struct {
	Lanes []Lane `json:"lanes"`
}

// Kanban builds Draft, Reviewed and Final lanes; items with any other
// status are left out.
func Kanban(items []models.Item) KanbanView {
	lanes := make([]Lane, len(models.Statuses))
	for i, s := range models.Statuses {
		lanes[i] = Lane{Status: s, Cards: []Card{}}
	}
	for _, it := range items {
		for i := range lanes {
			if lanes[i].Status == it.Status {
				lanes[i].Cards = append(lanes[i].Cards, cardOf(it))
				break
			}
		}
	}
	return KanbanView{Lanes: lanes}
}

// Section groups cards of one domain inside a branch.
type Section struct {
	Domain models.Domain `json:"domain"`
	Cards  []Card        `json:"cards"`
}

// Branch groups sections of one nature.
type Branch struct {
	Nature   models.Nature `json:"nature"`
	Sections []Section     `json:"sections"`
}

// MindmapView is a two-level tree: nature, then domain.
type MindmapView struct {
	Branches []Branch `json:"branches"`
}

// Mindmap groups items by nature then domain, both in first-seen order.
// Unlike the matrix it keeps unknown values as their own groups.
func Mindmap(items []models.Item) MindmapView {
	var branches []Branch
	branchIdx := map[models.Nature]int{}
	sectionIdx := map[models.Nature]map[models.Domain]int{}

	for _, it := range items {
		bi, ok := branchIdx[it.Nature]
		if !ok {
			bi = len(branches)
			branchIdx[it.Nature] = bi
			sectionIdx[it.Nature] = map[models.Domain]int{}
			branches = append(branches, Branch{Nature: it.Nature})
		}
		b := &branches[bi]
		si, ok := sectionIdx[it.Nature][it.Domain]
		if !ok {
			si = len(b.Sections)
			sectionIdx[it.Nature][it.Domain] = si
			b.Sections = append(b.Sections, Section{Domain: it.Domain})
		}
		b.Sections[si].Cards = append(b.Sections[si].Cards, cardOf(it))
	}
	if branches == nil {
		branches = []Branch{}
	}
	return MindmapView{Branches: branches}
}

// Build renders items in the given mode.
func Build(mode Mode, items []models.Item) any {
	switch mode {
	case ModeKanban:
		return Kanban(items)
	case ModeMindmap:
		return Mindmap(items)
	}
	return Matrix(items)
}

func natureIndex(n models.Nature) int {
	for i, v := range models.Natures {
		if v == n {
			return i
		}
	}
	return -1
}

func domainIndex(d models.Domain) int {
	for i, v := range models.Domains {
		if v == d {
			return i
		}
	}
	return -1
}
