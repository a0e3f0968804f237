// Package classify infers an item's nature, domain, status and completeness
// from its free text using keyword and length heuristics.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/starford/namohub/internal/models"
)

// DomainRule maps a pattern to a domain. Rules are evaluated in order and
// the first match wins.
type DomainRule struct {
	Domain  models.Domain
	Pattern *regexp.Regexp
}

// ScoreRule adds Points to the completeness score when Keyword occurs.
type ScoreRule struct {
	Keyword string
	Points  int
}

// Rules is the lexical pattern set a Classifier works from. All matching is
// done on the lower-cased text; keywords are plain substrings, so a hit
// inside a larger word counts.
type Rules struct {
	SolutionKeywords []string
	Domains          []DomainRule
	FallbackDomain   models.Domain
	Scores           []ScoreRule
	LongThreshold    int
	LongPoints       int
	ShortPoints      int
}

// DefaultRules returns the built-in pattern set.
func DefaultRules() Rules {
	return Rules{
		SolutionKeywords: []string{"step", "result", "deploy", "api", "code"},
		Domains: []DomainRule{
			{Domain: models.DomainBusiness, Pattern: regexp.MustCompile(`market|roi|sales`)},
			{Domain: models.DomainProcess, Pattern: regexp.MustCompile(`process|workflow|policy`)},
			{Domain: models.DomainResearch, Pattern: regexp.MustCompile(`research|benchmark`)},
		},
		FallbackDomain: models.DomainTechnical,
		Scores: []ScoreRule{
			{Keyword: "problem", Points: 20},
			{Keyword: "step", Points: 30},
			{Keyword: "result", Points: 30},
		},
		LongThreshold: 200,
		LongPoints:    20,
		ShortPoints:   5,
	}
}

// Classifier derives a Classification from text. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	rules Rules
}

// New creates a Classifier over the given rules. An empty FallbackDomain
// defaults to Technical.
func New(rules Rules) *Classifier {
	if rules.FallbackDomain == "" {
		rules.FallbackDomain = models.DomainTechnical
	}
	return &Classifier{rules: rules}
}

// Default is the classifier built from DefaultRules.
var Default = New(DefaultRules())

// Classify runs the default classifier.
func Classify(text string) models.Classification {
	return Default.Classify(text)
}

// Classify never fails; empty text yields Blueprint/Technical/Draft with the
// short-text score. It never emits Final.
func (c *Classifier) Classify(text string) models.Classification {
	t := strings.ToLower(text)

	nature := models.NatureBlueprint
	status := models.StatusDraft
	if c.isSolution(t) {
		nature = models.NatureSolution
		status = models.StatusReviewed
	}

	return models.Classification{
		Nature:       nature,
		Domain:       c.domain(t),
		Status:       status,
		Completeness: c.completeness(t),
	}
}

func (c *Classifier) isSolution(t string) bool {
	for _, kw := range c.rules.SolutionKeywords {
		if kw != "" && strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func (c *Classifier) domain(t string) models.Domain {
	for _, r := range c.rules.Domains {
		if r.Pattern != nil && r.Pattern.MatchString(t) {
			return r.Domain
		}
	}
	return c.rules.FallbackDomain
}

// completeness sums every matching score rule plus exactly one of the
// long/short length terms, clamped to [0,100].
func (c *Classifier) completeness(t string) int {
	score := 0
	for _, r := range c.rules.Scores {
		if r.Keyword != "" && strings.Contains(t, r.Keyword) {
			score += r.Points
		}
	}
	if textLength(t) > c.rules.LongThreshold {
		score += c.rules.LongPoints
	} else {
		score += c.rules.ShortPoints
	}
	return Clamp(score)
}

// textLength counts UTF-16 code units, so characters outside the BMP
// count twice.
func textLength(t string) int {
	n := 0
	for _, r := range t {
		n += utf16.RuneLen(r)
	}
	return n
}

// Clamp bounds a completeness score to [0,100].
func Clamp(score int) int {
	switch {
	case score > 100:
		return 100
	case score < 0:
		return 0
	}
	return score
}
