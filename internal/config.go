package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/namohub/internal/classify"
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Store      StoreConfig       `yaml:"store"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
	Classifier ClassifierConfig  `yaml:"classifier"`
	Events     EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig locates the collection blob. Key is the document key the
// collection is stored under.
type StoreConfig struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Key == "" {
		c.Key = storage.DefaultKey
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ClassifierConfig overrides the built-in classifier rules. Empty lists and
// nil numbers keep the defaults; a non-empty list replaces the default list.
type ClassifierConfig struct {
	SolutionKeywords []string              `yaml:"solution_keywords"`
	Domains          []DomainPatternConfig `yaml:"domains"`
	FallbackDomain   string                `yaml:"fallback_domain"`
	Scores           []ScoreConfig         `yaml:"scores"`
	LongThreshold    *int                  `yaml:"long_threshold"`
	LongPoints       *int                  `yaml:"long_points"`
	ShortPoints      *int                  `yaml:"short_points"`
}

// DomainPatternConfig maps a regular expression to a domain. Patterns are
// matched against lower-cased text.
type DomainPatternConfig struct {
	Domain  string `yaml:"domain"`
	Pattern string `yaml:"pattern"`
}

// Validate validates a domain pattern.
func (c DomainPatternConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Domain, validation.Required, validation.By(knownDomain)),
		validation.Field(&c.Pattern, validation.Required, validation.By(compiles)),
	)
}

// ScoreConfig awards Points when Keyword occurs in the text.
type ScoreConfig struct {
	Keyword string `yaml:"keyword"`
	Points  int    `yaml:"points"`
}

// Validate validates a score rule.
func (c ScoreConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Keyword, validation.Required),
	)
}

// Validate validates the classifier overrides.
func (c *ClassifierConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SolutionKeywords, validation.Each(validation.Required)),
		validation.Field(&c.Domains),
		validation.Field(&c.FallbackDomain, validation.By(knownDomain)),
		validation.Field(&c.Scores),
		validation.Field(&c.LongThreshold, validation.Min(0)),
	)
}

// Rules builds classifier rules from the defaults and the overrides.
func (c *ClassifierConfig) Rules() (classify.Rules, error) {
	rules := classify.DefaultRules()
	if len(c.SolutionKeywords) > 0 {
		rules.SolutionKeywords = c.SolutionKeywords
	}
	if len(c.Domains) > 0 {
		rules.Domains = make([]classify.DomainRule, 0, len(c.Domains))
		for _, d := range c.Domains {
			re, err := regexp.Compile(d.Pattern)
			if err != nil {
				return classify.Rules{}, fmt.Errorf("classifier: domain %s: %w", d.Domain, err)
			}
			rules.Domains = append(rules.Domains, classify.DomainRule{Domain: models.Domain(d.Domain), Pattern: re})
		}
	}
	if c.FallbackDomain != "" {
		rules.FallbackDomain = models.Domain(c.FallbackDomain)
	}
	if len(c.Scores) > 0 {
		rules.Scores = make([]classify.ScoreRule, len(c.Scores))
		for i, s := range c.Scores {
			rules.Scores[i] = classify.ScoreRule{Keyword: s.Keyword, Points: s.Points}
		}
	}
	if c.LongThreshold != nil {
		rules.LongThreshold = *c.LongThreshold
	}
	if c.LongPoints != nil {
		rules.LongPoints = *c.LongPoints
	}
	if c.ShortPoints != nil {
		rules.ShortPoints = *c.ShortPoints
	}
	return rules, nil
}

// Classifier builds the configured classifier.
func (c *ClassifierConfig) Classifier() (*classify.Classifier, error) {
	rules, err := c.Rules()
	if err != nil {
		return nil, err
	}
	return classify.New(rules), nil
}

func knownDomain(v any) error {
	s, _ := v.(string)
	if s != "" && !models.Domain(s).Valid() {
		return errors.New("must be Technical, Business, Process or Research")
	}
	return nil
}

func compiles(v any) error {
	s, _ := v.(string)
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	return nil
}

// EventsConfig controls SSE change notifications.
type EventsConfig struct {
	ViewsThrottle time.Duration `yaml:"views_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	if c.ViewsThrottle < 0 {
		return fmt.Errorf("events: views_throttle must not be negative")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./data/hub.json",
			Key:  storage.DefaultKey,
		},
		SQLite: SQLiteConfig{
			Path: "./namohub.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Events: EventsConfig{
			ViewsThrottle: 2 * time.Second,
		},
	}
}
