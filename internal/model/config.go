package model

import (
	"path/filepath"
	"time"
)

// RegisterDates lists the UK register releases in publication order (YYMMDD)
var RegisterDates = []string{
	"240828", // 28 August 2024
	"241009", // 9 October 2024
	"241120", // 20 November 2024
	"250102", // 2 January 2025
	"250212", // 12 February 2025
	"250328", // 28 March 2025
}

// LatestRegisterDate returns the most recent register release
func LatestRegisterDate() string {
	return RegisterDates[len(RegisterDates)-1]
}

// RegisterDateAsDate converts a YYMMDD register date to a calendar Date
func RegisterDateAsDate(register string) (Date, error) {
	t, err := time.Parse("060102", register)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// Config holds all runtime configuration, constructed once at startup and
// passed into every component that needs it
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	Data    DataConfig    `yaml:"data"`
	Cache   CacheConfig   `yaml:"cache"`
	Verbose bool          `yaml:"verbose"`
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	CheckRobots       bool          `yaml:"check_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// LLMConfig controls the OpenAI-backed extraction agents
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// SearchConfig controls the web-search tool used by the website agent
type SearchConfig struct {
	APIKey string `yaml:"api_key"`
}

// DataConfig controls where the dataset lives on disk
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig controls the fetch and purpose caches
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "appgwatch/0.1 (+https://github.com/appgwatch/appgwatch)",
			MaxBodyBytes:      2_000_000,
			CheckRobots:       false,
			RequestsPerSecond: 2,
		},
		LLM: LLMConfig{
			Model:     "gpt-4o",
			MaxTokens: 4000,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join("data", "cache"),
			TTL:     7 * 24 * time.Hour,
		},
	}
}

// ReleasesDir returns the directory holding release snapshots
func (c *Config) ReleasesDir() string {
	return filepath.Join(c.Data.Dir, "raw", "releases")
}

// CorrectionsPath returns the name-correction store file
func (c *Config) CorrectionsPath() string {
	return filepath.Join(c.Data.Dir, "raw", "mp_name_corrections.json")
}

// DiffsDir returns the directory holding diff result documents
func (c *Config) DiffsDir() string {
	return filepath.Join(c.Data.Dir, "interim", "diffs")
}

// PackagesDir returns the directory holding built data packages
func (c *Config) PackagesDir() string {
	return filepath.Join(c.Data.Dir, "packages", "appg_groups_and_memberships")
}

// SpreadsheetsDir returns the directory holding input membership workbooks
func (c *Config) SpreadsheetsDir() string {
	return filepath.Join(c.Data.Dir, "raw", "september")
}

// ExportsDir returns the directory holding generated exports
func (c *Config) ExportsDir() string {
	return filepath.Join(c.Data.Dir, "exports")
}

// ManualDataDir returns the directory holding the manual membership document
func (c *Config) ManualDataDir() string {
	return filepath.Join(c.Data.Dir, "raw", "manual")
}

// PeoplePath returns the local copy of the canonical legislator database
func (c *Config) PeoplePath() string {
	return filepath.Join(c.Data.Dir, "raw", "external", "people.json")
}
