package types

import "time"

// HTTPConfig holds shared HTTP settings used by every platform backend.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the aggregation stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results requested per backend
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Platforms enables or disables individual backends by name. A missing
	// entry means enabled; the CLI populates this from config or flags.
	Platforms map[string]bool `json:"platforms,omitempty" yaml:"platforms,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// RequestsPerSecond caps the request rate per backend (default 3).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// Enabled reports whether the named backend should be queried.
func (c SearchConfig) Enabled(name string) bool {
	if c.Platforms == nil {
		return true
	}
	on, ok := c.Platforms[name]
	return !ok || on
}

// LibraryConfig holds settings for the local results library.
type LibraryConfig struct {
	// Dir is the base directory for the library database and exports.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
