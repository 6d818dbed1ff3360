package config

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultAPIBaseURL is the public Rick and Morty API root.
const DefaultAPIBaseURL = "https://rickandmortyapi.com/api/"

// HTTPSourceConfig is the typed view of an HTTP source's credentials.
// It is a value: once parsed it is never mutated and is handed to every
// operation that needs it.
type HTTPSourceConfig struct {
	// BaseURL is the API root every stream path is resolved against
	BaseURL string `yaml:"base_url" json:"base_url"`
	// StartPage is the page token used for the first request of a sync.
	// Empty means the first request carries no page parameter.
	StartPage string `yaml:"start_page" json:"start_page"`
	// APIToken is an optional bearer token
	APIToken string `yaml:"api_token" json:"api_token"`
}

// ParseHTTPSourceConfig extracts HTTPSourceConfig from the base config's
// credentials, applying the default base URL.
func ParseHTTPSourceConfig(bc *BaseConfig) (HTTPSourceConfig, error) {
	if bc == nil {
		return HTTPSourceConfig{}, fmt.Errorf("configuration is required")
	}

	sc := HTTPSourceConfig{
		BaseURL:   bc.Credential("base_url", DefaultAPIBaseURL),
		StartPage: strings.TrimSpace(bc.Credential("start_page", "")),
		APIToken:  bc.Credential("api_token", ""),
	}

	u, err := url.Parse(sc.BaseURL)
	if err != nil {
		return HTTPSourceConfig{}, fmt.Errorf("invalid base_url %q: %w", sc.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return HTTPSourceConfig{}, fmt.Errorf("base_url must be http or https, got %q", sc.BaseURL)
	}
	if bc.Security.AuthType == "bearer" && sc.APIToken == "" {
		return HTTPSourceConfig{}, fmt.Errorf("api_token is required when auth_type is bearer")
	}

	return sc, nil
}

// URLFor joins the base URL and a stream path with exactly one slash.
func (c HTTPSourceConfig) URLFor(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
