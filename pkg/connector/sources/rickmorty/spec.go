package rickmorty

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
)

const (
	// ConnectorName is the registry name of the source
	ConnectorName = "rickmorty"
	// Version is the connector version
	Version = "1.0.0"
)

// ConnectionSpecification is the JSON schema of the credentials block.
func ConnectionSpecification() map[string]interface{} {
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "Rick and Morty HTTP Source Spec",
		"type":                 "object",
		"required":             []string{},
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"start_page": map[string]interface{}{
				"type":        "string",
				"description": "Page number used for the first request of a sync. Omitted when empty.",
				"examples":    []string{"1"},
			},
			"base_url": map[string]interface{}{
				"type":        "string",
				"description": "API root every stream path is resolved against.",
				"default":     config.DefaultAPIBaseURL,
			},
			"api_token": map[string]interface{}{
				"type":        "string",
				"description": "Optional bearer token, sent when security.auth_type is bearer.",
				"writeOnly":   true,
			},
		},
	}
}

// Info returns the registry metadata for the source.
func Info() *registry.ConnectorInfo {
	return &registry.ConnectorInfo{
		Name:          ConnectorName,
		Type:          core.ConnectorTypeSource,
		Description:   "Full-refresh source for the Rick and Morty REST API",
		Version:       Version,
		Capabilities:  []string{"check", "discover", "read", string(core.SyncModeFullRefresh)},
		Documentation: "https://rickandmortyapi.com/documentation",
		ConfigSchema:  ConnectionSpecification(),
	}
}
