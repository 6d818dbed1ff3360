package postgresql

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterDestination("postgresql", func(cfg *config.BaseConfig) (core.Destination, error) {
		return NewDestination("postgresql", cfg)
	})

	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:         "postgresql",
		Type:         core.ConnectorTypeDestination,
		Description:  "PostgreSQL destination loading each stream into a jsonb table via COPY",
		Version:      "1.0.0",
		Capabilities: []string{"batch", "bulk_load", "upsert"},
		ConfigSchema: map[string]interface{}{
			"connection_string": map[string]interface{}{
				"type":        "string",
				"description": "postgres:// URL; overrides host/port/database/username/password",
				"writeOnly":   true,
			},
			"host":         map[string]interface{}{"type": "string"},
			"port":         map[string]interface{}{"type": "string", "default": "5432"},
			"database":     map[string]interface{}{"type": "string", "default": "postgres"},
			"username":     map[string]interface{}{"type": "string"},
			"password":     map[string]interface{}{"type": "string", "writeOnly": true},
			"schema":       map[string]interface{}{"type": "string", "default": "public"},
			"table_prefix": map[string]interface{}{"type": "string"},
			"write_mode": map[string]interface{}{
				"type":    "string",
				"enum":    []string{ModeAppend, ModeUpsert},
				"default": ModeAppend,
			},
		},
	})
}
