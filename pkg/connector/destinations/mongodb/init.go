package mongodb

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterDestination("mongodb", func(cfg *config.BaseConfig) (core.Destination, error) {
		return NewDestination("mongodb", cfg)
	})

	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:         "mongodb",
		Type:         core.ConnectorTypeDestination,
		Description:  "MongoDB destination storing each stream in its own collection",
		Version:      "1.0.0",
		Capabilities: []string{"batch", "upsert"},
		ConfigSchema: map[string]interface{}{
			"uri":               map[string]interface{}{"type": "string", "required": true, "writeOnly": true},
			"database":          map[string]interface{}{"type": "string", "default": "rickmorty"},
			"collection_prefix": map[string]interface{}{"type": "string"},
			"write_mode": map[string]interface{}{
				"type":    "string",
				"enum":    []string{ModeUpsert, ModeAppend},
				"default": ModeUpsert,
			},
		},
	})
}
