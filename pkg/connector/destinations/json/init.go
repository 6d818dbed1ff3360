package json

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterDestination("json", func(cfg *config.BaseConfig) (core.Destination, error) {
		return NewDestination("json", cfg)
	})
	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:         "json",
		Type:         core.ConnectorTypeDestination,
		Description:  "JSON file destination supporting array and line-delimited formats",
		Version:      "1.0.0",
		Capabilities: []string{"streaming", "json_array", "json_lines", "compression"},
		ConfigSchema: map[string]interface{}{
			"path":     map[string]interface{}{"type": "string", "description": "Output file path"},
			"format":   map[string]interface{}{"type": "string", "enum": []string{"lines", "array"}, "default": "lines"},
			"pretty":   map[string]interface{}{"type": "boolean", "default": false},
			"envelope": map[string]interface{}{"type": "boolean", "default": false},
		},
	})
}
