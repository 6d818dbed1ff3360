package s3

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterDestination("s3", func(cfg *config.BaseConfig) (core.Destination, error) {
		return NewDestination("s3", cfg)
	})

	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:         "s3",
		Type:         core.ConnectorTypeDestination,
		Description:  "Amazon S3 destination writing one JSON object per stream per batch",
		Version:      "1.0.0",
		Capabilities: []string{"batch", "compression", "date_partitioning", "s3_compatible"},
		ConfigSchema: map[string]interface{}{
			"bucket": map[string]interface{}{
				"type":        "string",
				"required":    true,
				"description": "S3 bucket name",
			},
			"region": map[string]interface{}{
				"type":    "string",
				"default": defaultRegion,
			},
			"prefix": map[string]interface{}{
				"type":        "string",
				"description": "Object key prefix for uploaded files",
			},
			"endpoint": map[string]interface{}{
				"type":        "string",
				"description": "Custom endpoint for S3-compatible stores; enables path-style addressing",
			},
			"aws_access_key_id": map[string]interface{}{
				"type":        "string",
				"description": "AWS access key ID (optional if using the default credential chain)",
			},
			"aws_secret_access_key": map[string]interface{}{
				"type":      "string",
				"writeOnly": true,
			},
			"format": map[string]interface{}{
				"type":    "string",
				"default": "jsonl",
				"enum":    []string{"jsonl", "json"},
			},
			"upload_part_size": map[string]interface{}{
				"type":    "integer",
				"default": defaultUploadPartSize,
			},
		},
	})
}
