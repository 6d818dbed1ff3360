// Package destinations links every destination connector into the binary
// so its init() registers it with the registry.
package destinations

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"

	_ "github.com/ajitpratap0/nebula-rickmorty/pkg/connector/destinations/json"
	_ "github.com/ajitpratap0/nebula-rickmorty/pkg/connector/destinations/mongodb"
	_ "github.com/ajitpratap0/nebula-rickmorty/pkg/connector/destinations/postgresql"
	_ "github.com/ajitpratap0/nebula-rickmorty/pkg/connector/destinations/s3"
)

// New creates the destination registered under cfg.Type.
func New(cfg *config.BaseConfig) (core.Destination, error) {
	return registry.CreateDestination(cfg.Type, cfg)
}
