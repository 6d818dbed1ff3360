// Package sources links every source connector into the binary so its
// init() registers it with the registry.
package sources

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"

	_ "github.com/ajitpratap0/nebula-rickmorty/pkg/connector/sources/rickmorty"
)

// New creates the source registered under cfg.Type.
func New(cfg *config.BaseConfig) (core.Source, error) {
	return registry.CreateSource(cfg.Type, cfg)
}
