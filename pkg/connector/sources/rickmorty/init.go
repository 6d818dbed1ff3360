package rickmorty

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(ConnectorName, func(cfg *config.BaseConfig) (core.Source, error) {
		return NewSource(ConnectorName, cfg)
	})
	registry.RegisterInfo(Info())
}
