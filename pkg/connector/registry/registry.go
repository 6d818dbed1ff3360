// Package registry maps connector names to factories so the CLI and the
// pipeline can build connectors from configuration. Connectors register
// themselves from an init function in their own package.
package registry

import (
	"maps"
	"slices"
	"sync"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/logger"
	"go.uber.org/zap"
)

// SourceFactory creates a source connector from its configuration.
type SourceFactory func(config *config.BaseConfig) (core.Source, error)

// DestinationFactory creates a destination connector from its configuration.
type DestinationFactory func(config *config.BaseConfig) (core.Destination, error)

// ConnectorInfo describes a registered connector for listing and for the
// spec command.
type ConnectorInfo struct {
	Name          string                 `json:"name"`
	Type          core.ConnectorType     `json:"type"`
	Description   string                 `json:"description"`
	Version       string                 `json:"version"`
	Capabilities  []string               `json:"capabilities,omitempty"`
	Documentation string                 `json:"documentation_url,omitempty"`
	ConfigSchema  map[string]interface{} `json:"connection_specification,omitempty"`
}

// entry is one registered name of either kind. info may be set before or
// after the factory.
type entry[F any] struct {
	factory F
	hasImpl bool
	info    *ConnectorInfo
}

// kind holds the connectors of one ConnectorType.
type kind[F any] struct {
	t       core.ConnectorType
	entries map[string]*entry[F]
}

func newKind[F any](t core.ConnectorType) kind[F] {
	return kind[F]{t: t, entries: make(map[string]*entry[F])}
}

func (k kind[F]) get(name string) *entry[F] {
	e, ok := k.entries[name]
	if !ok {
		e = &entry[F]{}
		k.entries[name] = e
	}
	return e
}

func (k kind[F]) register(name string, factory F) error {
	e := k.get(name)
	if e.hasImpl {
		return errors.Newf(errors.ErrorTypeConfig, "%s connector %s already registered", k.t, name)
	}
	e.factory, e.hasImpl = factory, true
	return nil
}

func (k kind[F]) factory(name string) (F, error) {
	e, ok := k.entries[name]
	if !ok || !e.hasImpl {
		var zero F
		return zero, errors.Newf(errors.ErrorTypeNotFound, "%s connector %s not found", k.t, name)
	}
	return e.factory, nil
}

func (k kind[F]) names() []string {
	names := make([]string, 0, len(k.entries))
	for name, e := range k.entries {
		if e.hasImpl {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Registry manages connector registration and instantiation
type Registry struct {
	mu           sync.RWMutex
	sources      kind[SourceFactory]
	destinations kind[DestinationFactory]
	logger       *zap.Logger
}

var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		sources:      newKind[SourceFactory](core.ConnectorTypeSource),
		destinations: newKind[DestinationFactory](core.ConnectorTypeDestination),
		logger:       logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// RegisterSource registers a source connector factory
func (r *Registry) RegisterSource(name string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.sources.register(name, factory); err != nil {
		return err
	}
	r.logger.Debug("source connector registered", zap.String("name", name))
	return nil
}

// RegisterDestination registers a destination connector factory
func (r *Registry) RegisterDestination(name string, factory DestinationFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.destinations.register(name, factory); err != nil {
		return err
	}
	r.logger.Debug("destination connector registered", zap.String("name", name))
	return nil
}

// RegisterInfo attaches descriptive metadata to a connector name. The last
// registration wins.
func (r *Registry) RegisterInfo(info *ConnectorInfo) {
	if info == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch info.Type {
	case core.ConnectorTypeSource:
		r.sources.get(info.Name).info = info
	case core.ConnectorTypeDestination:
		r.destinations.get(info.Name).info = info
	}
}

// Info returns the metadata registered for a connector.
func (r *Registry) Info(connectorType core.ConnectorType, name string) (*ConnectorInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var info *ConnectorInfo
	switch connectorType {
	case core.ConnectorTypeSource:
		if e, ok := r.sources.entries[name]; ok {
			info = e.info
		}
	case core.ConnectorTypeDestination:
		if e, ok := r.destinations.entries[name]; ok {
			info = e.info
		}
	}
	if info == nil {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no metadata for %s connector %s", connectorType, name)
	}
	return info, nil
}

// CreateSource creates a source connector instance
func (r *Registry) CreateSource(name string, config *config.BaseConfig) (core.Source, error) {
	r.mu.RLock()
	factory, err := r.sources.factory(name)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	source, err := factory(config)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create source connector "+name)
	}
	return source, nil
}

// CreateDestination creates a destination connector instance
func (r *Registry) CreateDestination(name string, config *config.BaseConfig) (core.Destination, error) {
	r.mu.RLock()
	factory, err := r.destinations.factory(name)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	destination, err := factory(config)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create destination connector "+name)
	}
	return destination, nil
}

// ListSources returns the registered source names, sorted
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources.names()
}

// ListDestinations returns the registered destination names, sorted
func (r *Registry) ListDestinations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.destinations.names()
}

// HasSource checks if a source connector is registered
func (r *Registry) HasSource(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := r.sources.factory(name)
	return err == nil
}

// HasDestination checks if a destination connector is registered
func (r *Registry) HasDestination(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := r.destinations.factory(name)
	return err == nil
}

// Clear removes all registered connectors (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps.DeleteFunc(r.sources.entries, func(string, *entry[SourceFactory]) bool { return true })
	maps.DeleteFunc(r.destinations.entries, func(string, *entry[DestinationFactory]) bool { return true })
}

// RegisterSource registers a source connector in the global registry
func RegisterSource(name string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(name, factory)
}

// RegisterDestination registers a destination connector in the global registry
func RegisterDestination(name string, factory DestinationFactory) error {
	return globalRegistry.RegisterDestination(name, factory)
}

// RegisterInfo attaches metadata in the global registry
func RegisterInfo(info *ConnectorInfo) { globalRegistry.RegisterInfo(info) }

// Info returns metadata from the global registry
func Info(connectorType core.ConnectorType, name string) (*ConnectorInfo, error) {
	return globalRegistry.Info(connectorType, name)
}

// CreateSource creates a source connector from the global registry
func CreateSource(name string, config *config.BaseConfig) (core.Source, error) {
	return globalRegistry.CreateSource(name, config)
}

// CreateDestination creates a destination connector from the global registry
func CreateDestination(name string, config *config.BaseConfig) (core.Destination, error) {
	return globalRegistry.CreateDestination(name, config)
}

// ListSources returns registered sources from the global registry
func ListSources() []string { return globalRegistry.ListSources() }

// ListDestinations returns registered destinations from the global registry
func ListDestinations() []string { return globalRegistry.ListDestinations() }

// HasSource checks if a source is registered in the global registry
func HasSource(name string) bool { return globalRegistry.HasSource(name) }

// HasDestination checks if a destination is registered in the global registry
func HasDestination(name string) bool { return globalRegistry.HasDestination(name) }
