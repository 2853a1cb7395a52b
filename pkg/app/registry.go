package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common error types for app construction
var (
	ErrUnknownApp         = errors.New("unknown app")
	ErrConfigurationError = errors.New("configuration error")
)

// Factory is a function type that creates a new app from its options
type Factory func(options map[string]interface{}) (App, error)

// Global app registry
var globalRegistry = NewRegistry()

// Register registers an app factory with the global registry
func Register(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// Create creates a new app with the given name and options using the
// global registry
func Create(name string, options map[string]interface{}) (App, error) {
	return globalRegistry.Create(name, options)
}

// Available returns the names registered with the global registry
func Available() []string {
	return globalRegistry.Available()
}

// Registry maintains a registry of named app factories so a startup
// descriptor can select an app by name
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a new app registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers an app factory with the registry
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Create creates a new app with the given name and options
func (r *Registry) Create(name string, options map[string]interface{}) (App, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)",
			ErrUnknownApp, name, strings.Join(r.Available(), ", "))
	}

	a, err := factory(options)
	if err != nil {
		return nil, fmt.Errorf("creating app %s: %w", name, err)
	}
	return a, nil
}

// Available returns a sorted list of registered app names
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringOption reads a string option from a factory options map,
// falling back to def when absent. A present value of the wrong type
// is a configuration error.
func StringOption(options map[string]interface{}, key, def string) (string, error) {
	if options == nil {
		return def, nil
	}
	raw, ok := options[key]
	if !ok {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: option %q must be a string, got %T", ErrConfigurationError, key, raw)
	}
	return s, nil
}
