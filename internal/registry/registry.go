// Package registry holds the sort configuration of every entity type the
// service exposes: which fields may be sorted on, which relations can be
// joined for related-field sorts, and which custom ordering scopes exist.
// Types are registered once during startup and are read-only afterwards.
package registry

import (
	"fmt"
	"sort"
)

// Registry maps entity type names to their immutable descriptors.
type Registry struct {
	types map[string]*EntityType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*EntityType{}}
}

// Register adds a descriptor. Registration happens during bootstrap only;
// it is not safe to call concurrently with Get.
func (r *Registry) Register(t *EntityType) error {
	if _, exists := r.types[t.Name()]; exists {
		return fmt.Errorf("entity type %s already registered", t.Name())
	}
	r.types[t.Name()] = t
	return nil
}

// Get returns the descriptor registered under a name.
func (r *Registry) Get(name string) (*EntityType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// MustGet returns a registered descriptor or panics. Reserved for wiring
// code where a missing type means the bootstrap itself is broken.
func (r *Registry) MustGet(name string) *EntityType {
	t, ok := r.types[name]
	if !ok {
		panic(fmt.Sprintf("entity type %s is not registered", name))
	}
	return t
}

// TypeNames returns the registered names in lexical order.
func (r *Registry) TypeNames() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
