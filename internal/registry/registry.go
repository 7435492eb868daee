package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrAliasRegistered is returned when a second descriptor claims an alias.
	ErrAliasRegistered = errors.New("alias already registered")
	// ErrTypeRegistered is returned when a Go type is registered twice.
	ErrTypeRegistered = errors.New("type already registered")
)

// Module is implemented by anything that contributes descriptors to a
// registry, typically a package's set of built-in components and variants.
type Module interface {
	Register(r *Registry) error
}

// Registry is the set of component and prefab-variant descriptors available
// to one application instance. It is safe for concurrent use; registration
// normally happens once at startup.
type Registry struct {
	mu             sync.RWMutex
	components     map[string]*ComponentDescriptor
	componentTypes map[reflect.Type]string
	prefabs        map[string]*PrefabDescriptor
	prefabTypes    map[reflect.Type]string
}

// New returns a Registry with the untyped "Prefab" variant pre-registered,
// so plain documents work without any registration.
func New() *Registry {
	r := &Registry{
		components:     make(map[string]*ComponentDescriptor),
		componentTypes: make(map[reflect.Type]string),
		prefabs:        make(map[string]*PrefabDescriptor),
		prefabTypes:    make(map[reflect.Type]string),
	}
	r.prefabs[BlankVariant] = &PrefabDescriptor{Alias: BlankVariant}
	return r
}

// Install runs every module's Register hook against the registry.
func (r *Registry) Install(modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(r); err != nil {
			return fmt.Errorf("module %T: %w", m, err)
		}
	}
	return nil
}

// Component resolves a component descriptor by its document alias.
func (r *Registry) Component(alias string) (*ComponentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.components[alias]
	return d, ok
}

// ComponentByType resolves a component descriptor by its Go type.
func (r *Registry) ComponentByType(t reflect.Type) (*ComponentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alias, ok := r.componentTypes[t]
	if !ok {
		return nil, false
	}
	return r.components[alias], true
}

// Prefab resolves a prefab-variant descriptor by its document alias.
func (r *Registry) Prefab(alias string) (*PrefabDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.prefabs[alias]
	return d, ok
}

// ComponentAliases returns every registered component alias, sorted.
func (r *Registry) ComponentAliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.components))
	for alias := range r.components {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// PrefabAliases returns every registered variant alias, sorted.
func (r *Registry) PrefabAliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.prefabs))
	for alias := range r.prefabs {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// ShortName trims a Go type down to the identifier prefab documents use:
// package paths are dropped, including inside generic type arguments, so
// "registry.Handle[internal/mesh.Mesh]" becomes "Handle[Mesh]".
func ShortName(t reflect.Type) string {
	input := t.String()
	var out strings.Builder
	segment := strings.Builder{}
	for _, c := range input {
		switch c {
		case '[', ']', ',', ' ':
			out.WriteString(trimPath(segment.String()))
			segment.Reset()
			out.WriteRune(c)
		default:
			segment.WriteRune(c)
		}
	}
	out.WriteString(trimPath(segment.String()))
	return out.String()
}

func trimPath(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}
