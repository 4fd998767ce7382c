// Package provider maps browser names to the factories that construct live
// driver sessions for them. The registry is the single extension point for
// new backends: register a (name, factory) pair before the run starts and
// configuration can select it like any built-in.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/session"
)

// Factory produces a live driver session from a resolved configuration.
type Factory func(ctx context.Context, cfg *capability.Config) (*session.Session, error)

// Provider is one registered browser backend.
type Provider struct {
	// Name is the canonical provider key, case-normalized.
	Name string

	// Aliases are alternative keys that resolve to the same provider.
	Aliases []string

	// New constructs a session for this browser.
	New Factory
}

// Registry maps provider keys to factories. Populate it before the run
// starts; it is read-only during test execution, so resolution never
// contends with registration.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
	names     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Register adds a provider under its name and aliases. Registering a key
// that is already taken fails loudly; silent overrides would make the
// winning provider depend on registration order.
func (r *Registry) Register(p Provider) error {
	name := capability.NormalizeKey(p.Name)
	if name == "" {
		return fmt.Errorf("provider must have a name")
	}
	if p.New == nil {
		return fmt.Errorf("provider %q has no factory", name)
	}

	keys := []string{name}
	for _, alias := range p.Aliases {
		if alias = capability.NormalizeKey(alias); alias != "" && alias != name {
			keys = append(keys, alias)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		if existing, ok := r.providers[key]; ok {
			return fmt.Errorf("provider key %q already registered by %q", key, existing.Name)
		}
	}

	registered := p
	registered.Name = name
	for _, key := range keys {
		r.providers[key] = &registered
	}
	r.names = append(r.names, name)
	sort.Strings(r.names)
	return nil
}

// Resolve returns the provider for a browser key. The same key always yields
// the same provider within a run.
func (r *Registry) Resolve(name string) (*Provider, error) {
	key := capability.NormalizeKey(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[key]
	if !ok {
		return nil, &UnknownProviderError{Key: name, Known: append([]string(nil), r.names...)}
	}
	return p, nil
}

// Keys returns the canonical provider names, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// UnknownProviderError reports a browser key with no registered provider.
// It lists the known keys so the caller can see the valid alternatives.
type UnknownProviderError struct {
	Key   string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown browser %q (no providers registered)", e.Key)
	}
	return fmt.Sprintf("unknown browser %q (registered: %s)", e.Key, strings.Join(e.Known, ", "))
}
