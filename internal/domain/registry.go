package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	m "qcgen.dev/pkg/qcgen/internal/model"
)

// ErrDuplicateModifier is returned when an attribute name is registered twice.
var ErrDuplicateModifier = errors.New("modifier already registered")

// Modifier rewrites one annotated declaration into exactly one declaration.
type Modifier func(span m.Span, decl m.Declaration) ExpansionResult

// Registry maps attribute names to the modifiers that expand them. It is
// populated during initialization and only read afterwards.
type Registry struct {
	mu        sync.RWMutex
	modifiers map[string]Modifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modifiers: make(map[string]Modifier)}
}

// Register adds a modifier under name.
func (r *Registry) Register(name string, modifier Modifier) error {
	if name == "" || modifier == nil {
		return fmt.Errorf("invalid registration for %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modifiers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModifier, name)
	}

	r.modifiers[name] = modifier
	slog.Debug("Registered modifier", "attribute", name)

	return nil
}

// Lookup returns the modifier registered under name.
func (r *Registry) Lookup(name string) (Modifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modifier, ok := r.modifiers[name]

	return modifier, ok
}

// Names returns the registered attribute names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modifiers))
	for name := range r.modifiers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RegisterQuickcheck installs expander under the quickcheck marker.
func RegisterQuickcheck(r *Registry, expander Expander) error {
	return r.Register(QuickcheckAttribute, expander.Modifier())
}
