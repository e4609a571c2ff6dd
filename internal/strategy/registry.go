package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/core"
)

// Registry maps strategy names to their definitions
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
	logger      *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{
		definitions: make(map[string]Definition),
		logger:      l,
	}
}

// NewCatalogRegistry creates a registry holding the built-in catalog
func NewCatalogRegistry(logger ...*zap.Logger) *Registry {
	r := NewRegistry(logger...)
	for _, def := range Catalog() {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register validates and adds a definition. A name already present is
// only overwritten when the definition sets Replace.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Name]; exists {
		if !def.Replace {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("strategy %s already registered, set replace to override", def.Name))
		}
		r.logger.Info("strategy definition replaced", zap.String("strategy", def.Name))
	}
	r.definitions[def.Name] = def.Clone()
	return nil
}

// RegisterAll registers each definition, stopping at the first error
func (r *Registry) RegisterAll(defs []Definition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a copy of a definition by name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedStrings(lo.Keys(r.definitions))
}

// List returns every definition sorted by name
func (r *Registry) List() []Definition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(names, func(name string, _ int) Definition {
		return r.definitions[name].Clone()
	})
}

// Resolve returns the named definitions, or all of them when names is empty
func (r *Registry) Resolve(names []string) ([]Definition, error) {
	if len(names) == 0 {
		return r.List(), nil
	}
	out := make([]Definition, 0, len(names))
	for _, name := range lo.Uniq(names) {
		def, ok := r.Get(name)
		if !ok {
			return nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("%s", name))
		}
		out = append(out, def)
	}
	return out, nil
}

// Evaluate runs a registered strategy by name
func (r *Registry) Evaluate(name string, series core.BarSeries, opts Options) (*SignalStream, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("%s", name))
	}
	return Evaluate(series, def, opts)
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
