// Package templates holds the built-in migration templates and the registry
// that serves them. Templates are pure configuration: the validation engine
// and the load executor interpret them, they never execute themselves.
package templates

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
)

// ErrNotFound is returned when no template carries the requested id.
var ErrNotFound = errors.New("template not found")

// Registry is a thread-safe collection of migration templates, seeded with
// the built-in payroll set.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*models.MigrationTemplate
}

// NewRegistry returns a registry pre-loaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*models.MigrationTemplate)}
	r.Register(PayCodesTemplate())
	r.Register(InterpretationRulesTemplate())
	return r
}

// Register adds or replaces a template keyed by its id.
func (r *Registry) Register(template *models.MigrationTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[template.ID] = template
}

// Get returns the template with the given id, or ErrNotFound.
func (r *Registry) Get(id string) (*models.MigrationTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return template, nil
}

// List returns every registered template ordered by id.
func (r *Registry) List() []*models.MigrationTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.MigrationTemplate, 0, len(r.templates))
	for _, template := range r.templates {
		out = append(out, template)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
