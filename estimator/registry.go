package estimator

import (
	"fmt"
	"strings"
)

// Provider builds one kind of estimator. Available reports whether the
// estimator can be constructed in this binary; a non-nil error makes the
// trainer skip the provider with a warning.
type Provider struct {
	Name      string
	New       func(Options) Regressor
	Available func() error
}

// Registry is an ordered set of providers. Order decides the winner when two
// estimators tie on test R².
type Registry struct {
	providers []Provider
}

// NewRegistry returns a registry holding the given providers in order.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: append([]Provider(nil), providers...)}
}

// DefaultRegistry returns the production line-up: linear regression, random
// forest and, when compiled in, gradient boosting.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Provider{
			Name:      "Linear Regression",
			New:       func(Options) Regressor { return NewLinearRegression() },
			Available: func() error { return nil },
		},
		Provider{
			Name:      "Random Forest",
			New:       func(o Options) Regressor { return NewRandomForest(o) },
			Available: func() error { return nil },
		},
		gradientBoostingProvider(),
	)
}

// Providers returns the registered providers in order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// Disable marks the named providers unavailable. Names match
// case-insensitively; unknown names are an error.
func (r *Registry) Disable(names ...string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for i := range r.providers {
			if strings.EqualFold(r.providers[i].Name, name) {
				r.providers[i].Available = func() error {
					return fmt.Errorf("%w: disabled by configuration", ErrUnavailable)
				}
				found = true
			}
		}
		if !found {
			return fmt.Errorf("estimator: unknown estimator %q", name)
		}
	}
	return nil
}
