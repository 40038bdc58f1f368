//go:build nogbt

package estimator

import "fmt"

// Binaries built with the nogbt tag keep the provider listed so the trainer
// can report that it was skipped.
func gradientBoostingProvider() Provider {
	return Provider{
		Name: "Gradient Boosting",
		New:  func(o Options) Regressor { return NewGradientBoosting(o) },
		Available: func() error {
			return fmt.Errorf("%w: built with the nogbt tag", ErrUnavailable)
		},
	}
}
