//go:build !nogbt

package estimator

func gradientBoostingProvider() Provider {
	return Provider{
		Name:      "Gradient Boosting",
		New:       func(o Options) Regressor { return NewGradientBoosting(o) },
		Available: func() error { return nil },
	}
}
