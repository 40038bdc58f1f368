package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal counts single-prediction requests.
	// Labels:
	//   - outcome: "success", "invalid", "error"
	//   - price_sqft_source: "provided", "heuristic", or "" when no prediction was made
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "houseprice_predictions_total",
			Help: "Total number of single-prediction requests",
		},
		[]string{"outcome", "price_sqft_source"},
	)

	// PredictionDuration measures request handling time of the predict endpoint.
	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "houseprice_prediction_duration_seconds",
			Help:    "Duration of single-prediction requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	// PredictedPrice tracks the distribution of predicted prices in rupees.
	PredictedPrice = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "houseprice_predicted_price_rupees",
			Help:    "Distribution of predicted listing prices",
			Buckets: prometheus.ExponentialBuckets(1e5, 2, 12),
		},
	)
)
