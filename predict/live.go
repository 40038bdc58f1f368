package predict

import (
	"sync/atomic"

	"delhi-house-price/bundle"
	"delhi-house-price/models"
)

// Live serves from whichever Predictor was stored last. A retrain swaps in
// the new model without interrupting in-flight requests.
type Live struct {
	current atomic.Pointer[Predictor]
}

// NewLive returns a Live serving p.
func NewLive(p *Predictor) *Live {
	l := &Live{}
	l.current.Store(p)
	return l
}

// Swap replaces the served predictor.
func (l *Live) Swap(p *Predictor) {
	l.current.Store(p)
}

// Current returns the served predictor.
func (l *Live) Current() *Predictor {
	return l.current.Load()
}

// PredictSingle predicts with the current predictor.
func (l *Live) PredictSingle(req models.PredictionRequest) (*models.PredictionResult, error) {
	return l.Current().PredictSingle(req)
}

// Metadata returns the metadata of the current bundle.
func (l *Live) Metadata() bundle.Metadata {
	return l.Current().Metadata()
}
