// Package predict serves price predictions from a persisted model bundle.
package predict

import (
	"fmt"
	"math"
	"strings"

	"delhi-house-price/bundle"
	"delhi-house-price/dataset"
	"delhi-house-price/models"
	"delhi-house-price/pricing"
	"delhi-house-price/services"
	"delhi-house-price/storage"
	"delhi-house-price/utils"
)

// Sources of the Price_sqft feature of a single prediction.
const (
	SourceProvided  = "provided"
	SourceHeuristic = "heuristic"
)

// InputValidationError reports a missing or malformed request field.
type InputValidationError struct {
	Field   string
	Message string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Predictor wraps a loaded bundle. It is read-only after construction and
// safe for concurrent use.
type Predictor struct {
	logger    *utils.Logger
	bundle    *bundle.Bundle
	heuristic *pricing.Heuristic
	engineer  *services.FeatureEngineer

	// columns the bundle needs that a single request cannot supply
	unsupported []string
}

// New loads the bundle at modelPath. h fills Price_sqft for requests that
// omit it.
func New(modelPath string, h *pricing.Heuristic, logger *utils.Logger) (*Predictor, error) {
	b, err := bundle.Load(modelPath)
	if err != nil {
		return nil, err
	}
	logger.Info("[predictor] Loaded %s model from %s (heuristic %s)",
		b.Metadata.ModelName, modelPath, b.Metadata.HeuristicVersion)
	return NewFromBundle(b, h, logger)
}

// NewFromBundle builds a predictor around an already loaded bundle.
func NewFromBundle(b *bundle.Bundle, h *pricing.Heuristic, logger *utils.Logger) (*Predictor, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if v := b.Metadata.HeuristicVersion; v != "" && v != h.Version {
		logger.Warn("[predictor] Bundle was trained with heuristic %s, serving %s", v, h.Version)
	}

	known := make(map[string]bool)
	for _, c := range models.FeatureRowColumns() {
		known[c] = true
	}
	var unsupported []string
	for _, c := range b.Transform.InputColumns() {
		if !known[c] {
			unsupported = append(unsupported, c)
		}
	}
	if len(unsupported) > 0 {
		logger.Warn("[predictor] Single predictions disabled: model expects columns %v", unsupported)
	}

	return &Predictor{
		logger:      logger,
		bundle:      b,
		heuristic:   h,
		engineer:    services.NewFeatureEngineer(logger),
		unsupported: unsupported,
	}, nil
}

// Metadata returns the metadata of the served bundle.
func (p *Predictor) Metadata() bundle.Metadata {
	return p.bundle.Metadata
}

// Predict returns one price per row of an engineered feature table.
func (p *Predictor) Predict(df *dataset.Frame) ([]float64, error) {
	return p.bundle.Predict(df)
}

// PredictSingle validates a request, builds its feature row with the
// training-time derivations and predicts its price. A missing price_sqft is
// estimated with the heuristic.
func (p *Predictor) PredictSingle(req models.PredictionRequest) (*models.PredictionResult, error) {
	if len(p.unsupported) > 0 {
		return nil, fmt.Errorf("predict: model expects columns %v that a request cannot supply", p.unsupported)
	}
	row, err := buildRow(req)
	if err != nil {
		return nil, err
	}

	res := &models.PredictionResult{PriceSqftSource: SourceProvided}
	if req.PriceSqft != nil {
		row.PriceSqft = *req.PriceSqft
		res.Region = p.heuristic.RegionName(row.Latitude, row.Longitude)
	} else {
		est := p.heuristic.Estimate(row)
		row.PriceSqft = est.Rate
		res.PriceSqftSource = SourceHeuristic
		res.Region = est.Region
		p.logger.Debug("[predictor] Heuristic rate %.2f for %s (base %.0f, clamped %v)",
			est.Rate, est.Region, est.BaseRate, est.Clamped)
	}
	row = services.EngineerRow(row)

	preds, err := p.Predict(rowFrame(row))
	if err != nil {
		return nil, err
	}
	res.PredictedPrice = preds[0]
	res.PriceSqft = row.PriceSqft
	res.FormattedPrice = pricing.FormatINR(res.PredictedPrice)
	return res, nil
}

// PredictBatch engineers features for every row of df, fills a missing
// Price_sqft column with the heuristic and returns a copy of df with a
// predicted_price column appended.
func (p *Predictor) PredictBatch(df *dataset.Frame) (*dataset.Frame, error) {
	if df.Len() == 0 {
		return nil, fmt.Errorf("predict: empty input table")
	}
	work := p.engineer.Engineer(df)
	if !work.Has(models.ColPriceSqft) {
		rates := make([]float64, work.Len())
		for i := range rates {
			rates[i] = p.heuristic.Rate(rowAt(work, i))
		}
		_ = work.SetNumeric(models.ColPriceSqft, rates)
		p.logger.Info("[predictor] Filled %s for %d rows with heuristic %s", models.ColPriceSqft, len(rates), p.heuristic.Version)
	}

	preds, err := p.Predict(work)
	if err != nil {
		return nil, err
	}
	out := df.Clone()
	if err := out.SetNumeric(models.ColPredictedPrice, preds); err != nil {
		return nil, err
	}
	return out, nil
}

// PredictBatchFile reads a CSV table, predicts every row and writes the
// augmented table to outPath. It returns the number of rows written.
func (p *Predictor) PredictBatchFile(inPath, outPath string) (int, error) {
	df, err := dataset.LoadCSV(inPath)
	if err != nil {
		return 0, err
	}
	w, err := storage.NewCSVWriter(outPath)
	if err != nil {
		return 0, err
	}
	n, err := p.PredictBatchTo(df, w)
	if err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	p.logger.Info("[predictor] Wrote %d predictions to %s", n, w.Path())
	return n, nil
}

// PredictBatchTo predicts every row of df and hands the augmented table to
// w. The caller owns w and closes it.
func (p *Predictor) PredictBatchTo(df *dataset.Frame, w storage.FrameWriter) (int, error) {
	out, err := p.PredictBatch(df)
	if err != nil {
		return 0, err
	}
	if err := w.WriteFrame(out); err != nil {
		return 0, err
	}
	return out.Len(), nil
}

// buildRow checks required fields and applies the documented defaults to
// optional ones: zero for counts and "Unknown" for categories.
func buildRow(req models.PredictionRequest) (models.FeatureRow, error) {
	var row models.FeatureRow
	var err error

	if row.Area, err = required("area", req.Area); err != nil {
		return row, err
	}
	if row.Area <= 0 {
		return row, &InputValidationError{Field: "area", Message: "must be greater than zero"}
	}
	if row.Latitude, err = required("latitude", req.Latitude); err != nil {
		return row, err
	}
	if row.Latitude < -90 || row.Latitude > 90 {
		return row, &InputValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if row.Longitude, err = required("longitude", req.Longitude); err != nil {
		return row, err
	}
	if row.Longitude < -180 || row.Longitude > 180 {
		return row, &InputValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	if row.Bedrooms, err = requiredCount("bedrooms", req.Bedrooms); err != nil {
		return row, err
	}
	if row.Bathrooms, err = requiredCount("bathrooms", req.Bathrooms); err != nil {
		return row, err
	}
	if row.Balcony, err = optionalCount("balcony", req.Balcony); err != nil {
		return row, err
	}
	if row.Parking, err = optionalCount("parking", req.Parking); err != nil {
		return row, err
	}
	if row.Lift, err = optionalCount("lift", req.Lift); err != nil {
		return row, err
	}
	if req.PriceSqft != nil {
		if v := *req.PriceSqft; !finite(v) || v <= 0 {
			return row, &InputValidationError{Field: "price_sqft", Message: "must be a positive number"}
		}
	}

	row.Status = category(req.Status)
	row.NewOrOld = category(req.NewOrOld)
	row.Furnished = category(req.FurnishedStatus)
	row.BuildingType = category(req.TypeOfBuilding)
	return row, nil
}

func required(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, &InputValidationError{Field: field, Message: "is required"}
	}
	if !finite(*v) {
		return 0, &InputValidationError{Field: field, Message: "must be a finite number"}
	}
	return *v, nil
}

func requiredCount(field string, v *float64) (float64, error) {
	n, err := required(field, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &InputValidationError{Field: field, Message: "must not be negative"}
	}
	return n, nil
}

func optionalCount(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, nil
	}
	return requiredCount(field, v)
}

func category(v *string) string {
	if v == nil {
		return models.UnknownCategory
	}
	if s := strings.TrimSpace(*v); s != "" {
		return s
	}
	return models.UnknownCategory
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// rowFrame lays a feature row out as a one-row table in dataset column
// order.
func rowFrame(r models.FeatureRow) *dataset.Frame {
	nums := r.NumericValues()
	cats := r.CategoricalValues()
	f := dataset.New(1)
	for _, name := range models.FeatureRowColumns() {
		if v, ok := nums[name]; ok {
			_ = f.SetNumeric(name, []float64{v})
		} else {
			_ = f.SetCategorical(name, []string{cats[name]})
		}
	}
	return f
}

// rowAt reads the heuristic inputs of row i. Absent columns read as missing.
func rowAt(df *dataset.Frame, i int) models.FeatureRow {
	num := func(name string) float64 {
		c, ok := df.Column(name)
		if !ok {
			return math.NaN()
		}
		if c.Kind == dataset.Numeric {
			return c.Nums[i]
		}
		return math.NaN()
	}
	cat := func(name string) string {
		if c, ok := df.Column(name); ok {
			return c.Cell(i)
		}
		return ""
	}
	return models.FeatureRow{
		Area:         num(models.ColArea),
		Latitude:     num(models.ColLatitude),
		Longitude:    num(models.ColLongitude),
		Bedrooms:     num(models.ColBedrooms),
		Bathrooms:    num(models.ColBathrooms),
		Balcony:      num(models.ColBalcony),
		Status:       cat(models.ColStatus),
		NewOrOld:     cat(models.ColNewOrOld),
		Parking:      num(models.ColParking),
		Furnished:    cat(models.ColFurnished),
		Lift:         num(models.ColLift),
		BuildingType: cat(models.ColBuildingType),
	}
}
