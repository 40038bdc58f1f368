package services

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"delhi-house-price/dataset"
	"delhi-house-price/models"
	"delhi-house-price/utils"
)

// PriceInflation projects historical listing prices to the current market
// baseline (four years of appreciation). It is a fixed constant, not learned.
const PriceInflation = 1.4

// Percentile band kept by outlier trimming.
const (
	LowerPercentile = 0.01
	UpperPercentile = 0.99
)

// ErrMissingTarget is returned when the target column is absent from the
// input table. Training cannot proceed without it.
var ErrMissingTarget = errors.New("target column missing")

// droppedColumns are free text, over-specific identifiers, or
// high-cardinality columns with many missing values.
var droppedColumns = []string{
	models.ColIndex,
	models.ColDescription,
	models.ColAddress,
	models.ColLandmarks,
}

// CleanStats describes what a Clean call did to the table.
type CleanStats struct {
	InputRows       int
	MissingTarget   int
	PriceOutliers   int
	AreaOutliers    int
	OutputRows      int
	MeanPriceBefore float64
	MeanPriceAfter  float64
	PriceLow        float64
	PriceHigh       float64
	AreaLow         float64
	AreaHigh        float64
}

// Cleaner turns a raw listing table into a cleaned table ready for feature
// engineering.
type Cleaner struct {
	logger *utils.Logger
	target string
}

// NewCleaner creates a Cleaner for the price target with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, target: models.ColPrice}
}

// Clean applies, in order: the price inflation adjustment, column drops,
// removal of rows with a missing target, and percentile trimming of price
// and then area. The input frame is not modified.
func (c *Cleaner) Clean(raw *dataset.Frame) (*dataset.Frame, CleanStats, error) {
	stats := CleanStats{InputRows: raw.Len()}

	if !raw.Has(c.target) {
		return nil, stats, fmt.Errorf("[cleaner] %w: %q", ErrMissingTarget, c.target)
	}
	if !raw.HasNumeric(c.target) {
		return nil, stats, fmt.Errorf("[cleaner] target column %q is not numeric", c.target)
	}

	df := raw.Drop(droppedColumns...)

	prices, _ := df.Numeric(c.target)
	stats.MeanPriceBefore = nanMean(prices)
	c.adjustPrices(df)
	prices, _ = df.Numeric(c.target)
	stats.MeanPriceAfter = nanMean(prices)
	c.logger.Info("[cleaner] Price inflation x%.1f: mean %.2f Lac -> %.2f Lac",
		PriceInflation, stats.MeanPriceBefore/1e5, stats.MeanPriceAfter/1e5)

	before := df.Len()
	df = df.Filter(func(i int) bool { return !math.IsNaN(prices[i]) })
	stats.MissingTarget = before - df.Len()

	before = df.Len()
	df, stats.PriceLow, stats.PriceHigh = trimPercentiles(df, c.target)
	stats.PriceOutliers = before - df.Len()

	if df.HasNumeric(models.ColArea) {
		before = df.Len()
		df, stats.AreaLow, stats.AreaHigh = trimPercentiles(df, models.ColArea)
		stats.AreaOutliers = before - df.Len()
	}

	stats.OutputRows = df.Len()
	c.logger.Info("[cleaner] Cleaned %d -> %d listings (missing target %d, price outliers %d, area outliers %d)",
		stats.InputRows, stats.OutputRows, stats.MissingTarget, stats.PriceOutliers, stats.AreaOutliers)
	return df, stats, nil
}

// adjustPrices multiplies price and price-per-area by PriceInflation.
func (c *Cleaner) adjustPrices(df *dataset.Frame) {
	for _, name := range []string{c.target, models.ColPriceSqft} {
		vals, err := df.Numeric(name)
		if err != nil {
			continue
		}
		adjusted := make([]float64, len(vals))
		for i, v := range vals {
			adjusted[i] = v * PriceInflation
		}
		_ = df.SetNumeric(name, adjusted)
	}
}

// trimPercentiles keeps the rows whose value in col lies within the
// [LowerPercentile, UpperPercentile] band of that column, measured on df.
// Rows with a missing value are dropped.
func trimPercentiles(df *dataset.Frame, col string) (*dataset.Frame, float64, float64) {
	vals, _ := df.Numeric(col)
	lo := dataset.Quantile(vals, LowerPercentile)
	hi := dataset.Quantile(vals, UpperPercentile)
	out := df.Filter(func(i int) bool {
		v := vals[i]
		return v >= lo && v <= hi
	})
	return out, lo, hi
}

// nanMean averages the non-missing values; it is NaN when there are none.
func nanMean(vals []float64) float64 {
	present := nonMissing(vals)
	if len(present) == 0 {
		return math.NaN()
	}
	return stat.Mean(present, nil)
}

func nonMissing(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
