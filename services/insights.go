package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"delhi-house-price/dataset"
	"delhi-house-price/models"
	"delhi-house-price/utils"
)

// RegionLocator names the pricing region containing a coordinate.
type RegionLocator interface {
	RegionName(latitude, longitude float64) string
}

// InsightService builds and prints the dataset and model reports.
type InsightService struct {
	logger  *utils.Logger
	locator RegionLocator
}

// NewInsightService creates an InsightService. A nil locator skips the
// per-region counts.
func NewInsightService(logger *utils.Logger, locator RegionLocator) *InsightService {
	return &InsightService{logger: logger, locator: locator}
}

// Generate summarizes a cleaned listing table.
func (s *InsightService) Generate(df *dataset.Frame, stats CleanStats) *models.InsightReport {
	report := &models.InsightReport{
		RawListings:      stats.InputRows,
		MeanPriceBefore:  stats.MeanPriceBefore,
		ListingsByType:   make(map[string]int),
		ListingsByRegion: make(map[string]int),
	}

	if df == nil || df.Len() == 0 {
		return report
	}
	report.TotalListings = df.Len()

	if prices, err := df.Numeric(models.ColPrice); err == nil {
		if present := nonMissing(prices); len(present) > 0 {
			report.AveragePrice = round2(stat.Mean(present, nil))
			report.MinPrice = round2(floats.Min(present))
			report.MaxPrice = round2(floats.Max(present))
		}
	}

	if sqft, err := df.Numeric(models.ColPriceSqft); err == nil {
		if m := nanMean(sqft); !math.IsNaN(m) {
			report.AveragePriceSqft = round2(m)
		}
	}

	if c, ok := df.Column(models.ColBuildingType); ok && c.Kind == dataset.Categorical {
		for i := 0; i < df.Len(); i++ {
			name := c.Strs[i]
			if name == "" {
				name = models.UnknownCategory
			}
			report.ListingsByType[name]++
		}
	}

	lat, errLat := df.Numeric(models.ColLatitude)
	lon, errLon := df.Numeric(models.ColLongitude)
	if s.locator != nil && errLat == nil && errLon == nil {
		for i := range lat {
			report.ListingsByRegion[s.locator.RegionName(lat[i], lon[i])]++
		}
	}

	return report
}

// Print renders the dataset report to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 DELHI NCR LISTING INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Raw listings           : \033[1m%d\033[0m\n", r.RawListings)
	fmt.Printf("  Listings after cleaning: \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Println()

	fmt.Printf("\033[1;33m  Price Statistics (inflation adjusted)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Mean price (raw)   : %.2f Lac\n", r.MeanPriceBefore/1e5)
		fmt.Printf("  Average price      : \033[1;32m%.2f Lac\033[0m\n", r.AveragePrice/1e5)
		fmt.Printf("  Minimum price      : \033[1;32m%.2f Lac\033[0m\n", r.MinPrice/1e5)
		fmt.Printf("  Maximum price      : \033[1;32m%.2f Lac\033[0m\n", r.MaxPrice/1e5)
		fmt.Printf("  Average price/sqft : \033[1;32m%.2f\033[0m\n", r.AveragePriceSqft)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	printCounts("Listings by Building Type", r.ListingsByType, thin)
	printCounts("Listings by Region", r.ListingsByRegion, thin)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintComparison prints the evaluation table sorted by test R², best first.
func (s *InsightService) PrintComparison(results []models.EvaluationResult, best string) {
	sorted := append([]models.EvaluationResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TestR2 > sorted[j].TestR2
	})

	thin := strings.Repeat("─", 96)
	fmt.Printf("\n\033[1;33m  Model Comparison\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  %-20s %14s %14s %14s %14s %8s %8s\n",
		"Model", "Train RMSE", "Test RMSE", "Train MAE", "Test MAE", "Train R²", "Test R²")
	for _, r := range sorted {
		marker := " "
		if r.ModelName == best {
			marker = "🏆"
		}
		fmt.Printf("%s %-20s %14.2f %14.2f %14.2f %14.2f %8.4f %8.4f\n",
			marker, truncate(r.ModelName, 20), r.TrainRMSE, r.TestRMSE, r.TrainMAE, r.TestMAE, r.TrainR2, r.TestR2)
	}
	fmt.Println()
}

// PrintImportances prints a ranked feature importance report.
func (s *InsightService) PrintImportances(items []models.FeatureImportance) {
	if len(items) == 0 {
		return
	}
	thin := strings.Repeat("─", 54)
	fmt.Printf("\033[1;33m  Top Feature Importances (%s)\033[0m\n", items[0].ModelName)
	fmt.Printf("  %s\n", thin)
	for i, it := range items {
		bar := strings.Repeat("█", int(math.Round(it.Importance*40)))
		fmt.Printf("  %2d. %-32s %6.4f %s\n", i+1, truncate(it.Feature, 32), it.Importance, bar)
	}
	fmt.Println()
}

func printCounts(title string, counts map[string]int, thin string) {
	fmt.Printf("\033[1;33m  %s\033[0m\n", title)
	fmt.Printf("  %s\n", thin)
	if len(counts) == 0 {
		fmt.Printf("  No data\n\n")
		return
	}

	type nameCount struct {
		name  string
		count int
	}
	var rows []nameCount
	for name, cnt := range counts {
		rows = append(rows, nameCount{name, cnt})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})
	for _, r := range rows {
		fmt.Printf("  %-30s %d\n", truncate(r.name, 28), r.count)
	}
	fmt.Println()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
