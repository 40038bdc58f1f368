// Package pricing estimates a listing's price per square foot from its
// location and amenities, and formats rupee amounts for display.
//
// The estimate fills the Price_sqft model feature for callers that do not
// know it. It is a proxy, not a valuation: it biases every prediction made
// without a supplied price per square foot, so it carries a Version that is
// recorded in the model bundle.
package pricing

import (
	"math"
	"strings"

	"delhi-house-price/models"
)

// Version identifies the built-in region table and adjustment stack.
const Version = "ncr-2024.1"

// Region is an inclusive latitude/longitude box with a base rate in rupees
// per square foot.
type Region struct {
	Name   string  `yaml:"name"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
	Rate   float64 `yaml:"rate"`
}

// Contains reports whether the coordinate lies inside the box.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon
}

// DefaultRegionName is reported for coordinates outside every region.
const DefaultRegionName = "Other NCR"

// NCRRegions is the ordered Delhi NCR region table. Boxes overlap; the first
// matching region wins.
var NCRRegions = []Region{
	{Name: "South Delhi", MinLat: 28.50, MaxLat: 28.60, MinLon: 77.15, MaxLon: 77.30, Rate: 8000},
	{Name: "Central Delhi", MinLat: 28.60, MaxLat: 28.68, MinLon: 77.18, MaxLon: 77.25, Rate: 7500},
	{Name: "Gurgaon", MinLat: 28.35, MaxLat: 28.50, MinLon: 76.95, MaxLon: 77.10, Rate: 7000},
	{Name: "West Delhi", MinLat: 28.55, MaxLat: 28.65, MinLon: 77.00, MaxLon: 77.15, Rate: 5500},
	{Name: "North Delhi", MinLat: 28.65, MaxLat: 28.72, MinLon: 77.10, MaxLon: 77.25, Rate: 6000},
	{Name: "Noida", MinLat: 28.50, MaxLat: 28.62, MinLon: 77.30, MaxLon: 77.48, Rate: 5800},
	{Name: "Greater Noida", MinLat: 28.45, MaxLat: 28.62, MinLon: 77.40, MaxLon: 77.55, Rate: 4500},
	{Name: "Ghaziabad", MinLat: 28.62, MaxLat: 28.70, MinLon: 77.35, MaxLon: 77.45, Rate: 5200},
	{Name: "Faridabad", MinLat: 28.35, MaxLat: 28.45, MinLon: 77.25, MaxLon: 77.35, Rate: 4800},
}

// Heuristic is a configured price-per-square-foot estimator.
type Heuristic struct {
	Version     string   `yaml:"version"`
	Regions     []Region `yaml:"regions"`
	DefaultRate float64  `yaml:"default_rate"`
	MinRate     float64  `yaml:"min_rate"`
	MaxRate     float64  `yaml:"max_rate"`
}

// Default returns the built-in heuristic of the current Version.
func Default() *Heuristic {
	return &Heuristic{
		Version:     Version,
		Regions:     append([]Region(nil), NCRRegions...),
		DefaultRate: 5000,
		MinRate:     3000,
		MaxRate:     15000,
	}
}

// Step is one applied multiplier.
type Step struct {
	Name   string
	Factor float64
}

// Estimate is the outcome of the heuristic for one listing.
type Estimate struct {
	Region   string
	BaseRate float64
	Steps    []Step
	Rate     float64
	Clamped  bool
}

// Locate returns the first region containing the coordinate. ok is false
// when none does or a coordinate is not finite.
func (h *Heuristic) Locate(lat, lon float64) (Region, bool) {
	if !finite(lat) || !finite(lon) {
		return Region{}, false
	}
	for _, r := range h.Regions {
		if r.Contains(lat, lon) {
			return r, true
		}
	}
	return Region{}, false
}

// RegionName returns the name of the region containing the coordinate, or
// DefaultRegionName.
func (h *Heuristic) RegionName(lat, lon float64) string {
	if r, ok := h.Locate(lat, lon); ok {
		return r.Name
	}
	return DefaultRegionName
}

// Rate returns the clamped price per square foot for the listing.
func (h *Heuristic) Rate(row models.FeatureRow) float64 {
	return h.Estimate(row).Rate
}

// Estimate computes the base rate of the listing's region, applies the
// adjustment stack in order and clamps the result. It never fails; unusable
// counts contribute no premium.
func (h *Heuristic) Estimate(row models.FeatureRow) Estimate {
	est := Estimate{Region: DefaultRegionName, BaseRate: h.DefaultRate}
	if r, ok := h.Locate(row.Latitude, row.Longitude); ok {
		est.Region = r.Name
		est.BaseRate = r.Rate
	}

	rate := est.BaseRate
	for _, s := range adjustments(row) {
		est.Steps = append(est.Steps, s)
		rate *= s.Factor
	}

	switch {
	case rate < h.MinRate:
		rate, est.Clamped = h.MinRate, true
	case rate > h.MaxRate:
		rate, est.Clamped = h.MaxRate, true
	}
	est.Rate = rate
	return est
}

// adjustments returns the multiplier stack in application order.
func adjustments(row models.FeatureRow) []Step {
	building := 1.0
	switch normalize(row.BuildingType) {
	case "individual house", "villa":
		building = 1.20
	case "builder floor":
		building = 0.95
	}

	furnishing := 1.0
	switch normalize(row.Furnished) {
	case "furnished":
		furnishing = 1.10
	case "semi-furnished":
		furnishing = 1.05
	}

	newness := 1.0
	if normalize(row.NewOrOld) == "new property" {
		newness = 1.05
	}

	readiness := 1.0
	if normalize(row.Status) == "ready to move" {
		readiness = 1.03
	}

	lift := 1.0
	if count(row.Lift) > 0 {
		lift = 1.02
	}

	bedrooms := 1.0
	switch b := count(row.Bedrooms); {
	case b >= 4:
		bedrooms = 1.05
	case b == 3:
		bedrooms = 1.02
	}

	bathrooms := 1.0
	if count(row.Bathrooms) >= 3 {
		bathrooms = 1.02
	}

	return []Step{
		{Name: "building type", Factor: building},
		{Name: "furnishing", Factor: furnishing},
		{Name: "new or resale", Factor: newness},
		{Name: "readiness", Factor: readiness},
		{Name: "parking", Factor: 1 + 0.02*math.Min(count(row.Parking), 3)},
		{Name: "lift", Factor: lift},
		{Name: "balcony", Factor: 1 + 0.01*math.Min(count(row.Balcony), 3)},
		{Name: "bedrooms", Factor: bedrooms},
		{Name: "bathrooms", Factor: bathrooms},
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// count maps missing and negative counts to zero.
func count(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
