package models

import "time"

// Column names of the Delhi NCR listing dataset.
const (
	ColIndex        = "Unnamed: 0"
	ColPrice        = "price"
	ColArea         = "area"
	ColLatitude     = "latitude"
	ColLongitude    = "longitude"
	ColBedrooms     = "Bedrooms"
	ColBathrooms    = "Bathrooms"
	ColBalcony      = "Balcony"
	ColStatus       = "Status"
	ColNewOrOld     = "neworold"
	ColParking      = "parking"
	ColFurnished    = "Furnished_status"
	ColLift         = "Lift"
	ColBuildingType = "type_of_building"
	ColPriceSqft    = "Price_sqft"
	ColDescription  = "desc"
	ColAddress      = "Address"
	ColLandmarks    = "Landmarks"

	ColTotalRooms   = "total_rooms"
	ColBedBathRatio = "bed_bath_ratio"
	ColHasParking   = "has_parking"
	ColHasLift      = "has_lift"
	ColHasBalcony   = "has_balcony"

	ColPredictedPrice = "predicted_price"
)

// UnknownCategory fills missing categorical values, both at training time
// and for omitted optional fields of a prediction request.
const UnknownCategory = "Unknown"

// FeatureRow is one fully engineered listing as the model sees it at
// inference time. Its columns are exactly the feature columns produced by
// the training pipeline for the raw dataset (target excluded).
type FeatureRow struct {
	Area         float64
	Latitude     float64
	Longitude    float64
	Bedrooms     float64
	Bathrooms    float64
	Balcony      float64
	Status       string
	NewOrOld     string
	Parking      float64
	Furnished    string
	Lift         float64
	BuildingType string
	PriceSqft    float64

	TotalRooms   float64
	BedBathRatio float64
	HasParking   float64
	HasLift      float64
	HasBalcony   float64
}

// NumericValues returns the numeric columns of the row keyed by column name.
func (r FeatureRow) NumericValues() map[string]float64 {
	return map[string]float64{
		ColArea:         r.Area,
		ColLatitude:     r.Latitude,
		ColLongitude:    r.Longitude,
		ColBedrooms:     r.Bedrooms,
		ColBathrooms:    r.Bathrooms,
		ColBalcony:      r.Balcony,
		ColParking:      r.Parking,
		ColLift:         r.Lift,
		ColPriceSqft:    r.PriceSqft,
		ColTotalRooms:   r.TotalRooms,
		ColBedBathRatio: r.BedBathRatio,
		ColHasParking:   r.HasParking,
		ColHasLift:      r.HasLift,
		ColHasBalcony:   r.HasBalcony,
	}
}

// CategoricalValues returns the categorical columns of the row keyed by
// column name.
func (r FeatureRow) CategoricalValues() map[string]string {
	return map[string]string{
		ColStatus:       r.Status,
		ColNewOrOld:     r.NewOrOld,
		ColFurnished:    r.Furnished,
		ColBuildingType: r.BuildingType,
	}
}

// FeatureRowColumns lists the FeatureRow columns in dataset order.
func FeatureRowColumns() []string {
	return []string{
		ColArea, ColLatitude, ColLongitude, ColBedrooms, ColBathrooms, ColBalcony,
		ColStatus, ColNewOrOld, ColParking, ColFurnished, ColLift, ColBuildingType,
		ColPriceSqft, ColTotalRooms, ColBedBathRatio, ColHasParking, ColHasLift, ColHasBalcony,
	}
}

// PredictionRequest is the single-listing input accepted by the predictor.
// Required fields are pointers so that an omitted value can be told apart
// from zero.
type PredictionRequest struct {
	Area      *float64 `json:"area"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Bedrooms  *float64 `json:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms"`

	Balcony         *float64 `json:"balcony,omitempty"`
	Status          *string  `json:"status,omitempty"`
	NewOrOld        *string  `json:"neworold,omitempty"`
	Parking         *float64 `json:"parking,omitempty"`
	FurnishedStatus *string  `json:"furnished_status,omitempty"`
	Lift            *float64 `json:"lift,omitempty"`
	TypeOfBuilding  *string  `json:"type_of_building,omitempty"`
	PriceSqft       *float64 `json:"price_sqft,omitempty"`
}

// PredictionResult is returned for a single prediction.
type PredictionResult struct {
	PredictedPrice  float64 `json:"predicted_price"`
	FormattedPrice  string  `json:"formatted_price"`
	PriceSqft       float64 `json:"price_sqft"`
	PriceSqftSource string  `json:"price_sqft_source"`
	Region          string  `json:"region,omitempty"`
}

// EvaluationResult holds the train and test metrics of one fitted estimator.
type EvaluationResult struct {
	ModelName string
	TrainRMSE float64
	TrainMAE  float64
	TrainR2   float64
	TestRMSE  float64
	TestMAE   float64
	TestR2    float64
	FitTime   time.Duration
}

// FeatureImportance is one entry of a ranked importance report.
type FeatureImportance struct {
	ModelName  string
	Feature    string
	Importance float64
}

// TrainingRun summarizes one offline training run.
type TrainingRun struct {
	ID               int64
	RunID            string
	DataPath         string
	ModelPath        string
	BestModel        string
	HeuristicVersion string
	Seed             int64
	TrainRows        int
	TestRows         int
	Evaluations      []EvaluationResult
	CreatedAt        time.Time
}

// InsightReport holds summary statistics over the cleaned dataset.
type InsightReport struct {
	RawListings      int
	TotalListings    int
	MeanPriceBefore  float64
	AveragePrice     float64
	MinPrice         float64
	MaxPrice         float64
	AveragePriceSqft float64
	ListingsByType   map[string]int
	ListingsByRegion map[string]int
}
