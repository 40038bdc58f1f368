package services

import (
	"delhi-house-price/dataset"
	"delhi-house-price/models"
	"delhi-house-price/utils"
)

// FeatureEngineer derives secondary features from a cleaned listing table.
type FeatureEngineer struct {
	logger *utils.Logger
}

// NewFeatureEngineer creates a FeatureEngineer with the given logger.
func NewFeatureEngineer(logger *utils.Logger) *FeatureEngineer {
	return &FeatureEngineer{logger: logger}
}

// Engineer returns a copy of df with the derived columns added. It never
// removes columns, and running it on its own output yields the same table.
//
//   - Price_sqft = price / area, only when Price_sqft is absent
//   - total_rooms = Bedrooms + Bathrooms
//   - bed_bath_ratio = Bedrooms / (Bathrooms + 1)
//   - has_parking, has_lift, has_balcony = 1 when the count is > 0, else 0
func (e *FeatureEngineer) Engineer(df *dataset.Frame) *dataset.Frame {
	out := df.Clone()
	added := 0

	if !out.Has(models.ColPriceSqft) && out.HasNumeric(models.ColArea) && out.HasNumeric(models.ColPrice) {
		price, _ := out.Numeric(models.ColPrice)
		area, _ := out.Numeric(models.ColArea)
		vals := make([]float64, out.Len())
		for i := range vals {
			vals[i] = price[i] / area[i]
		}
		_ = out.SetNumeric(models.ColPriceSqft, vals)
		added++
	}

	if out.HasNumeric(models.ColBedrooms) && out.HasNumeric(models.ColBathrooms) {
		beds, _ := out.Numeric(models.ColBedrooms)
		baths, _ := out.Numeric(models.ColBathrooms)
		total := make([]float64, out.Len())
		ratio := make([]float64, out.Len())
		for i := range total {
			total[i] = TotalRooms(beds[i], baths[i])
			ratio[i] = BedBathRatio(beds[i], baths[i])
		}
		_ = out.SetNumeric(models.ColTotalRooms, total)
		_ = out.SetNumeric(models.ColBedBathRatio, ratio)
		added += 2
	}

	flags := []struct{ src, dst string }{
		{models.ColParking, models.ColHasParking},
		{models.ColLift, models.ColHasLift},
		{models.ColBalcony, models.ColHasBalcony},
	}
	for _, fl := range flags {
		src, err := out.Numeric(fl.src)
		if err != nil {
			continue
		}
		vals := make([]float64, out.Len())
		for i, v := range src {
			vals[i] = HasAmenity(v)
		}
		_ = out.SetNumeric(fl.dst, vals)
		added++
	}

	e.logger.Debug("[features] Engineered %d columns over %d rows", added, out.Len())
	return out
}

// TotalRooms is the bedroom plus bathroom count.
func TotalRooms(bedrooms, bathrooms float64) float64 {
	return bedrooms + bathrooms
}

// BedBathRatio is bedrooms / (bathrooms + 1); the +1 avoids division by zero.
func BedBathRatio(bedrooms, bathrooms float64) float64 {
	return bedrooms / (bathrooms + 1)
}

// HasAmenity returns 1 when count > 0 and 0 otherwise (including NaN).
func HasAmenity(count float64) float64 {
	if count > 0 {
		return 1
	}
	return 0
}

// EngineerRow builds the fully engineered feature row for one listing,
// applying the same derivations as Engineer.
func EngineerRow(r models.FeatureRow) models.FeatureRow {
	r.TotalRooms = TotalRooms(r.Bedrooms, r.Bathrooms)
	r.BedBathRatio = BedBathRatio(r.Bedrooms, r.Bathrooms)
	r.HasParking = HasAmenity(r.Parking)
	r.HasLift = HasAmenity(r.Lift)
	r.HasBalcony = HasAmenity(r.Balcony)
	return r
}
