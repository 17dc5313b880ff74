package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location is a normalized address shared by many listings.
// All attribute columns are optional; nil means the source omitted the field.
type Location struct {
	ID           int64
	City         *string
	Locality     *string
	CityDistrict *string
	Street       *string
	FullAddress  *string
	Latitude     *decimal.Decimal
	Longitude    *decimal.Decimal
}

// Building holds the structural attributes of the building a listing is in.
type Building struct {
	ID           int64
	YearBuilt    *int
	BuildingType *string
	Floor        *int
}

// Owner describes who posted the listing.
type Owner struct {
	ID           int64
	OwnerType    *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
}

// Features groups the amenity flags and descriptive attributes of a listing.
type Features struct {
	ID            int64
	HasBasement   *bool
	HasParking    *bool
	KitchenType   *string
	WindowType    *string
	OwnershipType *string
	Equipment     *string
}

// Listing is one imported advertisement. URL is the natural key: the store
// never holds two listings with the same URL.
type Listing struct {
	ID                  int64
	LocationID          int64
	BuildingID          int64
	OwnerID             int64
	FeaturesID          int64
	Rooms               *int
	Area                *decimal.Decimal
	PriceTotalZl        *decimal.Decimal
	PriceSqmZl          *decimal.Decimal
	PricePerSqmDetailed *decimal.Decimal
	DatePosted          *time.Time
	PhotoCount          *int
	URL                 string
	ImageURL            *string
	Description         *string

	// Populated by queries that join the location table; nil otherwise.
	Location *Location
}

// ImportFailure records one source row that could not be imported.
type ImportFailure struct {
	Row    int
	URL    string
	Reason string
}

// ImportReport summarizes a completed (or aborted) import run.
type ImportReport struct {
	TotalRead        int
	Imported         int
	SkippedDuplicate int
	SkippedNoURL     int
	SkippedEmpty     int
	Failed           int
	Failures         []ImportFailure
}
