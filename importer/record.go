package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"listings-service/models"
)

// sourceRecord is one CSV row after normalization, grouped by the entity the
// attributes belong to. Nil fields were missing or unparsable in the source.
type sourceRecord struct {
	row int

	location models.Location
	building models.Building
	owner    models.Owner
	features models.Features

	rooms               *int
	area                *decimal.Decimal
	priceTotal          *decimal.Decimal
	priceSqm            *decimal.Decimal
	pricePerSqmDetailed *decimal.Decimal
	datePosted          *time.Time
	photoCount          *int
	url                 *string
	imageURL            *string
	description         *string
}

// normalizeRecord runs every field of a raw CSV row through its normalizer.
// Fields that fail normalization stay absent; the record itself never fails.
func normalizeRecord(row int, get func(string) string, now time.Time) *sourceRecord {
	return &sourceRecord{
		row: row,
		location: models.Location{
			City:         cleanString(get("city")),
			Locality:     cleanString(get("locality")),
			CityDistrict: cleanString(get("city_district")),
			Street:       cleanString(get("street")),
			FullAddress:  cleanString(get("full_address")),
			Latitude:     parseDecimal(get("latitude")),
			Longitude:    parseDecimal(get("longitude")),
		},
		building: models.Building{
			YearBuilt:    parseInt(get("year_built")),
			BuildingType: cleanString(get("building_type")),
			Floor:        parseFloor(get("floor")),
		},
		owner: models.Owner{
			OwnerType:    cleanString(get("owner_type")),
			ContactName:  cleanString(get("contact_name")),
			ContactPhone: cleanString(get("contact_phone")),
			ContactEmail: cleanString(get("contact_email")),
		},
		features: models.Features{
			HasBasement:   parseBool(get("has_basement")),
			HasParking:    parseBool(get("has_parking")),
			KitchenType:   cleanString(get("kitchen_type")),
			WindowType:    cleanString(get("window_type")),
			OwnershipType: cleanString(get("ownership_type")),
			Equipment:     cleanString(get("equipment")),
		},
		rooms:               parseInt(get("rooms")),
		area:                parseDecimal(get("area")),
		priceTotal:          parseDecimal(get("price_total_zl")),
		priceSqm:            parseDecimal(get("price_sqm_zl")),
		pricePerSqmDetailed: parseDecimal(get("price_per_sqm_detailed")),
		datePosted:          parseDate(get("date_posted"), now),
		photoCount:          parseInt(get("photo_count")),
		url:                 cleanString(get("url")),
		imageURL:            cleanString(get("image_url")),
		description:         cleanString(get("description_text")),
	}
}
