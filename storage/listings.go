package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"listings-service/models"
)

// ListingExists reports whether a listing with the given URL is already stored.
func (u *txUnit) ListingExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := u.tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM listing WHERE url = $1)", url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("listing: exists: %w", err)
	}
	return exists, nil
}

// CreateListing inserts a new listing row and returns its identifier.
func (u *txUnit) CreateListing(ctx context.Context, l *models.Listing) (int64, error) {
	err := u.tx.QueryRowContext(ctx, `
		INSERT INTO listing (
			location_id, building_id, owner_id, features_id,
			rooms, area, price_total_zl, price_sqm_zl, price_per_sqm_detailed,
			date_posted, photo_count, url, image_url, description_text
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING listing_id`,
		l.LocationID, l.BuildingID, l.OwnerID, l.FeaturesID,
		l.Rooms, l.Area, l.PriceTotalZl, l.PriceSqmZl, l.PricePerSqmDetailed,
		l.DatePosted, l.PhotoCount, l.URL, l.ImageURL, l.Description,
	).Scan(&l.ID)
	if err != nil {
		return 0, fmt.Errorf("listing: insert: %w", err)
	}
	return l.ID, nil
}

// FilterParams are the optional listing filters exposed by the HTTP layer.
// Nil (or empty) fields are not applied.
type FilterParams struct {
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	PriceSqmMin  *decimal.Decimal
	PriceSqmMax  *decimal.Decimal
	Rooms        []int64
	City         *string
	CityDistrict *string
	Limit        int
	Offset       int
}

func (f FilterParams) conditions() ([]string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PriceMin != nil {
		conds = append(conds, "l.price_total_zl >= "+next(*f.PriceMin))
	}
	if f.PriceMax != nil {
		conds = append(conds, "l.price_total_zl <= "+next(*f.PriceMax))
	}
	if f.PriceSqmMin != nil {
		conds = append(conds, "l.price_sqm_zl >= "+next(*f.PriceSqmMin))
	}
	if f.PriceSqmMax != nil {
		conds = append(conds, "l.price_sqm_zl <= "+next(*f.PriceSqmMax))
	}
	if len(f.Rooms) > 0 {
		conds = append(conds, "l.rooms = ANY("+next(pq.Array(f.Rooms))+")")
	}
	if f.City != nil {
		conds = append(conds, "loc.city ILIKE "+next("%"+*f.City+"%"))
	}
	if f.CityDistrict != nil {
		conds = append(conds, "loc.city_district ILIKE "+next("%"+*f.CityDistrict+"%"))
	}
	return conds, args
}

// FilterListings returns the total number of listings matching the filters and
// one page of matches, each with its location populated.
func (s *Store) FilterListings(ctx context.Context, params FilterParams) (int, []*models.Listing, error) {
	conds, args := params.conditions()
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	from := ` FROM listing l JOIN location loc ON l.location_id = loc.location_id`

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(l.listing_id)"+from+where, args...).Scan(&total)
	if err != nil {
		return 0, nil, fmt.Errorf("listing: count: %w", err)
	}

	query := `SELECT
			l.listing_id, l.rooms, l.area, l.price_total_zl, l.price_sqm_zl,
			loc.location_id, loc.city, loc.locality, loc.city_district, loc.street, loc.full_address` +
		from + where +
		fmt.Sprintf(" ORDER BY l.listing_id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("listing: filter: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var (
			l     models.Listing
			loc   models.Location
			rooms sql.NullInt64
			area, priceTotal, priceSqm decimal.NullDecimal
			city, locality, district, street, fullAddr sql.NullString
		)
		if err := rows.Scan(
			&l.ID, &rooms, &area, &priceTotal, &priceSqm,
			&loc.ID, &city, &locality, &district, &street, &fullAddr,
		); err != nil {
			return 0, nil, fmt.Errorf("listing: scan: %w", err)
		}
		l.Rooms = nullInt(rooms)
		l.Area = nullDec(area)
		l.PriceTotalZl = nullDec(priceTotal)
		l.PriceSqmZl = nullDec(priceSqm)
		loc.City = nullStr(city)
		loc.Locality = nullStr(locality)
		loc.CityDistrict = nullStr(district)
		loc.Street = nullStr(street)
		loc.FullAddress = nullStr(fullAddr)
		l.LocationID = loc.ID
		l.Location = &loc
		listings = append(listings, &l)
	}
	return total, listings, rows.Err()
}

// SearchLocations returns locations whose city, district or locality matches
// the query, for autocomplete suggestions.
func (s *Store) SearchLocations(ctx context.Context, q string, limit int) ([]*models.Location, error) {
	pattern := "%" + q + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT location_id, city, locality, city_district, street, full_address
		FROM location
		WHERE city ILIKE $1 OR city_district ILIKE $1 OR locality ILIKE $1
		ORDER BY location_id
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("location: search: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		var (
			loc models.Location
			city, locality, district, street, fullAddr sql.NullString
		)
		if err := rows.Scan(&loc.ID, &city, &locality, &district, &street, &fullAddr); err != nil {
			return nil, fmt.Errorf("location: scan: %w", err)
		}
		loc.City = nullStr(city)
		loc.Locality = nullStr(locality)
		loc.CityDistrict = nullStr(district)
		loc.Street = nullStr(street)
		loc.FullAddress = nullStr(fullAddr)
		locations = append(locations, &loc)
	}
	return locations, rows.Err()
}

// FetchOffers loads the sortable subset of every listing for the offers
// endpoint; ordering beyond listing_id is applied in memory by the sorter.
func (s *Store) FetchOffers(ctx context.Context) ([]*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT listing_id, price_total_zl, price_sqm_zl, area, rooms, date_posted
		FROM listing
		ORDER BY listing_id`)
	if err != nil {
		return nil, fmt.Errorf("listing: fetch offers: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var (
			l          models.Listing
			priceTotal, priceSqm, area decimal.NullDecimal
			rooms      sql.NullInt64
			datePosted sql.NullTime
		)
		if err := rows.Scan(&l.ID, &priceTotal, &priceSqm, &area, &rooms, &datePosted); err != nil {
			return nil, fmt.Errorf("listing: scan offer: %w", err)
		}
		l.PriceTotalZl = nullDec(priceTotal)
		l.PriceSqmZl = nullDec(priceSqm)
		l.Area = nullDec(area)
		l.Rooms = nullInt(rooms)
		l.DatePosted = nullTime(datePosted)
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullDec(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	return &v.Decimal
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
