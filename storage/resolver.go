package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"listings-service/models"
)

// ErrNoAttributes is returned when an entity has no attribute present at all,
// leaving nothing to match or store.
var ErrNoAttributes = errors.New("no attributes to resolve")

// txUnit implements UnitOfWork on top of a single database transaction.
type txUnit struct {
	tx *sql.Tx
}

func (u *txUnit) Commit() error {
	return u.tx.Commit()
}

func (u *txUnit) Rollback() error {
	return u.tx.Rollback()
}

// attrs collects the present (non-nil) attributes of an entity. Absent
// attributes act as wildcards during matching and become NULL on insert.
type attrs struct {
	cols []string
	vals []any
}

func add[T any](a *attrs, col string, v *T) {
	if v == nil {
		return
	}
	a.cols = append(a.cols, col)
	a.vals = append(a.vals, *v)
}

// getOrCreate finds an existing row matching every present attribute exactly,
// or inserts a new row holding just those attributes. When several stored rows
// match, the lowest identifier wins, so repeated runs resolve identically.
func (u *txUnit) getOrCreate(ctx context.Context, table, idCol string, a *attrs) (int64, error) {
	if len(a.cols) == 0 {
		return 0, ErrNoAttributes
	}

	conds := make([]string, len(a.cols))
	placeholders := make([]string, len(a.cols))
	for i, col := range a.cols {
		conds[i] = fmt.Sprintf("%s = $%d", col, i+1)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	find := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT 1",
		idCol, table, strings.Join(conds, " AND "), idCol)

	var id int64
	err := u.tx.QueryRowContext(ctx, find, a.vals...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: find: %w", table, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, strings.Join(a.cols, ", "), strings.Join(placeholders, ", "), idCol)

	if err := u.tx.QueryRowContext(ctx, insert, a.vals...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: insert: %w", table, err)
	}
	return id, nil
}

func (u *txUnit) ResolveLocation(ctx context.Context, loc *models.Location) (int64, error) {
	a := &attrs{}
	add(a, "city", loc.City)
	add(a, "locality", loc.Locality)
	add(a, "city_district", loc.CityDistrict)
	add(a, "street", loc.Street)
	add(a, "full_address", loc.FullAddress)
	add(a, "latitude", loc.Latitude)
	add(a, "longitude", loc.Longitude)
	return u.getOrCreate(ctx, "location", "location_id", a)
}

func (u *txUnit) ResolveBuilding(ctx context.Context, b *models.Building) (int64, error) {
	a := &attrs{}
	add(a, "year_built", b.YearBuilt)
	add(a, "building_type", b.BuildingType)
	add(a, "floor", b.Floor)
	return u.getOrCreate(ctx, "building", "building_id", a)
}

func (u *txUnit) ResolveOwner(ctx context.Context, o *models.Owner) (int64, error) {
	a := &attrs{}
	add(a, "owner_type", o.OwnerType)
	add(a, "contact_name", o.ContactName)
	add(a, "contact_phone", o.ContactPhone)
	add(a, "contact_email", o.ContactEmail)
	return u.getOrCreate(ctx, "owner", "owner_id", a)
}

func (u *txUnit) ResolveFeatures(ctx context.Context, f *models.Features) (int64, error) {
	a := &attrs{}
	add(a, "has_basement", f.HasBasement)
	add(a, "has_parking", f.HasParking)
	add(a, "kitchen_type", f.KitchenType)
	add(a, "window_type", f.WindowType)
	add(a, "ownership_type", f.OwnershipType)
	add(a, "equipment", f.Equipment)
	return u.getOrCreate(ctx, "features", "features_id", a)
}
