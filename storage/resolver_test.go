package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings-service/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}, mock
}

func beginUnit(t *testing.T, s *Store, mock sqlmock.Sqlmock) UnitOfWork {
	t.Helper()
	mock.ExpectBegin()
	uow, err := s.Begin(context.Background())
	require.NoError(t, err)
	return uow
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestResolveLocationFindsExisting(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	// only present attributes appear in the predicate; ties break on lowest id
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT location_id FROM location WHERE city = $1 AND street = $2 ORDER BY location_id LIMIT 1",
	)).WithArgs("Warszawa", "ul. Mehoffera").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(7))

	id, err := uow.ResolveLocation(context.Background(), &models.Location{
		City:   strPtr("Warszawa"),
		Street: strPtr("ul. Mehoffera"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveLocationInsertsOnMiss(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT location_id FROM location WHERE city = $1 ORDER BY location_id LIMIT 1",
	)).WithArgs("Warszawa").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO location (city) VALUES ($1) RETURNING location_id",
	)).WithArgs("Warszawa").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(42))

	id, err := uow.ResolveLocation(context.Background(), &models.Location{City: strPtr("Warszawa")})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBuildingUsesPresentAttributes(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT building_id FROM building WHERE year_built = $1 AND floor = $2 ORDER BY building_id LIMIT 1",
	)).WithArgs(2005, 3).
		WillReturnRows(sqlmock.NewRows([]string{"building_id"}).AddRow(5))

	id, err := uow.ResolveBuilding(context.Background(), &models.Building{
		YearBuilt: intPtr(2005),
		Floor:     intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveFailsWithoutAttributes(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	_, err := uow.ResolveOwner(context.Background(), &models.Owner{})
	assert.ErrorIs(t, err, ErrNoAttributes)

	_, err = uow.ResolveFeatures(context.Background(), &models.Features{})
	assert.ErrorIs(t, err, ErrNoAttributes)
}

func TestResolveIdempotentWithinRun(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	find := regexp.QuoteMeta(
		"SELECT owner_id FROM owner WHERE owner_type = $1 ORDER BY owner_id LIMIT 1")

	// first call creates, second call finds the created row
	mock.ExpectQuery(find).WithArgs("private").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO owner (owner_type) VALUES ($1) RETURNING owner_id",
	)).WithArgs("private").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(9))
	mock.ExpectQuery(find).WithArgs("private").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(9))

	owner := &models.Owner{OwnerType: strPtr("private")}
	first, err := uow.ResolveOwner(context.Background(), owner)
	require.NoError(t, err)
	second, err := uow.ResolveOwner(context.Background(), &models.Owner{OwnerType: strPtr("private")})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveFeaturesWithBooleans(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	yes := true
	no := false
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT features_id FROM features WHERE has_basement = $1 AND has_parking = $2 AND kitchen_type = $3 ORDER BY features_id LIMIT 1",
	)).WithArgs(false, true, "aneks").
		WillReturnRows(sqlmock.NewRows([]string{"features_id"}).AddRow(3))

	id, err := uow.ResolveFeatures(context.Background(), &models.Features{
		HasBasement: &no,
		HasParking:  &yes,
		KitchenType: strPtr("aneks"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolvePropagatesQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	mock.ExpectQuery("SELECT location_id FROM location").
		WillReturnError(assert.AnError)

	_, err := uow.ResolveLocation(context.Background(), &models.Location{City: strPtr("Warszawa")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location: find")
}

func TestResolveLocationWithCoordinates(t *testing.T) {
	s, mock := newMockStore(t)
	uow := beginUnit(t, s, mock)

	lat := decimal.RequireFromString("52.2297")
	lon := decimal.RequireFromString("21.0122")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT location_id FROM location WHERE latitude = $1 AND longitude = $2 ORDER BY location_id LIMIT 1",
	)).WithArgs(lat, lon).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO location (latitude, longitude) VALUES ($1, $2) RETURNING location_id",
	)).WithArgs(lat, lon).
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(11))

	id, err := uow.ResolveLocation(context.Background(), &models.Location{Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
