package storage

import (
	"context"

	"listings-service/models"
)

// UnitOfWork is one transactional import scope: everything done through it is
// committed or rolled back as a whole.
type UnitOfWork interface {
	ListingExists(ctx context.Context, url string) (bool, error)
	ResolveLocation(ctx context.Context, loc *models.Location) (int64, error)
	ResolveBuilding(ctx context.Context, b *models.Building) (int64, error)
	ResolveOwner(ctx context.Context, o *models.Owner) (int64, error)
	ResolveFeatures(ctx context.Context, f *models.Features) (int64, error)
	CreateListing(ctx context.Context, l *models.Listing) (int64, error)
	Commit() error
	Rollback() error
}

// TxStore opens transactional unit-of-work scopes for the importer.
type TxStore interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// ReadStore is the query surface the HTTP layer consumes.
type ReadStore interface {
	Ping(ctx context.Context) error
	FilterListings(ctx context.Context, params FilterParams) (int, []*models.Listing, error)
	SearchLocations(ctx context.Context, q string, limit int) ([]*models.Location, error)
	FetchOffers(ctx context.Context) ([]*models.Listing, error)
}
