package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"listings-service/models"
	"listings-service/storage"
)

// errDuplicate marks a record whose URL is already stored.
var errDuplicate = errors.New("listing already imported")

// Importer loads a CSV extract of real-estate listings into the normalized
// tables. Records are processed strictly one at a time: the get-or-create
// entity resolution is not safe under concurrent execution, and each record
// runs in its own transaction so a failure never touches committed work.
type Importer struct {
	store  storage.TxStore
	logger *logrus.Logger
	now    func() time.Time
}

func New(store storage.TxStore, logger *logrus.Logger) *Importer {
	return &Importer{store: store, logger: logger, now: time.Now}
}

// Run imports every record of the CSV file at path and returns the run report.
// Record-level problems are counted and logged but never abort the run; an
// unreadable file or a broken CSV stream does, with the partial report.
func (imp *Importer) Run(ctx context.Context, path string) (*models.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("import: open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("import: read header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	imp.logger.Infof("[import] starting import from %s", path)

	report := &models.ImportReport{}
	for row := 2; ; row++ { // row 1 is the header
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("import: read row %d: %w", row, err)
		}
		report.TotalRead++

		get := func(col string) string {
			i, ok := colIndex[col]
			if !ok || i >= len(fields) {
				return ""
			}
			return fields[i]
		}
		if emptyRow(fields) {
			report.SkippedEmpty++
			continue
		}

		rec := normalizeRecord(row, get, imp.now())
		if rec.url == nil {
			report.SkippedNoURL++
			imp.logger.Warnf("[import] row %d skipped: missing url", row)
			continue
		}

		switch err := imp.importRecord(ctx, rec); {
		case err == nil:
			report.Imported++
		case errors.Is(err, errDuplicate):
			report.SkippedDuplicate++
			imp.logger.Debugf("[import] row %d skipped: duplicate url %s", row, *rec.url)
		default:
			report.Failed++
			report.Failures = append(report.Failures, models.ImportFailure{
				Row:    row,
				URL:    *rec.url,
				Reason: err.Error(),
			})
			imp.logger.Errorf("[import] row %d failed (url %s): %v", row, *rec.url, err)
		}
	}

	imp.logReport(report)
	return report, nil
}

// importRecord processes one normalized record inside its own transaction.
// Nothing of a failed record survives: the transaction is rolled back as a
// whole, including any entity rows resolved for it.
func (imp *Importer) importRecord(ctx context.Context, rec *sourceRecord) error {
	uow, err := imp.store.Begin(ctx)
	if err != nil {
		return err
	}

	id, err := imp.buildListing(ctx, uow, rec)
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	imp.logger.Debugf("[import] row %d imported as listing %d", rec.row, id)
	return nil
}

func (imp *Importer) buildListing(ctx context.Context, uow storage.UnitOfWork, rec *sourceRecord) (int64, error) {
	exists, err := uow.ListingExists(ctx, *rec.url)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errDuplicate
	}

	locationID, err := uow.ResolveLocation(ctx, &rec.location)
	if err != nil {
		return 0, fmt.Errorf("location: %w", err)
	}
	buildingID, err := uow.ResolveBuilding(ctx, &rec.building)
	if err != nil {
		return 0, fmt.Errorf("building: %w", err)
	}
	ownerID, err := uow.ResolveOwner(ctx, &rec.owner)
	if err != nil {
		return 0, fmt.Errorf("owner: %w", err)
	}
	featuresID, err := uow.ResolveFeatures(ctx, &rec.features)
	if err != nil {
		return 0, fmt.Errorf("features: %w", err)
	}

	return uow.CreateListing(ctx, &models.Listing{
		LocationID:          locationID,
		BuildingID:          buildingID,
		OwnerID:             ownerID,
		FeaturesID:          featuresID,
		Rooms:               rec.rooms,
		Area:                rec.area,
		PriceTotalZl:        rec.priceTotal,
		PriceSqmZl:          rec.priceSqm,
		PricePerSqmDetailed: rec.pricePerSqmDetailed,
		DatePosted:          rec.datePosted,
		PhotoCount:          rec.photoCount,
		URL:                 *rec.url,
		ImageURL:            rec.imageURL,
		Description:         rec.description,
	})
}

func (imp *Importer) logReport(r *models.ImportReport) {
	imp.logger.Infof("[import] completed | read: %d | imported: %d | duplicates: %d | missing url: %d | empty: %d | failed: %d",
		r.TotalRead, r.Imported, r.SkippedDuplicate, r.SkippedNoURL, r.SkippedEmpty, r.Failed)
	for _, f := range r.Failures {
		imp.logger.Infof("[import]   row %d (%s): %s", f.Row, f.URL, f.Reason)
	}
}

func emptyRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
