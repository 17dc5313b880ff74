package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"listings-service/utils"
)

// Store wraps the PostgreSQL connection pool behind the TxStore and ReadStore
// interfaces.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Open connects to PostgreSQL, waits for the database to become reachable and
// runs schema migrations. Returns an error only if the database stays
// unreachable after all retries.
func Open(dsn string, maxRetries int, logger *logrus.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: maxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS location (
			location_id   SERIAL PRIMARY KEY,
			city          VARCHAR(255),
			locality      VARCHAR(255),
			city_district VARCHAR(255),
			street        VARCHAR(255),
			full_address  VARCHAR(500),
			latitude      NUMERIC(9,6),
			longitude     NUMERIC(9,6)
		);

		CREATE TABLE IF NOT EXISTS building (
			building_id   SERIAL PRIMARY KEY,
			year_built    SMALLINT,
			building_type VARCHAR(100),
			floor         SMALLINT
		);

		CREATE TABLE IF NOT EXISTS owner (
			owner_id      SERIAL PRIMARY KEY,
			owner_type    VARCHAR(50),
			contact_name  VARCHAR(255),
			contact_phone VARCHAR(50),
			contact_email VARCHAR(255)
		);

		CREATE TABLE IF NOT EXISTS features (
			features_id    SERIAL PRIMARY KEY,
			has_basement   BOOLEAN,
			has_parking    BOOLEAN,
			kitchen_type   VARCHAR(100),
			window_type    VARCHAR(100),
			ownership_type VARCHAR(100),
			equipment      TEXT
		);

		CREATE TABLE IF NOT EXISTS listing (
			listing_id             SERIAL PRIMARY KEY,
			location_id            INTEGER NOT NULL REFERENCES location(location_id),
			building_id            INTEGER NOT NULL REFERENCES building(building_id),
			owner_id               INTEGER NOT NULL REFERENCES owner(owner_id),
			features_id            INTEGER NOT NULL REFERENCES features(features_id),
			rooms                  SMALLINT,
			area                   NUMERIC(6,2),
			price_total_zl         NUMERIC(12,2),
			price_sqm_zl           NUMERIC(12,2),
			price_per_sqm_detailed NUMERIC(12,2),
			date_posted            DATE,
			photo_count            INTEGER,
			url                    TEXT UNIQUE NOT NULL,
			image_url              TEXT,
			description_text       TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_listing_price    ON listing(price_total_zl);
		CREATE INDEX IF NOT EXISTS idx_listing_rooms    ON listing(rooms);
		CREATE INDEX IF NOT EXISTS idx_location_city    ON location(city);
		CREATE INDEX IF NOT EXISTS idx_location_district ON location(city_district);
	`)
	return err
}

// Begin opens a new transactional unit of work.
func (s *Store) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &txUnit{tx: tx}, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
