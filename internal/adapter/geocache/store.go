// Package geocache persists geocoding results and recently seen official
// events in a local sqlite database. The geocoder decorator survives process
// restarts, which matters because the upstream geocoding endpoint is rate
// limited to one request per second.
package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/observability"
)

// Store wraps the sqlite handle shared by the persistent geocode cache and
// the official-event index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geocache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping geocache db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate geocache db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			place TEXT PRIMARY KEY,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			display_name TEXT NOT NULL,
			name TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS official_events (
			report_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			disaster_type TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			observed_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_official_events_observed_at ON official_events(observed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PersistentGeocoder is a Geocoder decorator backed by the store. Lookups
// fall through to the inner geocoder on a miss and write the answer back.
type PersistentGeocoder struct {
	inner   domain.Geocoder
	store   *Store
	metrics *observability.Metrics
}

// NewPersistentGeocoder creates the sqlite-backed decorator.
func NewPersistentGeocoder(inner domain.Geocoder, store *Store, metrics *observability.Metrics) *PersistentGeocoder {
	return &PersistentGeocoder{inner: inner, store: store, metrics: metrics}
}

func (g *PersistentGeocoder) Geocode(ctx context.Context, place string) (domain.GeocodingResult, error) {
	if result, ok, err := g.store.lookup(ctx, place); err == nil && ok {
		g.metrics.GeocodeCache.WithLabelValues("store", "hit").Inc()
		return result, nil
	}
	g.metrics.GeocodeCache.WithLabelValues("store", "miss").Inc()

	result, err := g.inner.Geocode(ctx, place)
	if err != nil {
		return result, err
	}
	if !result.Empty() {
		// A failed write loses nothing but a future cache hit.
		_ = g.store.save(ctx, place, result)
	}
	return result, nil
}

func (s *Store) lookup(ctx context.Context, place string) (domain.GeocodingResult, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lat, lon, display_name, name, confidence FROM geocode_cache WHERE place = ?`,
		normalizePlace(place))

	var result domain.GeocodingResult
	err := row.Scan(&result.Lat, &result.Lon, &result.DisplayName, &result.PlaceName, &result.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeocodingResult{}, false, nil
	}
	if err != nil {
		return domain.GeocodingResult{}, false, err
	}
	return result, true, nil
}

func (s *Store) save(ctx context.Context, place string, result domain.GeocodingResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (place, lat, lon, display_name, name, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(place) DO UPDATE SET
		   lat = excluded.lat, lon = excluded.lon, display_name = excluded.display_name,
		   name = excluded.name, confidence = excluded.confidence, created_at = excluded.created_at`,
		normalizePlace(place), result.Lat, result.Lon, result.DisplayName,
		result.PlaceName, result.Confidence, domain.Clock().Now().UTC())
	return err
}
