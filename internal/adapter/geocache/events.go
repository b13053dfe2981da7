package geocache

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
)

// corroborationRadiusKm is how close an official event has to be to count as
// corroborating a report's location.
const corroborationRadiusKm = 50.0

// officialSources are the feeds whose events count as corroboration.
var officialSources = map[domain.Source]bool{
	domain.SourceUSGS:  true,
	domain.SourceGDACS: true,
}

// RecordEvent stores an enriched report's position when it came from an
// official source with resolved coordinates. Everything else is ignored, so
// the pipeline can call this unconditionally per report.
func (s *Store) RecordEvent(ctx context.Context, report domain.Report, result domain.EnrichmentResult) error {
	if !officialSources[report.Source] || result.Coordinates == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO official_events (report_id, source, disaster_type, lat, lon, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(report_id) DO UPDATE SET
		   lat = excluded.lat, lon = excluded.lon, observed_at = excluded.observed_at`,
		report.ID, string(report.Source), string(result.DisasterType),
		result.Coordinates.Lat, result.Coordinates.Lon, result.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("record official event: %w", err)
	}
	return nil
}

// NearbyOfficial counts official events within the corroboration radius of c
// observed inside the window. A coarse bounding box narrows the scan in SQL;
// the exact haversine test runs in Go.
func (s *Store) NearbyOfficial(ctx context.Context, c domain.Coordinates, within time.Duration) (int, error) {
	cutoff := domain.Clock().Now().UTC().Add(-within)

	latDelta := corroborationRadiusKm / 111.0
	lonDelta := latDelta / math.Max(math.Cos(c.Lat*math.Pi/180), 0.01)

	rows, err := s.db.QueryContext(ctx,
		`SELECT lat, lon FROM official_events
		 WHERE observed_at >= ? AND lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`,
		cutoff, c.Lat-latDelta, c.Lat+latDelta, c.Lon-lonDelta, c.Lon+lonDelta)
	if err != nil {
		return 0, fmt.Errorf("query official events: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var lat, lon float64
		if err := rows.Scan(&lat, &lon); err != nil {
			return 0, fmt.Errorf("scan official event: %w", err)
		}
		if haversineKm(c.Lat, c.Lon, lat, lon) <= corroborationRadiusKm {
			count++
		}
	}
	return count, rows.Err()
}

// PruneEvents drops official events older than the retention window.
func (s *Store) PruneEvents(ctx context.Context, retention time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM official_events WHERE observed_at < ?`,
		domain.Clock().Now().UTC().Add(-retention))
	return err
}

// haversineKm is the great-circle distance between two WGS-84 points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func normalizePlace(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}
