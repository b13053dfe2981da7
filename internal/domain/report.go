package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Source identifies where a report originated.
type Source string

const (
	SourceUSGS    Source = "USGS"
	SourceGDACS   Source = "GDACS"
	SourceReddit  Source = "REDDIT"
	SourceX       Source = "X"
	SourceCitizen Source = "CITIZEN"
	SourceRSS     Source = "RSS"
	SourceUnknown Source = "UNKNOWN"
)

// NormalizeSource maps a raw source string onto the known set. Unrecognized
// sources degrade to SourceUnknown rather than failing the report; the
// credibility prior for unknown sources is the lowest.
func NormalizeSource(value string) Source {
	switch Source(strings.ToUpper(strings.TrimSpace(value))) {
	case SourceUSGS:
		return SourceUSGS
	case SourceGDACS:
		return SourceGDACS
	case SourceReddit:
		return SourceReddit
	case SourceX:
		return SourceX
	case SourceCitizen:
		return SourceCitizen
	case SourceRSS:
		return SourceRSS
	default:
		return SourceUnknown
	}
}

// RawReportRecord is the flat JSON structure the collectors publish to the
// source topic. Coordinates and magnitude are pointers so "absent" and "zero"
// stay distinguishable; the equator/prime-meridian intersection is a real
// place, not a missing value.
type RawReportRecord struct {
	ExternalID    string  `json:"external_id"`
	Source        string  `json:"source"`
	Text          string  `json:"text"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	MediaURL      string  `json:"media_url,omitempty"`
	Magnitude     *float64 `json:"magnitude,omitempty"`
	AllowFallback bool    `json:"allow_external_fallback,omitempty"`

	// Enrichment holds a previous enrichment pass when a stored report is
	// republished for reprocessing. The merge policy decides whether the new
	// pass overwrites it or only fills its gaps.
	Enrichment *EnrichmentResult `json:"enrichment,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are inside their legal ranges.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Report is the domain-rich representation after parsing.
type Report struct {
	ID            string       `json:"id"`
	ExternalID    string       `json:"external_id,omitempty"`
	Source        Source       `json:"source"`
	Text          string       `json:"text"`
	Explicit      *Coordinates `json:"explicit_coordinates,omitempty"`
	MediaURL      string       `json:"media_url,omitempty"`
	Magnitude     *float64     `json:"magnitude,omitempty"`
	AllowFallback bool         `json:"allow_external_fallback,omitempty"`
	Prior         *EnrichmentResult `json:"-"`

	RawPayload []byte    `json:"-"`
	IngestedAt time.Time `json:"ingested_at,omitempty"`
}

// EnrichmentResult is the structured output of one enrichment pass.
type EnrichmentResult struct {
	Language           *string      `json:"language,omitempty"`
	DisasterType       DisasterType `json:"disaster_type"`
	PlaceName          *string      `json:"place_name,omitempty"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"`
	LocationConfidence float64      `json:"location_confidence,omitempty"`

	CredibilityScore float64 `json:"credibility_score"`
	NeedsReview      bool    `json:"needs_review"`
	SuspectedRumor   bool    `json:"suspected_rumor"`

	// Signals records the named contributions behind the credibility score,
	// kept for operator debugging of flagged reports.
	Signals map[string]float64 `json:"credibility_signals,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// EnrichedReport is the serialized form destined for the sink topic.
type EnrichedReport struct {
	Report
	Enrichment EnrichmentResult `json:"enrichment"`
}

// OutputEvent is the wire form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawReport deserializes a RawEvent's value into a Report. Empty text is
// the one per-report input error; everything else degrades. Out-of-range
// explicit coordinates are dropped rather than propagated.
func ParseRawReport(raw RawEvent) (Report, error) {
	var rec RawReportRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Report{}, fmt.Errorf("parse raw report: %w", err)
	}

	text := strings.TrimSpace(rec.Text)
	if text == "" {
		return Report{}, fmt.Errorf("parse raw report: empty text")
	}

	source := NormalizeSource(rec.Source)

	var explicit *Coordinates
	if rec.Lat != nil && rec.Lon != nil {
		c := Coordinates{Lat: *rec.Lat, Lon: *rec.Lon}
		if c.Valid() {
			explicit = &c
		}
	}

	return Report{
		ID:            dedupKey(source, rec.ExternalID, text),
		ExternalID:    rec.ExternalID,
		Source:        source,
		Text:          text,
		Explicit:      explicit,
		MediaURL:      rec.MediaURL,
		Magnitude:     rec.Magnitude,
		AllowFallback: rec.AllowFallback,
		Prior:         rec.Enrichment,
		RawPayload:    raw.Value,
		IngestedAt:    raw.Timestamp,
	}, nil
}

// dedupKey builds the uniqueness key for a report. Feeds supply an external id
// and the pair (external id, source) deduplicates re-ingestion; feeds without
// one get a deterministic hash of source and text so replays still converge.
func dedupKey(source Source, externalID, text string) string {
	prefix := strings.ToLower(string(source))
	if externalID != "" {
		return prefix + "_" + externalID
	}
	hash := sha256.Sum256([]byte(string(source) + "|" + text))
	return prefix + "_" + hex.EncodeToString(hash[:8])
}
