package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
)

// LanguageDetector identifies the ISO 639-1 code of a text snippet. ok is
// false when the text is too short or detection has no confident answer.
type LanguageDetector interface {
	Detect(text string) (code string, ok bool)
}

// Enricher runs the enrichment stages over a report in strict order:
// language → classify → extract → geocode → score. Stage failures leave the
// corresponding field absent and the pipeline continues; only empty input
// text is an error.
type Enricher struct {
	languages      LanguageDetector
	classifier     *Classifier
	extractor      *Extractor
	geocoder       domain.Geocoder
	scorer         *Scorer
	geocodeTimeout time.Duration
	logger         *slog.Logger
}

// New creates an Enricher. A nil geocoder disables the geocoding stage; the
// classifier and extractor carry their own nil-oracle handling.
func New(
	languages LanguageDetector,
	classifier *Classifier,
	extractor *Extractor,
	geocoder domain.Geocoder,
	scorer *Scorer,
	geocodeTimeout time.Duration,
	logger *slog.Logger,
) *Enricher {
	return &Enricher{
		languages:      languages,
		classifier:     classifier,
		extractor:      extractor,
		geocoder:       geocoder,
		scorer:         scorer,
		geocodeTimeout: geocodeTimeout,
		logger:         logger,
	}
}

// Enrich computes the EnrichmentResult for one report. The per-report
// AllowFallback flag gates the oracle in both the classifier and the
// extractor. Explicit report coordinates always win over geocoding.
func (e *Enricher) Enrich(ctx context.Context, report domain.Report) (domain.EnrichmentResult, error) {
	if strings.TrimSpace(report.Text) == "" {
		return domain.EnrichmentResult{}, fmt.Errorf("enrich report %s: empty text", report.ID)
	}

	result := domain.EnrichmentResult{DisasterType: domain.DisasterUnknown}

	if code, ok := e.languages.Detect(report.Text); ok {
		result.Language = &code
	}

	result.DisasterType = e.classifier.Classify(ctx, report.Text, report.AllowFallback)

	if place, confidence := e.extractor.Extract(ctx, report.Text, report.AllowFallback); place != "" {
		result.PlaceName = &place
		result.LocationConfidence = confidence
	}

	result.Coordinates = e.resolveCoordinates(ctx, report, result.PlaceName)

	score, needsReview, suspectedRumor, signals := e.scorer.Score(ctx, report, result)
	result.CredibilityScore = score
	result.NeedsReview = needsReview
	result.SuspectedRumor = suspectedRumor
	result.Signals = signals

	result.ProcessedAt = domain.Clock().Now().UTC()
	return result, nil
}

// resolveCoordinates applies the precedence rule: explicit input coordinates
// are returned untouched; geocoding only fills the gap when a place was
// extracted and a geocoder is configured. Every geocoding failure leaves
// coordinates absent.
func (e *Enricher) resolveCoordinates(ctx context.Context, report domain.Report, place *string) *domain.Coordinates {
	if report.Explicit != nil {
		c := *report.Explicit
		return &c
	}
	if place == nil || e.geocoder == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.geocodeTimeout)
	defer cancel()

	result, err := e.geocoder.Geocode(ctx, *place)
	if err != nil {
		e.logger.Warn("geocoding failed", "report_id", report.ID, "place", *place, "error", err)
		return nil
	}
	if result.Empty() {
		return nil
	}

	coords := domain.Coordinates{Lat: result.Lat, Lon: result.Lon}
	if !coords.Valid() {
		e.logger.Warn("geocoder returned out-of-range coordinates",
			"report_id", report.ID, "place", *place, "lat", result.Lat, "lon", result.Lon)
		return nil
	}
	return &coords
}
