// Command validate performs integrity checks across the mock report fixtures:
// it re-runs the enrichment stages on the raw fixture and verifies the
// enriched fixture matches, then checks every enriched record against the
// output contract (enum membership, value ranges, coordinate precedence).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/raw_reports.json \
//	  -enriched-json data/mock/enriched_reports.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/enrich"
	"github.com/crisisconnect/report-enrichment/internal/nlp"
	"github.com/crisisconnect/report-enrichment/internal/pipeline"
)

var ingestedAt = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw report JSON fixture")
	enrichedJSON := flag.String("enriched-json", "", "path to the enriched report JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *enrichedJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *enrichedJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, enrichedPath string) int {
	// Match genmock's fixed clock so recomputed ProcessedAt values line up.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Report Fixture Validation ===")
	fmt.Println()

	rawRecords, err := loadJSON[domain.RawReportRecord](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	enriched, err := loadJSON[domain.EnrichedReport](enrichedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load enriched JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateEnrichmentParity(rawRecords, enriched),
		validateOutputContract(enriched),
		validateCoordinatePrecedence(rawRecords, enriched),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d enriched\n", len(rawRecords), len(enriched))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Enrichment Parity ──
// Re-runs the enrichment stages on each raw record and compares the result
// with the enriched fixture.

func validateEnrichmentParity(raw []domain.RawReportRecord, enriched []domain.EnrichedReport) *phase {
	p := &phase{name: "Phase 1: Enrichment Parity (raw vs enriched)"}

	if len(raw) != len(enriched) {
		p.errorf("count: %d raw records, %d enriched", len(raw), len(enriched))
	}

	byID := map[string]*domain.EnrichedReport{}
	for i := range enriched {
		if enriched[i].ID == "" {
			p.errorf("enriched record %d: missing ID", i)
			continue
		}
		byID[enriched[i].ID] = &enriched[i]
	}

	transformer := newTransformer()

	for i, rec := range raw {
		expected, err := transformRecord(transformer, rec)
		if err != nil {
			p.errorf("raw record %d: %v", i, err)
			continue
		}

		actual, ok := byID[expected.ID]
		if !ok {
			p.errorf("raw record %d (%s): ID %q not found in enriched JSON", i, rec.Source, expected.ID)
			continue
		}

		compareEnrichment(p, expected, actual)
	}

	return p
}

// newTransformer mirrors genmock's stage assembly: no geocoder, no oracle.
func newTransformer() *pipeline.ReportTransformer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enricher := enrich.New(
		nlp.NewLanguageDetector(),
		enrich.NewClassifier(nil, time.Second, logger),
		enrich.NewExtractor(nlp.NewEntityRecognizer(), nil, time.Second, 0.5, logger),
		nil,
		enrich.NewScorer(enrich.DefaultScoreConfig(), nil, logger),
		time.Second,
		logger,
	)
	return pipeline.NewTransformer(enricher, enrich.MergeOverwrite, nil, logger)
}

func transformRecord(t *pipeline.ReportTransformer, rec domain.RawReportRecord) (domain.EnrichedReport, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return domain.EnrichedReport{}, fmt.Errorf("marshal: %w", err)
	}
	return t.Transform(context.Background(), domain.RawEvent{
		Value:     value,
		Timestamp: ingestedAt,
	})
}

func compareEnrichment(p *phase, expected domain.EnrichedReport, actual *domain.EnrichedReport) {
	id := expected.ID

	if actual.Source != expected.Source {
		p.errorf("ID %s: source: expected %q, got %q", id, expected.Source, actual.Source)
	}
	if actual.Enrichment.DisasterType != expected.Enrichment.DisasterType {
		p.errorf("ID %s: disaster_type: expected %q, got %q", id, expected.Enrichment.DisasterType, actual.Enrichment.DisasterType)
	}
	if !floatEq(actual.Enrichment.CredibilityScore, expected.Enrichment.CredibilityScore) {
		p.errorf("ID %s: credibility_score: expected %g, got %g", id, expected.Enrichment.CredibilityScore, actual.Enrichment.CredibilityScore)
	}
	if actual.Enrichment.NeedsReview != expected.Enrichment.NeedsReview {
		p.errorf("ID %s: needs_review: expected %t, got %t", id, expected.Enrichment.NeedsReview, actual.Enrichment.NeedsReview)
	}
	if actual.Enrichment.SuspectedRumor != expected.Enrichment.SuspectedRumor {
		p.errorf("ID %s: suspected_rumor: expected %t, got %t", id, expected.Enrichment.SuspectedRumor, actual.Enrichment.SuspectedRumor)
	}
	if !ptrStrEq(actual.Enrichment.Language, expected.Enrichment.Language) {
		p.errorf("ID %s: language: expected %s, got %s", id, ptrStr(expected.Enrichment.Language), ptrStr(actual.Enrichment.Language))
	}
	if !ptrStrEq(actual.Enrichment.PlaceName, expected.Enrichment.PlaceName) {
		p.errorf("ID %s: place_name: expected %s, got %s", id, ptrStr(expected.Enrichment.PlaceName), ptrStr(actual.Enrichment.PlaceName))
	}
	if !actual.Enrichment.ProcessedAt.Equal(expected.Enrichment.ProcessedAt) {
		p.errorf("ID %s: processed_at: expected %s, got %s", id,
			expected.Enrichment.ProcessedAt.Format(time.RFC3339), actual.Enrichment.ProcessedAt.Format(time.RFC3339))
	}
}

// ── Phase 2: Output Contract ──
// Validates every enriched record against the sink topic contract.

var (
	contractTypes = map[domain.DisasterType]bool{
		domain.DisasterEarthquake: true, domain.DisasterFlood: true,
		domain.DisasterFire: true, domain.DisasterStorm: true,
		domain.DisasterDrought: true, domain.DisasterLandslide: true,
		domain.DisasterVolcano: true, domain.DisasterTsunami: true,
		domain.DisasterPandemic: true, domain.DisasterConflict: true,
		domain.DisasterUnknown: true,
	}
	contractSources = map[domain.Source]bool{
		domain.SourceUSGS: true, domain.SourceGDACS: true,
		domain.SourceReddit: true, domain.SourceX: true,
		domain.SourceCitizen: true, domain.SourceRSS: true,
		domain.SourceUnknown: true,
	}
)

func validateOutputContract(enriched []domain.EnrichedReport) *phase {
	p := &phase{name: "Phase 2: Output Contract (enums and ranges)"}
	for i := range enriched {
		checkContractRecord(p, i, &enriched[i])
	}
	return p
}

func checkContractRecord(p *phase, i int, r *domain.EnrichedReport) {
	pf := func(format string, args ...any) {
		p.errorf("record %d (ID %s): "+format, append([]any{i, r.ID}, args...)...)
	}

	if r.ID == "" {
		pf("id is empty")
	} else if !strings.HasPrefix(r.ID, strings.ToLower(string(r.Source))+"_") {
		pf("id %q doesn't start with source prefix %q_", r.ID, strings.ToLower(string(r.Source)))
	}
	if !contractSources[r.Source] {
		pf("source %q not in the known set", r.Source)
	}
	if strings.TrimSpace(r.Text) == "" {
		pf("text is empty")
	}

	e := &r.Enrichment
	if !contractTypes[e.DisasterType] {
		pf("disaster_type %q not in the enumeration", e.DisasterType)
	}
	if e.CredibilityScore < 0 || e.CredibilityScore > 1 {
		pf("credibility_score %g outside [0, 1]", e.CredibilityScore)
	}
	if e.LocationConfidence < 0 || e.LocationConfidence > 1 {
		pf("location_confidence %g outside [0, 1]", e.LocationConfidence)
	}
	if e.PlaceName != nil && *e.PlaceName == "" {
		pf("place_name is present but empty")
	}
	if e.Language != nil {
		lang := *e.Language
		if len(lang) != 2 || lang != strings.ToLower(lang) {
			pf("language %q is not a lowercase two-letter code", lang)
		}
	}
	if e.Coordinates != nil && !e.Coordinates.Valid() {
		pf("coordinates (%g, %g) outside valid ranges", e.Coordinates.Lat, e.Coordinates.Lon)
	}
	if e.ProcessedAt.IsZero() {
		pf("processed_at is zero")
	}
}

// ── Phase 3: Coordinate Precedence ──
// A raw record carrying explicit coordinates must keep exactly those
// coordinates in the enriched output; geocoding never overrides them.

func validateCoordinatePrecedence(raw []domain.RawReportRecord, enriched []domain.EnrichedReport) *phase {
	p := &phase{name: "Phase 3: Coordinate Precedence (explicit wins)"}

	byExternalID := map[string]*domain.EnrichedReport{}
	for i := range enriched {
		if enriched[i].ExternalID != "" {
			byExternalID[enriched[i].ExternalID] = &enriched[i]
		}
	}

	for i, rec := range raw {
		if rec.Lat == nil || rec.Lon == nil || rec.ExternalID == "" {
			continue
		}
		out, ok := byExternalID[rec.ExternalID]
		if !ok {
			p.errorf("raw record %d: external_id %q not found in enriched JSON", i, rec.ExternalID)
			continue
		}
		if out.Enrichment.Coordinates == nil {
			p.errorf("external_id %s: explicit coordinates dropped from enrichment", rec.ExternalID)
			continue
		}
		if !floatEq(out.Enrichment.Coordinates.Lat, *rec.Lat) || !floatEq(out.Enrichment.Coordinates.Lon, *rec.Lon) {
			p.errorf("external_id %s: coordinates (%g, %g) differ from explicit (%g, %g)",
				rec.ExternalID, out.Enrichment.Coordinates.Lat, out.Enrichment.Coordinates.Lon, *rec.Lat, *rec.Lon)
		}
	}

	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptrStrEq(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func ptrStr(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
