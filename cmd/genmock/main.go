// Command genmock generates paired raw and enriched report fixtures for test
// suites and local development. It runs the actual enrichment stages (minus
// the external geocoder and oracle) so the enriched fixture matches real
// pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/raw_reports.json \
//	  -enriched-out data/mock/enriched_reports.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/enrich"
	"github.com/crisisconnect/report-enrichment/internal/nlp"
	"github.com/crisisconnect/report-enrichment/internal/pipeline"
)

var ingestedAt = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

// seedReports covers every source tier and disaster type the scorer treats
// differently: official feeds with explicit coordinates, social posts with
// place names in text, a rumor-worded post, and a report with no location.
var seedReports = []domain.RawReportRecord{
	{
		ExternalID: "us7000abcd",
		Source:     "usgs",
		Text:       "M 6.1 earthquake, 22 km SSW of Bandar Abbas. Strong shaking reported across the coastal region.",
		Lat:        floatPtr(27.05),
		Lon:        floatPtr(56.21),
		Magnitude:  floatPtr(6.1),
	},
	{
		ExternalID: "EQ-1412-2",
		Source:     "gdacs",
		Text:       "Orange alert earthquake in southern Iran, population exposure moderate.",
		Lat:        floatPtr(27.11),
		Lon:        floatPtr(56.30),
		Magnitude:  floatPtr(6.1),
	},
	{
		ExternalID: "t3_1abcz9",
		Source:     "reddit",
		Text:       "Felt a long tremor in Bandar Abbas just now, furniture was shaking for maybe twenty seconds. Anyone else?",
	},
	{
		ExternalID: "1893477201",
		Source:     "x",
		Text:       "UNCONFIRMED: massive flooding near Chennai, thousands of homes supposedly destroyed!!!",
	},
	{
		ExternalID: "cr-2038",
		Source:     "citizen",
		Text:       "Smoke and flames visible on the hillside above the village, fire is spreading toward the olive groves near Kalamata.",
		MediaURL:   "https://reports.example.org/media/cr-2038.jpg",
	},
	{
		ExternalID: "rss-ln-88172",
		Source:     "rss",
		Text:       "Cyclone warning issued for the Bay of Bengal coast; authorities begin evacuating low-lying districts.",
	},
	{
		Source: "unknown",
		Text:   "Power went out across the whole neighborhood and sirens everywhere, no idea what happened.",
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for the raw report JSON fixture")
	enrichedOut := flag.String("enriched-out", "", "output path for the enriched report JSON fixture")
	flag.Parse()

	if *rawOut == "" || *enrichedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -enriched-out")
	}

	// Fix the clock so ProcessedAt timestamps are reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	transformer := newTransformer()

	enriched := make([]domain.EnrichedReport, 0, len(seedReports))
	for i, rec := range seedReports {
		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal seed %d: %w", i, err)
		}

		out, err := transformer.Transform(context.Background(), domain.RawEvent{
			Value:     value,
			Timestamp: ingestedAt,
		})
		if err != nil {
			return fmt.Errorf("enrich seed %d (%s): %w", i, rec.Source, err)
		}
		enriched = append(enriched, out)
	}

	if err := writeJSON(*rawOut, seedReports); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d reports)", *rawOut, len(seedReports))

	if err := writeJSON(*enrichedOut, enriched); err != nil {
		return fmt.Errorf("writing enriched fixture: %w", err)
	}
	log.Printf("wrote enriched fixture: %s", *enrichedOut)

	printStats(enriched)
	return nil
}

// newTransformer assembles the enrichment stages the way the service does,
// with the external geocoder and oracle left out so fixtures never depend on
// network calls.
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

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(reports []domain.EnrichedReport) {
	typeCounts := map[domain.DisasterType]int{}
	langCounts := map[string]int{}
	var withCoords, needsReview, rumors int

	for i := range reports {
		e := &reports[i].Enrichment
		typeCounts[e.DisasterType]++
		if e.Language != nil {
			langCounts[*e.Language]++
		}
		if e.Coordinates != nil {
			withCoords++
		}
		if e.NeedsReview {
			needsReview++
		}
		if e.SuspectedRumor {
			rumors++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(reports))
	fmt.Printf("By type:")
	for dt, n := range typeCounts {
		fmt.Printf(" %s=%d", dt, n)
	}
	fmt.Println()
	fmt.Printf("By language:")
	for lang, n := range langCounts {
		fmt.Printf(" %s=%d", lang, n)
	}
	fmt.Println()
	fmt.Printf("With coordinates: %d\n", withCoords)
	fmt.Printf("Needs review: %d\n", needsReview)
	fmt.Printf("Suspected rumors: %d\n", rumors)

	for i := range reports {
		r := &reports[i]
		fmt.Printf("\n%s (%s):\n", r.ID, r.Source)
		fmt.Printf("  type=%s score=%.2f review=%t rumor=%t\n",
			r.Enrichment.DisasterType, r.Enrichment.CredibilityScore,
			r.Enrichment.NeedsReview, r.Enrichment.SuspectedRumor)
		if r.Enrichment.PlaceName != nil {
			fmt.Printf("  place=%q confidence=%.2f\n", *r.Enrichment.PlaceName, r.Enrichment.LocationConfidence)
		}
		if r.Enrichment.Coordinates != nil {
			fmt.Printf("  lat=%g lon=%g\n", r.Enrichment.Coordinates.Lat, r.Enrichment.Coordinates.Lon)
		}
	}
}
