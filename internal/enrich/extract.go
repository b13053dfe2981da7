package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
)

// Entity is a named-entity span produced by the local recognizer.
type Entity struct {
	Text  string
	Label string
}

// EntityRecognizer is the local NER model behind the extractor.
type EntityRecognizer interface {
	Entities(text string) ([]Entity, error)
}

const extractInstruction = "Extract the single most specific place name " +
	"(city, region, state, province, or country) mentioned in the text. " +
	"Respond with only the place name, or an empty string if there is none."

// Confidence model for extracted places. Strong geographic tags start at
// strongBase and gain per additional place entity; weak tags (facilities)
// start below the fallback threshold so the oracle gets a chance to do
// better. Oracle answers carry a fixed confidence.
const (
	strongBaseConfidence = 0.6
	weakBaseConfidence   = 0.4
	stepConfidence       = 0.1
	maxLocalConfidence   = 0.9
	oracleConfidence     = 0.7
)

// strongLabels are entity tags that name a geographic area outright.
// Facility tags are treated as weak signal.
var strongLabels = map[string]bool{
	"GPE": true,
	"LOC": true,
}

var weakLabels = map[string]bool{
	"FAC": true,
}

// Extractor finds the best place-name candidate in report text. It runs the
// cheap local recognizer first and consults the oracle only when local
// confidence falls below the threshold, bounding external-call volume.
type Extractor struct {
	ner       EntityRecognizer
	oracle    domain.TextOracle
	timeout   time.Duration
	threshold float64
	logger    *slog.Logger
}

// NewExtractor creates an Extractor. Pass a nil oracle to disable the
// external fallback.
func NewExtractor(ner EntityRecognizer, oracle domain.TextOracle, timeout time.Duration, threshold float64, logger *slog.Logger) *Extractor {
	return &Extractor{ner: ner, oracle: oracle, timeout: timeout, threshold: threshold, logger: logger}
}

// Extract returns the best place name and its confidence, or ("", 0) when
// nothing was found anywhere. Local failures degrade to the fallback path;
// fallback failures degrade to whatever the local pass produced.
func (e *Extractor) Extract(ctx context.Context, text string, allowFallback bool) (string, float64) {
	place, confidence := e.extractLocal(text)

	if confidence >= e.threshold {
		return place, confidence
	}

	if allowFallback && e.oracle != nil {
		if oraclePlace := e.extractOracle(ctx, text); oraclePlace != "" {
			return oraclePlace, oracleConfidence
		}
	}

	return place, confidence
}

// extractLocal runs the local recognizer and picks the longest place span,
// ties broken by first occurrence. Confidence grows with the number of place
// entities found and whether the winning tag is a strong geographic label.
func (e *Extractor) extractLocal(text string) (string, float64) {
	entities, err := e.ner.Entities(text)
	if err != nil {
		e.logger.Warn("entity recognition failed", "error", err)
		return "", 0
	}

	var (
		best       Entity
		placeCount int
		bestStrong bool
	)
	for _, ent := range entities {
		strong := strongLabels[ent.Label]
		if !strong && !weakLabels[ent.Label] {
			continue
		}
		placeCount++
		// Strict > keeps the first occurrence on equal lengths; a strong tag
		// displaces a weak one of the same length.
		if len(ent.Text) > len(best.Text) || (strong && !bestStrong && len(ent.Text) == len(best.Text)) {
			best = ent
			bestStrong = strong
		}
	}

	if placeCount == 0 {
		return "", 0
	}

	base := weakBaseConfidence
	if bestStrong {
		base = strongBaseConfidence
	}
	confidence := base + stepConfidence*float64(placeCount-1)
	if confidence > maxLocalConfidence {
		confidence = maxLocalConfidence
	}
	return best.Text, confidence
}

func (e *Extractor) extractOracle(ctx context.Context, text string) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	answer, err := e.oracle.Complete(ctx, extractInstruction, truncate(text, maxOracleTextLen))
	if err != nil {
		e.logger.Warn("oracle extraction failed", "error", err)
		return ""
	}

	place := strings.Trim(strings.TrimSpace(answer), `"'.`)
	if place == "" || strings.EqualFold(place, "none") {
		return ""
	}
	return place
}
