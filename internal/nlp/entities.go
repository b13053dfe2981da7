package nlp

import (
	"fmt"

	"github.com/jdkato/prose/v2"

	"github.com/crisisconnect/report-enrichment/internal/enrich"
)

// EntityRecognizer runs the prose NER model over report text. Tokenization
// and tagging stay on; segmentation is unnecessary for short reports and
// skipping it keeps per-report latency down.
type EntityRecognizer struct{}

// NewEntityRecognizer creates the prose-backed recognizer.
func NewEntityRecognizer() *EntityRecognizer {
	return &EntityRecognizer{}
}

// Entities returns every named-entity span prose finds, labels included.
// Filtering to place labels is the extractor's concern, not the model's.
func (r *EntityRecognizer) Entities(text string) ([]enrich.Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("nlp entities: %w", err)
	}

	spans := doc.Entities()
	entities := make([]enrich.Entity, 0, len(spans))
	for _, span := range spans {
		entities = append(entities, enrich.Entity{Text: span.Text, Label: span.Label})
	}
	return entities, nil
}
