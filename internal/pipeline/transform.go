package pipeline

import (
	"context"
	"log/slog"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/enrich"
)

// EventRecorder persists official-source events for later corroboration
// lookups. A nil recorder disables recording.
type EventRecorder interface {
	RecordEvent(ctx context.Context, report domain.Report, result domain.EnrichmentResult) error
}

// ReportTransformer implements Transformer: parse the raw event, run the
// enrichment stages, merge any previous enrichment under the configured
// policy.
type ReportTransformer struct {
	enricher *enrich.Enricher
	policy   enrich.MergePolicy
	recorder EventRecorder
	logger   *slog.Logger
}

// NewTransformer creates a ReportTransformer.
func NewTransformer(enricher *enrich.Enricher, policy enrich.MergePolicy, recorder EventRecorder, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		enricher: enricher,
		policy:   policy,
		recorder: recorder,
		logger:   logger,
	}
}

func (t *ReportTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.EnrichedReport, error) {
	report, err := domain.ParseRawReport(raw)
	if err != nil {
		return domain.EnrichedReport{}, err
	}

	result, err := t.enricher.Enrich(ctx, report)
	if err != nil {
		return domain.EnrichedReport{}, err
	}

	result = enrich.Merge(report.Prior, result, t.policy)

	if t.recorder != nil {
		if err := t.recorder.RecordEvent(ctx, report, result); err != nil {
			t.logger.Warn("record official event failed", "report_id", report.ID, "error", err)
		}
	}

	return domain.EnrichedReport{Report: report, Enrichment: result}, nil
}
