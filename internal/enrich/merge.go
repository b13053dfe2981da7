package enrich

import (
	"fmt"

	"github.com/crisisconnect/report-enrichment/internal/domain"
)

// MergePolicy decides what happens to a report's previous enrichment when it
// is reprocessed.
type MergePolicy string

const (
	// MergeOverwrite replaces the previous enrichment wholesale.
	MergeOverwrite MergePolicy = "overwrite"
	// MergeFill keeps previously resolved nullable fields and only fills
	// their gaps from the new pass. Derived score and flags always come from
	// the new pass, since they are recomputed, not observed.
	MergeFill MergePolicy = "fill"
)

// ParseMergePolicy validates a policy name from configuration.
func ParseMergePolicy(value string) (MergePolicy, error) {
	switch MergePolicy(value) {
	case MergeOverwrite, MergeFill:
		return MergePolicy(value), nil
	default:
		return "", fmt.Errorf("invalid merge policy %q (want overwrite or fill)", value)
	}
}

// Merge combines a previous enrichment with a fresh pass under the given
// policy. A nil prior always yields the fresh result.
func Merge(prior *domain.EnrichmentResult, next domain.EnrichmentResult, policy MergePolicy) domain.EnrichmentResult {
	if prior == nil || policy == MergeOverwrite {
		return next
	}

	merged := next
	if prior.Language != nil {
		merged.Language = prior.Language
	}
	if prior.PlaceName != nil {
		merged.PlaceName = prior.PlaceName
		merged.LocationConfidence = prior.LocationConfidence
	}
	if prior.Coordinates != nil {
		merged.Coordinates = prior.Coordinates
	}
	if prior.DisasterType != domain.DisasterUnknown && prior.DisasterType != "" {
		merged.DisasterType = prior.DisasterType
	}
	return merged
}
