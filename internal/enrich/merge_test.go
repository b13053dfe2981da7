package enrich

import (
	"testing"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMergePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected MergePolicy
		wantErr  bool
	}{
		{"overwrite", MergeOverwrite, false},
		{"fill", MergeFill, false},
		{"", "", true},
		{"replace", "", true},
		{"Fill", "", true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			policy, err := ParseMergePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, policy)
		})
	}
}

func TestMerge(t *testing.T) {
	priorTime := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	nextTime := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	prior := domain.EnrichmentResult{
		Language:           strPtr("hi"),
		DisasterType:       domain.DisasterFlood,
		PlaceName:          strPtr("Mumbai"),
		Coordinates:        &domain.Coordinates{Lat: 19.07, Lon: 72.87},
		LocationConfidence: 0.8,
		CredibilityScore:   0.55,
		NeedsReview:        true,
		ProcessedAt:        priorTime,
	}
	next := domain.EnrichmentResult{
		Language:         strPtr("en"),
		DisasterType:     domain.DisasterUnknown,
		CredibilityScore: 0.3,
		ProcessedAt:      nextTime,
	}

	t.Run("nil prior yields fresh result", func(t *testing.T) {
		assert.Equal(t, next, Merge(nil, next, MergeFill))
	})

	t.Run("overwrite discards prior", func(t *testing.T) {
		assert.Equal(t, next, Merge(&prior, next, MergeOverwrite))
	})

	t.Run("fill keeps resolved prior fields", func(t *testing.T) {
		merged := Merge(&prior, next, MergeFill)

		assert.Equal(t, "hi", *merged.Language)
		assert.Equal(t, domain.DisasterFlood, merged.DisasterType)
		assert.Equal(t, "Mumbai", *merged.PlaceName)
		assert.Equal(t, prior.Coordinates, merged.Coordinates)
		assert.InDelta(t, 0.8, merged.LocationConfidence, 1e-9)
	})

	t.Run("fill recomputes score flags and timestamp", func(t *testing.T) {
		merged := Merge(&prior, next, MergeFill)

		assert.InDelta(t, 0.3, merged.CredibilityScore, 1e-9)
		assert.False(t, merged.NeedsReview)
		assert.Equal(t, nextTime, merged.ProcessedAt)
	})

	t.Run("fill takes new values where prior is absent", func(t *testing.T) {
		sparse := domain.EnrichmentResult{DisasterType: domain.DisasterUnknown, ProcessedAt: priorTime}
		fresh := domain.EnrichmentResult{
			Language:           strPtr("en"),
			DisasterType:       domain.DisasterStorm,
			PlaceName:          strPtr("Cebu"),
			LocationConfidence: 0.6,
			ProcessedAt:        nextTime,
		}

		merged := Merge(&sparse, fresh, MergeFill)
		assert.Equal(t, fresh, merged)
	})
}
