package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
)

// ScoreConfig holds the credibility weights and thresholds. These are policy
// parameters, not physics; operators tune them through configuration.
type ScoreConfig struct {
	// SourcePriors are the per-source trust baselines, scaled by SourceWeight
	// into the starting score.
	SourcePriors map[domain.Source]float64
	SourceWeight float64

	MediaBoost           float64
	PlaceBoost           float64
	CoordinateBoost      float64
	OfficialOverlapBoost float64

	// ReviewLow..ReviewHigh is the ambiguous middle band that flags a report
	// for human review. RumorFloor is the score below which rumor markers in
	// the text flag the report as a suspected rumor.
	ReviewLow  float64
	ReviewHigh float64
	RumorFloor float64
}

// DefaultScoreConfig returns the baseline policy: authoritative feeds near
// full trust, social platforms well below, unverified citizen reports lowest.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		SourcePriors: map[domain.Source]float64{
			domain.SourceUSGS:    0.9,
			domain.SourceGDACS:   0.8,
			domain.SourceRSS:     0.5,
			domain.SourceReddit:  0.4,
			domain.SourceX:       0.3,
			domain.SourceCitizen: 0.2,
			domain.SourceUnknown: 0.1,
		},
		SourceWeight:         0.6,
		MediaBoost:           0.1,
		PlaceBoost:           0.05,
		CoordinateBoost:      0.1,
		OfficialOverlapBoost: 0.2,
		ReviewLow:            0.3,
		ReviewHigh:           0.6,
		RumorFloor:           0.25,
	}
}

// rumorMarkers are hedging phrases that, combined with a low score, flag a
// report as a suspected rumor.
var rumorMarkers = []string{
	"rumor", "heard", "someone said", "friend told me",
	"unconfirmed", "allegedly", "supposedly", "apparently",
	"not sure", "might be", "could be", "possibly",
}

// exaggerationMarkers are sensational phrasings that reduce the score.
var exaggerationMarkers = []string{
	"!!!", "share before deleted", "they don't want you to know",
	"everyone is dead", "total destruction",
}

// corroborationWindow bounds how far back the event index is consulted.
const corroborationWindow = 24 * time.Hour

// EventIndex answers whether official sources reported events near a
// location recently. Implementations live with the persistence layer; a nil
// index skips corroboration entirely.
type EventIndex interface {
	NearbyOfficial(ctx context.Context, c domain.Coordinates, within time.Duration) (int, error)
}

// Scorer derives the credibility score and review/rumor flags for a report.
type Scorer struct {
	cfg    ScoreConfig
	index  EventIndex
	logger *slog.Logger
}

// NewScorer creates a Scorer. Pass a nil index to skip cross-checking
// against known recent events.
func NewScorer(cfg ScoreConfig, index EventIndex, logger *slog.Logger) *Scorer {
	return &Scorer{cfg: cfg, index: index, logger: logger}
}

// Score combines the source prior with text and enrichment signals into a
// [0,1] score plus the needs_review and suspected_rumor flags. The returned
// signal map records every named contribution for operator debugging.
func (s *Scorer) Score(ctx context.Context, report domain.Report, partial domain.EnrichmentResult) (float64, bool, bool, map[string]float64) {
	signals := make(map[string]float64)

	prior, ok := s.cfg.SourcePriors[report.Source]
	if !ok {
		prior = s.cfg.SourcePriors[domain.SourceUnknown]
	}
	score := prior * s.cfg.SourceWeight
	signals["source_prior"] = prior

	if report.MediaURL != "" {
		score += s.cfg.MediaBoost
		signals["media_presence"] = s.cfg.MediaBoost
	}

	if partial.PlaceName != nil && len(*partial.PlaceName) > 5 {
		score += s.cfg.PlaceBoost
		signals["place_specificity"] = s.cfg.PlaceBoost
	}

	suspiciousCoords := false
	if partial.Coordinates != nil {
		score += s.cfg.CoordinateBoost
		signals["has_coordinates"] = s.cfg.CoordinateBoost
		// Null-island coordinates are a classic bad-geotag artifact.
		if abs(partial.Coordinates.Lat) < 0.001 && abs(partial.Coordinates.Lon) < 0.001 {
			score -= 0.2
			signals["suspicious_coordinates"] = -0.2
			suspiciousCoords = true
		}
	}

	switch n := len(report.Text); {
	case n > 100:
		score += 0.05
		signals["detailed_text"] = 0.05
	case n < 20:
		score -= 0.1
		signals["brief_text"] = -0.1
	}

	if report.Magnitude != nil {
		score += 0.05
		signals["has_magnitude"] = 0.05
		if *report.Magnitude > 9.0 {
			score -= 0.1
			signals["extreme_magnitude"] = -0.1
		}
	}

	lower := strings.ToLower(report.Text)
	hasRumorMarkers := containsAny(lower, rumorMarkers)
	if hasRumorMarkers {
		score -= 0.1
		signals["rumor_markers"] = -0.1
	}
	if containsAny(lower, exaggerationMarkers) {
		score -= 0.1
		signals["exaggerated_language"] = -0.1
	}

	if overlap := s.officialOverlap(ctx, partial.Coordinates); overlap > 0 {
		boost := s.cfg.OfficialOverlapBoost * overlap
		score += boost
		signals["official_overlap"] = boost
	}

	score = clamp01(score)

	needsReview := (score >= s.cfg.ReviewLow && score < s.cfg.ReviewHigh) || suspiciousCoords
	suspectedRumor := score < s.cfg.RumorFloor && hasRumorMarkers

	return score, needsReview, suspectedRumor, signals
}

// officialOverlap returns the [0,1] fraction of the corroboration cap met by
// nearby official-source events. Index errors degrade to zero overlap.
func (s *Scorer) officialOverlap(ctx context.Context, coords *domain.Coordinates) float64 {
	if s.index == nil || coords == nil {
		return 0
	}
	count, err := s.index.NearbyOfficial(ctx, *coords, corroborationWindow)
	if err != nil {
		s.logger.Warn("corroboration lookup failed", "error", err)
		return 0
	}
	// Full boost at 2+ overlapping official events.
	overlap := float64(count) / 2.0
	if overlap > 1 {
		overlap = 1
	}
	return overlap
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
