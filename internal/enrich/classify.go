package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
)

// keywordRule pairs a disaster type with the keywords that select it. The
// slice order is the tie-break: the first rule with any hit wins, so text
// mentioning both "earthquake" and "flooding" classifies as earthquake.
type keywordRule struct {
	Type     domain.DisasterType
	Keywords []string
}

var keywordRules = []keywordRule{
	{domain.DisasterEarthquake, []string{"earthquake", "quake", "seismic", "tremor", "aftershock", "magnitude", "epicenter"}},
	{domain.DisasterFlood, []string{"flood", "flooding", "inundation", "overflow", "water level", "levee"}},
	{domain.DisasterFire, []string{"fire", "wildfire", "blaze", "burning", "smoke", "flame", "arson"}},
	{domain.DisasterStorm, []string{"storm", "hurricane", "typhoon", "cyclone", "tornado", "gale", "squall"}},
	{domain.DisasterDrought, []string{"drought", "arid", "water shortage", "famine", "crop failure"}},
	{domain.DisasterLandslide, []string{"landslide", "mudslide", "avalanche", "slope failure", "rock fall"}},
	{domain.DisasterVolcano, []string{"volcano", "volcanic", "eruption", "lava", "magma", "crater"}},
	{domain.DisasterTsunami, []string{"tsunami", "tidal wave", "seismic wave", "coastal flooding"}},
	{domain.DisasterPandemic, []string{"pandemic", "epidemic", "virus", "outbreak", "infection", "covid"}},
	{domain.DisasterConflict, []string{"war", "conflict", "violence", "attack", "bombing", "shooting", "terrorism"}},
}

const classifyInstruction = "Classify the text as exactly one of these disaster types: " +
	"earthquake, flood, fire, storm, drought, landslide, volcano, tsunami, pandemic, conflict. " +
	"Respond with only the type name, or \"unknown\" if none apply."

// maxOracleTextLen bounds the text sent to the external oracle.
const maxOracleTextLen = 500

// Classifier maps report text to a disaster type using the keyword table,
// with an optional oracle fallback for text no rule matches.
type Classifier struct {
	oracle  domain.TextOracle
	timeout time.Duration
	logger  *slog.Logger
}

// NewClassifier creates a Classifier. Pass a nil oracle to disable the
// external fallback entirely.
func NewClassifier(oracle domain.TextOracle, timeout time.Duration, logger *slog.Logger) *Classifier {
	return &Classifier{oracle: oracle, timeout: timeout, logger: logger}
}

// Classify returns the disaster type for the text. Rule matching runs first;
// the oracle is consulted only when no rule matches, the caller allowed the
// fallback, and an oracle is configured. Every failure path degrades to
// DisasterUnknown.
func (c *Classifier) Classify(ctx context.Context, text string, allowFallback bool) domain.DisasterType {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Type
			}
		}
	}

	if !allowFallback || c.oracle == nil {
		return domain.DisasterUnknown
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := c.oracle.Complete(ctx, classifyInstruction, truncate(text, maxOracleTextLen))
	if err != nil {
		c.logger.Warn("oracle classification failed", "error", err)
		return domain.DisasterUnknown
	}

	return domain.ParseDisasterType(normalizeLabel(answer))
}

// normalizeLabel cleans up an oracle answer before validating it against the
// enumeration: oracles tend to add casing, quotes, or trailing punctuation.
func normalizeLabel(answer string) string {
	label := strings.ToLower(strings.TrimSpace(answer))
	label = strings.Trim(label, `"'.`)
	return label
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
