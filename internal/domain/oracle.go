package domain

import "context"

// TextOracle is the external reasoning fallback shared by the classifier and
// the location extractor. Given a fixed instruction and raw text it returns a
// short answer string, or an error when the service is unreachable, times out,
// or responds malformed. Callers treat every error as "no answer" and degrade;
// an unconfigured oracle is represented by a nil TextOracle.
type TextOracle interface {
	Complete(ctx context.Context, instruction, text string) (string, error)
}
