// Package nlp wraps the in-process language models. Both adapters satisfy the
// small interfaces the enrichment stages consume, so everything above this
// package tests against stubs instead of the real models.
package nlp

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// minDetectableRunes is the shortest text worth running detection on. Below
// this length every detector is guessing.
const minDetectableRunes = 3

// LanguageDetector identifies the dominant language of report text and emits
// its lowercase ISO 639-1 code.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector over all spoken languages. The
// relative-distance threshold makes the detector abstain on ambiguous text
// instead of returning a coin flip; abstention maps to a null language field
// downstream.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllSpokenLanguages().
			WithMinimumRelativeDistance(0.25).
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code for the text. ok is false when
// the text is too short or the model has no confident answer.
func (d *LanguageDetector) Detect(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minDetectableRunes {
		return "", false
	}

	language, ok := d.detector.DetectLanguageOf(trimmed)
	if !ok {
		return "", false
	}
	return strings.ToLower(language.IsoCode639_1().String()), true
}
