package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageDetector_Detect(t *testing.T) {
	detector := NewLanguageDetector()

	tests := []struct {
		name     string
		text     string
		expected string
		ok       bool
	}{
		{
			name:     "english",
			text:     "Severe flooding has been reported across the city after days of heavy rainfall",
			expected: "en",
			ok:       true,
		},
		{
			name:     "spanish",
			text:     "Un fuerte terremoto sacudió la región esta madrugada y varios edificios resultaron dañados",
			expected: "es",
			ok:       true,
		},
		{
			name:     "french",
			text:     "Les inondations ont coupé plusieurs routes dans le sud du pays depuis hier matin",
			expected: "fr",
			ok:       true,
		},
		{name: "too short", text: "ok", ok: false},
		{name: "whitespace only", text: "   \n ", ok: false},
		{name: "empty", text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := detector.Detect(tt.text)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, code)
			} else {
				assert.Empty(t, code)
			}
		})
	}
}

func TestEntityRecognizer_Entities(t *testing.T) {
	recognizer := NewEntityRecognizer()

	entities, err := recognizer.Entities("Emergency crews in London responded to severe flooding on Friday, the London authorities said.")
	require.NoError(t, err)

	var foundPlace bool
	for _, ent := range entities {
		if ent.Text == "London" && ent.Label == "GPE" {
			foundPlace = true
		}
	}
	assert.True(t, foundPlace, "expected London to be tagged as a place, got %v", entities)
}

func TestEntityRecognizer_NoEntities(t *testing.T) {
	recognizer := NewEntityRecognizer()

	entities, err := recognizer.Entities("it rained a little this morning")
	require.NoError(t, err)
	assert.Empty(t, entities)
}
