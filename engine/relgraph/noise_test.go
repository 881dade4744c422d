package relgraph

import "testing"

func TestIsNoise(t *testing.T) {
	tests := []struct {
		title string
		lang  string
		noise bool
	}{
		{"1959", "en", true},
		{"20th century", "en", true},
		{"19. Jahrhundert", "de", true},
		{"Category:Mathematicians", "en", true},
		{"Wikipedia:Citation needed", "en", true},
		{"List of sovereign states", "en", true},
		{"March 1968", "en", true},
		{"", "en", true},

		{"Ada Lovelace", "en", false},
		{"Charles Babbage", "en", false},
		{"Analytical Engine", "en", false},
		{"Paris", "fr", false},
	}
	for _, tt := range tests {
		if got := isNoise(tt.title, tt.lang); got != tt.noise {
			t.Errorf("isNoise(%q, %s) = %v, want %v", tt.title, tt.lang, got, tt.noise)
		}
	}
}

func TestIsNoise_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	if !isNoise("18th century", "xx") {
		t.Error("unknown language should use the English tables")
	}
}
