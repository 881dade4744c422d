package relgraph

import "strings"

// Noise tables for textual link titles. Years, centuries, calendar
// months, meta namespaces, and list articles carry no navigable
// meaning and are dropped before scoring.

var centuryTokens = map[string]string{
	"en": "century",
	"de": "jahrhundert",
	"fr": "siècle",
	"es": "siglo",
	"it": "secolo",
}

var monthTokens = map[string][]string{
	"en": {
		"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december",
	},
	"de": {
		"januar", "februar", "märz", "april", "mai", "juni", "juli",
		"august", "september", "oktober", "november", "dezember",
	},
	"fr": {
		"janvier", "février", "mars", "avril", "mai", "juin", "juillet",
		"août", "septembre", "octobre", "novembre", "décembre",
	},
}

var metaPrefixes = []string{
	"Wikipedia:", "Template:", "Category:", "Portal:", "Help:",
	"File:", "Draft:", "Module:", "Talk:", "Special:",
}

var listPrefixes = map[string][]string{
	"en": {"list of "},
	"de": {"liste "},
	"fr": {"liste "},
}

// isNoise reports whether a link title should never become a node.
func isNoise(title, lang string) bool {
	if title == "" {
		return true
	}
	if isNumeric(title) {
		return true
	}
	lower := strings.ToLower(title)

	century, ok := centuryTokens[lang]
	if !ok {
		century = centuryTokens["en"]
	}
	if strings.Contains(lower, century) {
		return true
	}

	for _, p := range metaPrefixes {
		if strings.HasPrefix(title, p) {
			return true
		}
	}

	lists, ok := listPrefixes[lang]
	if !ok {
		lists = listPrefixes["en"]
	}
	for _, p := range lists {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}

	months, ok := monthTokens[lang]
	if !ok {
		months = monthTokens["en"]
	}
	for _, m := range months {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
