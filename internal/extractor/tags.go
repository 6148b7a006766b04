package extractor

import (
	"sort"
	"strings"
)

// keywordLexicon maps a lowercase keyword to the tag it contributes;
// deliberately small and domain-specific, a keyword pass rather than a
// full NER model. An empty result is valid.
var keywordLexicon = map[string]string{
	"city council":        "government",
	"school board":        "education",
	"superintendent":      "education",
	"sheriff":             "public-safety",
	"fire department":     "public-safety",
	"football":            "sports",
	"basketball":          "sports",
	"festival":            "community",
	"fundraiser":          "community",
	"zoning":              "development",
	"planning commission": "development",
}

// ExtractTags scans content (case-insensitively) for lexicon phrases and
// returns the distinct tags found, sorted for deterministic output.
func ExtractTags(content string) []string {
	lower := strings.ToLower(content)
	seen := make(map[string]bool)
	for phrase, tag := range keywordLexicon {
		if strings.Contains(lower, phrase) {
			seen[tag] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
