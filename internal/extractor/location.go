package extractor

import (
	"regexp"
	"strings"
)

// gazetteer is a small, fixed list of local place names the extractor can
// recognize without an external geocoding dependency. Real deployments can grow this list per
// publication without touching the extraction logic.
var gazetteer = []string{
	"City Hall", "County Courthouse", "Main Street", "Downtown",
	"Memorial Park", "Civic Center", "Public Library",
}

var atLocationRE = regexp.MustCompile(`(?i)\bat\s+([A-Z][A-Za-z0-9' .]{2,40})`)

// ExtractLocationName makes a best-effort guess at an article's primary
// location mention: a gazetteer hit first, then an "at <Proper Noun>"
// regex pass. Returns "" when nothing matches; location_name is
// optional on Article.
func ExtractLocationName(content string) string {
	for _, place := range gazetteer {
		if strings.Contains(content, place) {
			return place
		}
	}
	if m := atLocationRE.FindStringSubmatch(content); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
