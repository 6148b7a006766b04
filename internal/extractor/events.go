package extractor

import (
	"regexp"
	"time"

	"github.com/araddon/dateparse"
)

// eventDateRE finds date-shaped substrings worth handing to dateparse:
// "January 5, 2026", "1/5/2026", "2026-01-05", "Jan. 5".
var eventDateRE = regexp.MustCompile(
	`(?i)\b(?:` +
		`(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s*\d{4})?` +
		`|\d{1,2}/\d{1,2}/\d{2,4}` +
		`|\d{4}-\d{2}-\d{2}` +
		`)\b`,
)

// ExtractEventDates finds candidate date mentions in content and parses
// each with a natural-language date parser, discarding unparseable matches and duplicates.
func ExtractEventDates(content string, now time.Time) []time.Time {
	matches := eventDateRE.FindAllString(content, -1)
	seen := make(map[string]bool)
	var out []time.Time
	for _, m := range matches {
		t, err := dateparse.ParseAny(m)
		if err != nil {
			continue
		}
		// dateparse defaults a missing year to 0000; treat that as "this
		// year" so a bare "March 5" resolves sensibly.
		if t.Year() == 0 {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		key := t.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
