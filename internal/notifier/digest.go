package notifier

import (
	"fmt"
	"strings"

	"github.com/crb2nu/news-analyzer/internal/domain"
)

// DigestItem is one Article selected for the daily push, paired with the
// one-line summary shown in the body.
type DigestItem struct {
	Article    *domain.Article
	SummaryOne string
}

// firstLine returns the first non-empty line of text, used to fit a
// Summary's (possibly multi-sentence) brief into the digest's one-line
// format.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// buildBody composes the plain-text digest body: title + one-line
// summary per item, separated by a blank line.
func buildBody(items []DigestItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(item.Article.Title)
		if item.SummaryOne != "" {
			b.WriteString("\n")
			b.WriteString(item.SummaryOne)
		}
	}
	return b.String()
}

// buildTitle composes the push notification's Title header.
func buildTitle(date string, count int) string {
	if count == 1 {
		return fmt.Sprintf("Daily digest for %s: 1 story", date)
	}
	return fmt.Sprintf("Daily digest for %s: %d stories", date, count)
}

// buildTags derives the comma-separated ntfy Tags header from the
// sections represented in the digest, deduplicated and order-preserving.
func buildTags(items []DigestItem) string {
	seen := make(map[string]bool)
	var tags []string
	tags = append(tags, "newspaper")
	for _, item := range items {
		section := item.Article.Section
		if section == "" || seen[section] {
			continue
		}
		seen[section] = true
		tags = append(tags, strings.ToLower(strings.ReplaceAll(section, " ", "_")))
	}
	return strings.Join(tags, ",")
}
