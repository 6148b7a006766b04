// Package notifier composes and delivers the daily digest of that day's
// top summarized Articles to a push endpoint.
package notifier

import (
	"sort"

	"github.com/crb2nu/news-analyzer/internal/domain"
)

// sectionPriority orders sections the same way the repository's default
// ListNotifiableOnDate query does, kept here so Ranker implementations
// that re-rank a broader pool stay consistent with the SQL-side default.
var sectionPriority = map[string]int{
	"News":          0,
	"Local":         1,
	"Public Safety": 2,
	"Business":      3,
	"Sports":        4,
	"Opinion":       5,
	"Obituaries":    6,
}

func priorityOf(section string) int {
	if p, ok := sectionPriority[section]; ok {
		return p
	}
	return 7
}

// Ranker orders a pool of summarized Articles and returns the top n.
// The policy sits behind an interface so a publication can swap in its
// own ranking without touching the digest plumbing.
type Ranker interface {
	Top(articles []*domain.Article, n int) []*domain.Article
}

// DefaultRanker ranks by word_count DESC, then section priority, then
// id ASC.
type DefaultRanker struct{}

// Top sorts a copy of articles by the default rule and returns the first n.
func (DefaultRanker) Top(articles []*domain.Article, n int) []*domain.Article {
	ranked := make([]*domain.Article, len(articles))
	copy(ranked, articles)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.WordCount != b.WordCount {
			return a.WordCount > b.WordCount
		}
		pa, pb := priorityOf(a.Section), priorityOf(b.Section)
		if pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
