package notifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crb2nu/news-analyzer/internal/domain"
)

func writeRanking(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRankingConfig(t *testing.T) {
	path := writeRanking(t, `
ranking:
  section_priority:
    - Obituaries
    - News
  top_n: 3
`)
	cfg, err := LoadRankingConfig(path)
	if err != nil {
		t.Fatalf("LoadRankingConfig err=%v", err)
	}
	if got := cfg.Ranking.TopN; got != 3 {
		t.Errorf("TopN = %d, want 3", got)
	}
	if len(cfg.Ranking.SectionPriority) != 2 || cfg.Ranking.SectionPriority[0] != "Obituaries" {
		t.Errorf("SectionPriority = %v", cfg.Ranking.SectionPriority)
	}
}

func TestLoadRankingConfigRejectsDuplicateSections(t *testing.T) {
	path := writeRanking(t, `
ranking:
  section_priority: [News, News]
`)
	if _, err := LoadRankingConfig(path); err == nil {
		t.Fatal("expected validation error for duplicate section")
	}
}

func TestLoadRankingConfigRejectsNegativeTopN(t *testing.T) {
	path := writeRanking(t, `
ranking:
  top_n: -1
`)
	if _, err := LoadRankingConfig(path); err == nil {
		t.Fatal("expected validation error for negative top_n")
	}
}

func TestConfigRankerUsesFileSectionOrder(t *testing.T) {
	cfg, err := LoadRankingConfig(writeRanking(t, `
ranking:
  section_priority:
    - Obituaries
    - News
`))
	if err != nil {
		t.Fatal(err)
	}

	// Equal word counts force the section rule to decide: the file puts
	// Obituaries ahead of News, the opposite of the built-in order.
	pool := []*domain.Article{
		{ID: 1, Section: "News", WordCount: 100},
		{ID: 2, Section: "Obituaries", WordCount: 100},
		{ID: 3, Section: "Sports", WordCount: 100},
	}
	top := cfg.Ranker().Top(pool, 2)
	if len(top) != 2 || top[0].ID != 2 || top[1].ID != 1 {
		ids := make([]int64, len(top))
		for i, a := range top {
			ids[i] = a.ID
		}
		t.Fatalf("Top ids = %v, want [2 1]", ids)
	}
}

func TestConfigRankerEmptyPriorityFallsBackToDefault(t *testing.T) {
	cfg := &RankingConfig{}
	if _, ok := cfg.Ranker().(DefaultRanker); !ok {
		t.Fatalf("Ranker() = %T, want DefaultRanker", cfg.Ranker())
	}
}
