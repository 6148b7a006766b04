package notifier

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/crb2nu/news-analyzer/internal/domain"
)

// RankingConfig is the optional YAML policy file behind `notifier send
// --ranking`: an operator can reorder section priority or change the
// digest size per publication without a rebuild.
type RankingConfig struct {
	Ranking struct {
		SectionPriority []string `yaml:"section_priority"`
		TopN            int      `yaml:"top_n"`
	} `yaml:"ranking"`
}

// LoadRankingConfig reads and validates the policy file at path.
// The path comes from a CLI flag, not user input.
func LoadRankingConfig(path string) (*RankingConfig, error) {
	// #nosec G304 -- path is provided by a trusted source (CLI flag)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ranking config: %w", err)
	}

	var cfg RankingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse ranking config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ranking config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *RankingConfig) validate() error {
	if c.Ranking.TopN < 0 {
		return fmt.Errorf("top_n must not be negative")
	}
	seen := make(map[string]bool, len(c.Ranking.SectionPriority))
	for _, s := range c.Ranking.SectionPriority {
		if s == "" {
			return fmt.Errorf("section_priority entries must be non-empty")
		}
		if seen[s] {
			return fmt.Errorf("duplicate section %q in section_priority", s)
		}
		seen[s] = true
	}
	return nil
}

// Ranker builds a Ranker using the configured section order. Sections
// not listed sort after every listed one; with no section_priority at
// all the default ranker applies unchanged.
func (c *RankingConfig) Ranker() Ranker {
	if len(c.Ranking.SectionPriority) == 0 {
		return DefaultRanker{}
	}
	prio := make(map[string]int, len(c.Ranking.SectionPriority))
	for i, s := range c.Ranking.SectionPriority {
		prio[s] = i
	}
	return configRanker{priority: prio}
}

// configRanker ranks like DefaultRanker but with a file-supplied section
// order replacing the built-in one.
type configRanker struct {
	priority map[string]int
}

func (r configRanker) Top(articles []*domain.Article, n int) []*domain.Article {
	ranked := make([]*domain.Article, len(articles))
	copy(ranked, articles)
	prio := func(section string) int {
		if p, ok := r.priority[section]; ok {
			return p
		}
		return len(r.priority)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.WordCount != b.WordCount {
			return a.WordCount > b.WordCount
		}
		pa, pb := prio(a.Section), prio(b.Section)
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
