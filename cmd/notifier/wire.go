package main

import (
	"context"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/notifier"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository/postgres"
)

type notifierDeps struct {
	notifier   *notifier.Notifier
	configTopN int
}

func wireNotifier(ctx context.Context, rankingPath string) (*notifierDeps, func(), error) {
	cfg, err := platformconfig.LoadNotifierConfig()
	if err != nil {
		return nil, nil, err
	}

	var ranking *notifier.RankingConfig
	if rankingPath != "" {
		ranking, err = notifier.LoadRankingConfig(rankingPath)
		if err != nil {
			return nil, nil, err
		}
	}

	db, err := bootstrap.OpenDB()
	if err != nil {
		return nil, nil, err
	}
	client := postgres.NewClient(db)
	articles := postgres.NewArticleRepository(client)
	summaries := postgres.NewSummaryRepository(client)

	sourceBase := platformconfig.OptionalEnv("APP_PUBLIC_BASE_URL", "")
	var opts []notifier.Option
	if sourceBase != "" {
		opts = append(opts, notifier.WithSourceBase(sourceBase))
	}
	configTopN := 0
	if ranking != nil {
		opts = append(opts, notifier.WithRanker(ranking.Ranker()))
		configTopN = ranking.Ranking.TopN
	}
	n := notifier.New(articles, summaries, cfg, opts...)

	cleanup := func() { _ = db.Close() }
	return &notifierDeps{notifier: n, configTopN: configTopN}, cleanup, nil
}
