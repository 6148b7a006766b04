package main

import (
	"context"
	"fmt"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	infrasummarizer "github.com/crb2nu/news-analyzer/internal/infra/summarizer"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository/postgres"
	"github.com/crb2nu/news-analyzer/internal/summarizer"
)

type summarizerDeps struct {
	worker *summarizer.Worker
}

func wireSummarizer(ctx context.Context) (*summarizerDeps, func(), error) {
	llmCfg, err := platformconfig.LoadLLMConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := bootstrap.OpenDB()
	if err != nil {
		return nil, nil, err
	}
	client := postgres.NewClient(db)
	articles := postgres.NewArticleRepository(client)
	summaries := postgres.NewSummaryRepository(client)

	w := summarizer.New(articles, summaries, nil, summarizer.NewOpenAIEmbedder(llmCfg.APIBase, llmCfg.APIKey, llmCfg.Model))

	llm, err := infrasummarizer.NewOpenAI(llmCfg.APIBase, llmCfg.APIKey, infrasummarizer.DefaultConfig(), w.NotifyThrottled)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("summarizer: build llm client: %w", err)
	}
	w.SetSummarizer(llm)

	cleanup := func() { _ = db.Close() }
	return &summarizerDeps{worker: w}, cleanup, nil
}
