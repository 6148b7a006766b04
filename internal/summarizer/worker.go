// Package summarizer is the batch worker that drains
// processing_status=extracted Articles, produces a brief Summary and
// optional Embedding, and advances status to summarized.
// It is distinct from internal/infra/summarizer, the low-level LLM
// client this package's RunBatch orchestrates.
package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crb2nu/news-analyzer/internal/domain"
	infrasummarizer "github.com/crb2nu/news-analyzer/internal/infra/summarizer"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// EmbeddingProvider generates a vector embedding for text. A nil
// provider is accepted by New; RunBatch then commits each Summary
// without an Embedding.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchOptions configures one RunBatch invocation.
type BatchOptions struct {
	BatchSize     int
	MaxConcurrent int
}

// DefaultBatchOptions returns the documented RunBatch defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{BatchSize: 50, MaxConcurrent: 5}
}

// BatchStats tallies one RunBatch run.
type BatchStats struct {
	Processed int
	Failed    int
}

// Worker drains the summarization queue.
type Worker struct {
	articles  repository.ArticleRepository
	summaries repository.SummaryRepository
	llm       infrasummarizer.Summarizer
	embedder  EmbeddingProvider

	semMu     sync.Mutex
	activeSem chan struct{}
	throttled int32
}

// New builds a Worker. embedder may be nil to skip embedding generation
// entirely (e.g. a deployment that has not enabled pgvector); RunBatch
// then advances status without writing an Embedding row. llm may be nil
// if the caller needs Worker.NotifyThrottled bound into the LLM client's
// construction before the client itself exists; call SetSummarizer once
// the client is built.
func New(
	articles repository.ArticleRepository,
	summaries repository.SummaryRepository,
	llm infrasummarizer.Summarizer,
	embedder EmbeddingProvider,
) *Worker {
	return &Worker{
		articles:  articles,
		summaries: summaries,
		llm:       llm,
		embedder:  embedder,
	}
}

// SetSummarizer assigns the LLM client after construction, used when the
// client itself needs Worker.NotifyThrottled as its onThrottled callback.
func (w *Worker) SetSummarizer(llm infrasummarizer.Summarizer) {
	w.llm = llm
}

// NotifyThrottled is passed as the onThrottled callback to
// infrasummarizer.NewOpenAI. On the first call during an active RunBatch
// it takes one semaphore slot as soon as one frees and holds it for the
// remainder of that batch; if no slot frees within a minute it gives up.
// Calls outside RunBatch, or after the first in a batch, are no-ops.
func (w *Worker) NotifyThrottled() {
	w.semMu.Lock()
	sem := w.activeSem
	w.semMu.Unlock()
	if sem == nil {
		return
	}
	if !atomic.CompareAndSwapInt32(&w.throttled, 0, 1) {
		return
	}
	go func() {
		select {
		case sem <- struct{}{}:
		case <-time.After(time.Minute):
		}
	}()
}

// RunBatch selects up to opts.BatchSize extracted Articles ordered by
// date_extracted ASC and processes them with bounded concurrency
// opts.MaxConcurrent via a channel semaphore under an errgroup. The
// first 429 reported through NotifyThrottled during the batch steals one
// slot from the semaphore for the remainder of the batch, shedding load
// when the gateway rate-limits.
func (w *Worker) RunBatch(ctx context.Context, opts BatchOptions) (BatchStats, error) {
	if opts.BatchSize <= 0 {
		opts = DefaultBatchOptions()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultBatchOptions().MaxConcurrent
	}

	batch, err := w.articles.ListByStatus(ctx, domain.StatusExtracted, opts.BatchSize)
	if err != nil {
		return BatchStats{}, err
	}

	var stats BatchStats
	var mu sync.Mutex

	sem := make(chan struct{}, opts.MaxConcurrent)
	w.semMu.Lock()
	w.activeSem = sem
	atomic.StoreInt32(&w.throttled, 0)
	w.semMu.Unlock()
	defer func() {
		w.semMu.Lock()
		w.activeSem = nil
		w.semMu.Unlock()
	}()

	eg, egCtx := errgroup.WithContext(ctx)

	for _, article := range batch {
		a := article
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }()

			if err := w.processOne(egCtx, a); err != nil {
				slog.Warn("summarizer: article failed", slog.Int64("article_id", a.ID), slog.String("error", err.Error()))
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			stats.Processed++
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (w *Worker) processOne(ctx context.Context, a *domain.Article) error {
	result, err := w.llm.Summarize(ctx, a.Title, a.Content)
	if err != nil {
		w.markFailed(ctx, a.ID, err)
		return err
	}

	summary := &domain.Summary{
		ArticleID:        a.ID,
		SummaryText:      result.Text,
		SummaryType:      "brief",
		Bullets:          result.Bullets,
		Tags:             result.Tags,
		ModelUsed:        "active",
		TokensUsed:       result.TokensUsed,
		GenerationTimeMs: result.GenerationTimeMs,
		CreatedAt:        time.Now().UTC(),
	}

	var embedding *domain.Embedding
	if w.embedder != nil {
		vector, err := w.embedder.Embed(ctx, a.Title+"\n\n"+a.Content)
		if err != nil {
			slog.Warn("summarizer: embedding failed, continuing without it",
				slog.Int64("article_id", a.ID), slog.String("error", err.Error()))
		} else {
			embedding = &domain.Embedding{
				ArticleID: a.ID,
				Vector:    vector,
				Provider:  "openai",
				Model:     "text-embedding-3-small",
				CreatedAt: time.Now().UTC(),
			}
		}
	}

	// Summary, embedding, and the status advance commit in one
	// transaction; any failure here is unrecoverable for this article
	// and must reach failed, or the next batch re-selects it and pays
	// for the same LLM call again.
	if err := w.summaries.CommitSummary(ctx, summary, embedding); err != nil {
		w.markFailed(ctx, a.ID, err)
		return err
	}
	return nil
}

// markFailed records the terminal failure and its reason. A canceled
// context is not an article failure — the batch was killed, the article
// stays extracted and is retried next tick.
func (w *Worker) markFailed(ctx context.Context, id int64, cause error) {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return
	}
	if err := w.articles.MarkFailed(ctx, id, cause.Error()); err != nil {
		slog.Warn("summarizer: mark failed did not stick",
			slog.Int64("article_id", id), slog.String("error", err.Error()))
	}
}
