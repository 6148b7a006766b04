// Command extractor drains raw blobs from the Object Store into
// normalized Articles.
package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/extractor"
	infrafetcher "github.com/crb2nu/news-analyzer/internal/infra/fetcher"
	"github.com/crb2nu/news-analyzer/internal/objectstore"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository/postgres"
)

func main() {
	logger := bootstrap.NewLogger()

	var publication string
	var dateStr string
	var force bool

	root := &cobra.Command{Use: "extractor", Short: "Extract normalized Articles from raw edition blobs"}

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Process one publication's edition into Articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap.RequireFlag("publication", publication); err != nil {
				return err
			}
			if _, err := bootstrap.RequireFlag("date", dateStr); err != nil {
				return err
			}
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			ctx := cmd.Context()
			objCfg, err := platformconfig.LoadObjectStoreConfig()
			if err != nil {
				return err
			}
			store, err := objectstore.New(ctx, objectstore.Config{
				Endpoint:        objCfg.Endpoint,
				Region:          "us-east-1",
				Bucket:          objCfg.Bucket,
				AccessKeyID:     objCfg.AccessKey,
				SecretAccessKey: objCfg.SecretKey,
				UsePathStyle:    true,
			})
			if err != nil {
				return fmt.Errorf("extractor: open object store: %w", err)
			}

			db, err := bootstrap.OpenDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			client := postgres.NewClient(db)
			ex := extractor.New(
				store,
				postgres.NewArticleRepository(client),
				postgres.NewArticleEventRepository(client),
				postgres.NewProcessingHistoryRepository(client),
				postgres.NewPublicationRepository(client),
				nil,
				infrafetcher.NewReadabilityFetcher(infrafetcher.DefaultConfig()),
			)

			report, err := ex.ProcessEdition(ctx, publication, date, force)
			if err != nil {
				return err
			}
			logger.Info("edition processed",
				slog.String("publication", publication),
				slog.String("date", dateStr),
				slog.Int("found", report.Found),
				slog.Int("new", report.New),
				slog.Int("duplicate", report.Duplicate),
				slog.Int("failed", report.Failed))
			if report.Failed > 0 {
				logger.Warn("some blobs failed extraction", slog.Any("keys", report.FailedKeys))
			}
			return nil
		},
	}
	processCmd.Flags().StringVar(&publication, "publication", "", "publication slug")
	processCmd.Flags().StringVar(&dateStr, "date", "", "edition date, YYYY-MM-DD")
	processCmd.Flags().BoolVar(&force, "force", false, "accepted for CLI symmetry with scraper; see extractor.ProcessEdition")

	root.AddCommand(processCmd)

	ctx, stop := bootstrap.SignalContext(logger, platformconfig.DefaultCrawlTimeouts().GracePeriod)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		bootstrap.ExitForErr(logger, "extractor command failed", err)
	}
}
