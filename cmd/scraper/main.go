// Command scraper drives the e-edition session lifecycle, edition
// discovery, and idempotent download into the Object Store.
package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/objectstore"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/scraper"
)

func main() {
	logger := bootstrap.NewLogger()

	var publication string
	var dateStr string
	var force bool
	var storagePath string

	root := &cobra.Command{
		Use:   "scraper",
		Short: "Drive e-edition login, edition discovery, and page download",
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Establish (or refresh) the publication's session blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap.RequireFlag("publication", publication); err != nil {
				return err
			}
			ctx := cmd.Context()
			deps, cleanup, err := wireScraper(ctx, publication)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := deps.scraper.Login(ctx); err != nil {
				return err
			}
			logger.Info("login succeeded", slog.String("publication", publication))
			return nil
		},
	}
	loginCmd.Flags().StringVar(&publication, "publication", "", "publication slug")

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Log in if needed and list an edition's page URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap.RequireFlag("publication", publication); err != nil {
				return err
			}
			if _, err := bootstrap.RequireFlag("date", dateStr); err != nil {
				return err
			}
			ctx := cmd.Context()
			deps, cleanup, err := wireScraper(ctx, publication)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := deps.scraper.Login(ctx); err != nil {
				return err
			}
			_, editionURL := editionURLs(publication, dateStr)
			pages, err := deps.scraper.Discover(ctx, editionURL)
			if err != nil {
				return err
			}
			logger.Info("discovered edition pages",
				slog.String("publication", publication),
				slog.String("date", dateStr),
				slog.Int("pages", len(pages)))
			for _, p := range pages {
				fmt.Printf("%d\t%s\n", p.Page, p.URL)
			}
			return nil
		},
	}
	discoverCmd.Flags().StringVar(&publication, "publication", "", "publication slug")
	discoverCmd.Flags().StringVar(&dateStr, "date", "", "edition date, YYYY-MM-DD")

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Discover and download an edition's pages into the object store",
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
			deps, cleanup, err := wireScraper(ctx, publication)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := deps.scraper.Login(ctx); err != nil {
				return err
			}
			_, editionURL := editionURLs(publication, dateStr)
			pages, err := deps.scraper.Discover(ctx, editionURL)
			if err != nil {
				return err
			}
			results, err := deps.scraper.Download(ctx, date, pages, force)
			if err != nil {
				return err
			}
			downloaded, failed := 0, 0
			for _, r := range results {
				switch r.Status {
				case scraper.DownloadDownloaded:
					downloaded++
				case scraper.DownloadFailed:
					failed++
				}
			}
			logger.Info("download complete",
				slog.String("publication", publication),
				slog.String("date", dateStr),
				slog.Int("pages", len(results)),
				slog.Int("downloaded", downloaded),
				slog.Int("failed", failed))
			return nil
		},
	}
	downloadCmd.Flags().StringVar(&publication, "publication", "", "publication slug")
	downloadCmd.Flags().StringVar(&dateStr, "date", "", "edition date, YYYY-MM-DD")
	downloadCmd.Flags().BoolVar(&force, "force", false, "re-download pages already present")
	downloadCmd.Flags().StringVar(&storagePath, "storage", "", "unused when the object store backs sessions; reserved for a local PVC fallback")

	var gcOlderThanDays int
	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete RawBlobs older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
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
				return fmt.Errorf("scraper gc: open object store: %w", err)
			}

			retentionDays := gcOlderThanDays
			if retentionDays <= 0 {
				retentionDays = platformconfig.LoadTuningConfig().CacheRetentionDays
			}
			deleted, err := store.SweepExpired(ctx, "", time.Duration(retentionDays)*24*time.Hour)
			if err != nil {
				return err
			}
			logger.Info("retention sweep complete",
				slog.Int("older_than_days", retentionDays),
				slog.Int("deleted", deleted))
			return nil
		},
	}
	gcCmd.Flags().IntVar(&gcOlderThanDays, "older-than-days", 0, "override CACHE_RETENTION_DAYS for this run")

	root.AddCommand(loginCmd, discoverCmd, downloadCmd, gcCmd)

	ctx, stop := bootstrap.SignalContext(logger, platformconfig.DefaultCrawlTimeouts().GracePeriod)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		bootstrap.ExitForErr(logger, "scraper command failed", err)
	}
}
