// Command notifier composes and sends the daily top-N digest to the
// configured ntfy topic.
package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
)

func main() {
	logger := bootstrap.NewLogger()

	var dateStr string
	var topN int
	var force bool
	var rankingPath string

	root := &cobra.Command{Use: "notifier", Short: "Send the daily digest"}

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send the digest for a given date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().UTC().Truncate(24 * time.Hour)
			if dateStr != "" {
				d, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				date = d
			}

			ctx := cmd.Context()
			deps, cleanup, err := wireNotifier(ctx, rankingPath)
			if err != nil {
				return err
			}
			defer cleanup()

			n := topN
			if !cmd.Flags().Changed("top-n") && deps.configTopN > 0 {
				n = deps.configTopN
			}
			result, err := deps.notifier.SendDigest(ctx, date, n, force)
			if err != nil {
				return err
			}
			logger.Info("digest sent",
				slog.String("date", date.Format("2006-01-02")),
				slog.Bool("posted", result.Posted),
				slog.Int("count", result.Count))
			return nil
		},
	}
	sendCmd.Flags().StringVar(&dateStr, "date", "", "edition date, YYYY-MM-DD (default: today)")
	sendCmd.Flags().IntVar(&topN, "top-n", 5, "number of articles to include in the digest")
	sendCmd.Flags().BoolVar(&force, "force", false, "resend the digest even if today's top articles were already notified")
	sendCmd.Flags().StringVar(&rankingPath, "ranking", "", "path to a YAML ranking policy file (section priority, default top-n)")

	root.AddCommand(sendCmd)

	ctx, stop := bootstrap.SignalContext(logger, platformconfig.DefaultCrawlTimeouts().GracePeriod)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		bootstrap.ExitForErr(logger, "notifier command failed", err)
	}
}
