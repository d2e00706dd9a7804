package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/crawler"
	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

func newCrawlCmd() *cobra.Command {
	var (
		date   string
		force  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl one day's transcript",
		Long: `Fetches the index page for --date (today in the configured timezone when
omitted), the summary page, and every article, then upserts the assembled
document. A date that is already stored is skipped unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				target := a.Runner.Today()
				if date != "" {
					if target, err = news.ParseCrawlDate(date); err != nil {
						return err
					}
				}
				res, err := a.Crawler.Crawl(cmd.Context(), target)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, res.Content)
				return err
			}

			outcome, err := a.Runner.Run(cmd.Context(), date, force)
			if err != nil {
				return err
			}
			a.Logger.Info("crawl command finished",
				zap.String("run_id", outcome.RunID),
				zap.String("status", outcome.Status),
			)
			switch outcome.Status {
			case crawler.OutcomeSkipped:
				_, err = fmt.Fprintf(out, "%s already stored, use --force to re-crawl\n", outcome.Date)
			default:
				_, err = fmt.Fprintf(out, "%s stored: %d articles (run %s)\n",
					outcome.Date, outcome.Record.ArticleCount, outcome.RunID)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "broadcast date as YYYYMMDD")
	cmd.Flags().BoolVar(&force, "force", false, "re-crawl even when the date is already stored")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the document without storing it")
	return cmd
}
