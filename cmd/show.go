package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/dailynews-crawler/internal/markdown"
	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

func newShowCmd() *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "show <date>",
		Short: "Print the stored document for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			date, err := news.ParseCrawlDate(args[0])
			if err != nil {
				return err
			}
			rec, err := a.Store.GetByDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			if !asHTML {
				_, err = fmt.Fprint(cmd.OutOrStdout(), rec.Content)
				return err
			}
			html, err := markdown.ToHTML(rec.Content)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(html)
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "render the document as HTML")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := a.Store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			latest := "-"
			if stats.LatestDate != "" {
				latest = stats.LatestDate.Dashed()
			}
			return writeTable(cmd.OutOrStdout(),
				[]string{"DAYS", "LATEST", "ARTICLES"},
				[][]string{{fmt.Sprint(stats.TotalCount), latest, fmt.Sprint(stats.TotalNews)}},
			)
		},
	}
}

// abstractWidth caps the abstract column in list and search output.
const abstractWidth = 48

func newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent stored dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := a.Store.Latest(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeSummaries(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of dates to list")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find stored dates whose abstract or document mentions keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := a.Store.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "no stored date mentions %q\n", args[0])
				return err
			}
			return writeSummaries(cmd.OutOrStdout(), recs)
		},
	}
}

func writeSummaries(w io.Writer, recs []news.Record) error {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		first, _, _ := strings.Cut(rec.Abstract, "\n")
		rows = append(rows, []string{
			rec.Date.Dashed(),
			fmt.Sprint(rec.ArticleCount),
			runewidth.Truncate(first, abstractWidth, "…"),
		})
	}
	return writeTable(w, []string{"DATE", "ARTICLES", "ABSTRACT"}, rows)
}
