package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/dailynews-crawler/internal/crawler"
)

func newBatchCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "batch <start> <end>",
		Short: "Crawl every date in an inclusive range",
		Long: `Crawls each date from start to end (both YYYYMMDD) one at a time with the
configured gap between dates. A failed date is reported and the batch moves on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := a.Batch.Run(cmd.Context(), args[0], args[1], force)
			if werr := writeBatchSummary(cmd.OutOrStdout(), summary); werr != nil && err == nil {
				err = werr
			}
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d dates failed", summary.Failed, len(summary.Results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-crawl dates that are already stored")
	return cmd
}

func writeBatchSummary(w io.Writer, summary crawler.BatchSummary) error {
	rows := make([][]string, 0, len(summary.Results))
	for _, res := range summary.Results {
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		}
		rows = append(rows, []string{res.Date.String(), res.Status, strconv.Itoa(res.Count), detail})
	}
	if err := writeTable(w, []string{"DATE", "STATUS", "ARTICLES", "ERROR"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nsucceeded %d, skipped %d, failed %d\n",
		summary.Succeeded, summary.Skipped, summary.Failed)
	return err
}

// writeTable pads cells by display width so CJK text lines up.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	line := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			if i == len(cells)-1 {
				padded[i] = cell
				continue
			}
			padded[i] = runewidth.FillRight(cell, widths[i])
		}
		return strings.TrimRight(strings.Join(padded, "  "), " ") + "\n"
	}
	if _, err := io.WriteString(w, line(headers)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := io.WriteString(w, line(row)); err != nil {
			return err
		}
	}
	return nil
}
