package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/model"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>...",
	Short: "Crawl websites for emails and social profiles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		refresh, _ := cmd.Flags().GetBool("refresh")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Enrich.Concurrency
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "crawl: init store")
		}
		defer st.Close() //nolint:errcheck

		urls := enrich.Unique(args)
		results, stats, runErr := enrich.New(newCrawler(st, refresh)).Run(ctx, urls, concurrency)
		zap.L().Info("crawl: complete",
			zap.Int("urls", stats.Unique),
			zap.Int("completed", stats.Completed),
			zap.Int("empty", stats.Empty),
			zap.Duration("elapsed", stats.Elapsed),
		)

		ordered := make([]model.CrawlResult, 0, len(results))
		for _, u := range urls {
			if r, ok := results[u]; ok {
				ordered = append(ordered, r)
			}
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(ordered); err != nil {
				return eris.Wrap(err, "crawl: encode results")
			}
		} else {
			writeCrawlTable(out, ordered)
		}
		return runErr
	},
}

func writeCrawlTable(out io.Writer, results []model.CrawlResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tPAGES\tEMAILS\tSOCIAL")
	fmt.Fprintln(w, "---\t-----\t------\t------")
	for _, r := range results {
		emails := model.Unknown
		if len(r.Emails) > 0 {
			emails = strings.Join(r.Emails, ", ")
		}
		var social []string
		for _, p := range model.AllPlatforms() {
			if u := r.Social[p]; u != "" {
				social = append(social, string(p))
			}
		}
		links := model.Unknown
		if len(social) > 0 {
			links = strings.Join(social, ",")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.URL, r.Pages, emails, links)
	}
	_ = w.Flush()
}

func init() {
	crawlCmd.Flags().Bool("refresh", false, "ignore cached results and crawl again")
	crawlCmd.Flags().Int("concurrency", 0, "max concurrent crawls (default from config)")
	crawlCmd.Flags().Bool("json", false, "print results as JSON")
	rootCmd.AddCommand(crawlCmd)
}
