package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-cli/internal/crawler"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage cached crawl results",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Print the cached crawl result for a website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, ok := crawler.Key(args[0]); !ok {
			return eris.Errorf("cache: invalid url %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "cache: init store")
		}
		defer st.Close() //nolint:errcheck

		r, ok := crawler.NewCache(st).Get(ctx, args[0])
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "no cached result for %s\n", args[0])
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <url>",
	Short: "Remove the cached crawl result for a website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, ok := crawler.Key(args[0]); !ok {
			return eris.Errorf("cache: invalid url %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "cache: init store")
		}
		defer st.Close() //nolint:errcheck

		if err := crawler.NewCache(st).Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheGetCmd, cacheDeleteCmd)
	rootCmd.AddCommand(cacheCmd)
}
