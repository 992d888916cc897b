package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/dedupe"
	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/pipeline"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find, enrich and export business leads around a place",
	Long: `Geocodes a city/country (or uses --lat/--lon), queries OpenStreetMap for
businesses matching the search terms, optionally crawls their websites for
emails and social profiles, scores and deduplicates the leads, and writes them
as a table, CSV, XLSX or GeoJSON.

With --plan, the searches in a YAML plan file run in sequence and their leads
are merged and deduplicated before export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reqs, err := searchRequests(cmd)
		if err != nil {
			return err
		}

		format, output, err := outputTarget(cmd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "search: init store")
		}
		defer st.Close() //nolint:errcheck

		errOut := cmd.ErrOrStderr()
		sched := enrich.New(newCrawler(st, false), enrich.WithProgress(func(done, total int) {
			fmt.Fprintf(errOut, "\rcrawled %d/%d websites", done, total)
			if done == total {
				fmt.Fprintln(errOut)
			}
		}))
		opts := []pipeline.Option{
			pipeline.WithEnricher(sched),
			pipeline.WithWeights(weights()),
		}
		if anyVerify(reqs) {
			opts = append(opts, pipeline.WithVerifier(newVerifier()))
		}
		p := pipeline.New(newGeocoder(st), newOverpass(st), opts...)

		var (
			leads  []model.Lead
			runErr error
		)
		for _, req := range reqs {
			res, err := p.Run(ctx, req)
			if res != nil {
				leads = append(leads, res.Leads...)
				printSummary(errOut, req, res)
			}
			if err != nil {
				runErr = err
				break
			}
		}
		if len(reqs) > 1 {
			leads = dedupe.Dedupe(leads)
		}

		minScore, _ := cmd.Flags().GetInt("min-score")
		query, _ := cmd.Flags().GetString("filter")
		leads = export.Filter{MinScore: minScore, Query: query}.Apply(leads)

		if len(leads) > 0 || runErr == nil {
			if err := writeLeads(cmd.OutOrStdout(), format, output, leads); err != nil {
				return err
			}
		}
		if runErr != nil {
			if ctx.Err() != nil {
				zap.L().Warn("search: interrupted, partial results written", zap.Int("leads", len(leads)))
			}
			return runErr
		}
		return nil
	},
}

// searchRequests builds the requests from --plan or the search flags, filling
// unset values from config.
func searchRequests(cmd *cobra.Command) ([]pipeline.Request, error) {
	planPath, _ := cmd.Flags().GetString("plan")

	var reqs []pipeline.Request
	if planPath != "" {
		loaded, err := pipeline.LoadPlan(planPath)
		if err != nil {
			return nil, err
		}
		reqs = loaded
	} else {
		req := pipeline.Request{}
		req.City, _ = cmd.Flags().GetString("city")
		req.Country, _ = cmd.Flags().GetString("country")
		req.Terms, _ = cmd.Flags().GetStringSlice("terms")
		req.Radius, _ = cmd.Flags().GetInt("radius")
		req.Steps, _ = cmd.Flags().GetInt("steps")
		req.Enrich, _ = cmd.Flags().GetBool("enrich")
		req.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		req.Verify, _ = cmd.Flags().GetBool("verify")
		req.DropGeneric, _ = cmd.Flags().GetBool("drop-generic")
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			req.Latitude, req.Longitude = model.Float(lat), model.Float(lon)
		}
		reqs = []pipeline.Request{req}
	}

	for i := range reqs {
		r := &reqs[i]
		if r.Radius == 0 {
			r.Radius = cfg.Search.Radius
		}
		if r.Steps == 0 {
			r.Steps = cfg.Search.Steps
		}
		if r.Concurrency == 0 {
			r.Concurrency = cfg.Enrich.Concurrency
		}
		if r.PhoneRegion == "" {
			r.PhoneRegion = cfg.Search.PhoneRegion
		}
		if cfg.Verify.Enabled {
			r.Verify = true
		}
		if cfg.Crawl.DropGenericEmails {
			r.DropGeneric = true
		}
		if err := r.Validate(); err != nil {
			if r.Name != "" {
				return nil, eris.Wrapf(err, "search %q", r.Name)
			}
			return nil, err
		}
	}
	return reqs, nil
}

func anyVerify(reqs []pipeline.Request) bool {
	for _, r := range reqs {
		if r.Verify {
			return true
		}
	}
	return false
}

// outputTarget resolves the export format and destination file. An empty
// output means stdout.
func outputTarget(cmd *cobra.Command) (export.Format, string, error) {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.Export.Output
	}
	name, _ := cmd.Flags().GetString("format")
	if !cmd.Flags().Changed("format") && cfg.Export.Format != "" {
		name = cfg.Export.Format
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return "", "", err
	}
	if output != "" && !cmd.Flags().Changed("format") {
		format = export.FormatForPath(output, format)
	}
	if format == export.FormatXLSX && output == "" {
		return "", "", eris.New("search: xlsx output requires --output")
	}
	return format, output, nil
}

func writeLeads(stdout io.Writer, format export.Format, output string, leads []model.Lead) error {
	if output == "" {
		return export.Write(stdout, format, leads)
	}
	if err := export.WriteFile(output, format, leads); err != nil {
		return err
	}
	zap.L().Info("search: leads written", zap.String("path", output), zap.Int("count", len(leads)))
	return nil
}

func printSummary(w io.Writer, req pipeline.Request, res *pipeline.Result) {
	label := req.Name
	if label == "" {
		label = req.Place()
	}
	fmt.Fprintf(w, "%s: %d fetched, %d unique, %d enriched, %d verified, %d duplicates removed, %d leads\n",
		label, res.Fetched, res.Unique, res.Enriched, res.Verified, res.Removed, len(res.Leads))
	if res.Cancelled {
		fmt.Fprintln(w, "enrichment interrupted; remaining websites were not crawled")
	}
}

func init() {
	addSearchFlags(searchCmd.Flags())
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(f *pflag.FlagSet) {
	f.String("city", "", "city to search in")
	f.String("country", "", "country to search in")
	f.Float64("lat", 0, "search center latitude (skips geocoding)")
	f.Float64("lon", 0, "search center longitude (skips geocoding)")
	f.StringSlice("terms", nil, "business categories or names to search for, comma separated")
	f.Int("radius", 0, "search radius in meters (default from config)")
	f.Int("steps", 0, "radius expansion steps when nothing is found (default from config)")
	f.Bool("enrich", false, "crawl lead websites for emails and social profiles")
	f.Int("concurrency", 0, "max concurrent website crawls (default from config)")
	f.Bool("verify", false, "check email domains for mail hosts")
	f.Bool("drop-generic", false, "drop generic mailbox emails when a personal one is found")
	f.String("format", string(export.FormatTable), "output format: table, csv, xlsx, geojson")
	f.StringP("output", "o", "", "output file (default stdout)")
	f.Int("min-score", 0, "only export leads scoring at least this much")
	f.String("filter", "", "only export leads whose name, category, address, website or email contains this text")
	f.String("plan", "", "YAML file of searches to run in sequence")
}
