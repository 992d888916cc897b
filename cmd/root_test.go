package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/crawler"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scorer"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"search", "crawl", "cache"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lead-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotNil(t, rootCmd.PersistentPreRunE)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestSearchCommand_Flags(t *testing.T) {
	for _, name := range []string{
		"city", "country", "lat", "lon", "terms", "radius", "steps", "enrich",
		"concurrency", "verify", "drop-generic", "format", "output", "min-score",
		"filter", "plan",
	} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), "missing flag %q", name)
	}
	assert.Equal(t, "table", searchCmd.Flags().Lookup("format").DefValue)
	assert.Equal(t, "o", searchCmd.Flags().Lookup("output").Shorthand)
}

func TestCrawlCommand_Flags(t *testing.T) {
	assert.Equal(t, "crawl <url>...", crawlCmd.Use)
	assert.NotNil(t, crawlCmd.Flags().Lookup("refresh"))
	assert.NotNil(t, crawlCmd.Flags().Lookup("json"))
	assert.Equal(t, "0", crawlCmd.Flags().Lookup("concurrency").DefValue)
	assert.Error(t, crawlCmd.Args(crawlCmd, nil))
}

func TestCacheCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range cacheCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["get"])
	assert.True(t, names["delete"])
}

func testConfig() *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Driver: "memory"},
		Crawl:   config.CrawlConfig{TimeoutSecs: 5, MaxAttempts: 1, MaxFollow: 2},
		Enrich:  config.EnrichConfig{Concurrency: 4},
		Geocode: config.GeocodeConfig{RPS: 100},
		Overpass: config.OverpassConfig{
			TimeoutSecs: 5,
			MaxAttempts: 1,
		},
		Search: config.SearchConfig{Radius: 500, Steps: 1, PhoneRegion: "IT"},
		Verify: config.VerifyConfig{TimeoutSecs: 1},
		Score:  config.ScoreConfig{PersonalEmail: 3, GenericEmail: 1, Social: 1, Website: 2},
	}
}

func newSearchCmd(args ...string) (*cobra.Command, *bytes.Buffer) {
	c := &cobra.Command{Use: "search", RunE: searchCmd.RunE}
	addSearchFlags(c.Flags())
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	return c, &out
}

func TestSearchRequests_FillsFromConfig(t *testing.T) {
	cfg = testConfig()
	cfg.Verify.Enabled = true
	c, _ := newSearchCmd()
	require.NoError(t, c.ParseFlags([]string{"--city", "Roma", "--terms", "cafe,bar"}))

	reqs, err := searchRequests(c)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "Roma", r.City)
	assert.Equal(t, []string{"cafe", "bar"}, r.Terms)
	assert.Equal(t, 500, r.Radius)
	assert.Equal(t, 1, r.Steps)
	assert.Equal(t, 4, r.Concurrency)
	assert.Equal(t, "IT", r.PhoneRegion)
	assert.True(t, r.Verify)
	assert.Nil(t, r.Latitude)
}

func TestSearchRequests_Coordinates(t *testing.T) {
	cfg = testConfig()
	c, _ := newSearchCmd()
	require.NoError(t, c.ParseFlags([]string{"--lat", "41.9", "--lon", "12.5", "--terms", "cafe"}))

	reqs, err := searchRequests(c)
	require.NoError(t, err)
	require.NotNil(t, reqs[0].Latitude)
	assert.InDelta(t, 41.9, *reqs[0].Latitude, 1e-9)
	assert.InDelta(t, 12.5, *reqs[0].Longitude, 1e-9)
}

func TestSearchRequests_Plan(t *testing.T) {
	cfg = testConfig()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  country: Italy
  radius: 2000
searches:
  - name: rome
    city: Roma
    terms: [cafe]
  - name: milan
    city: Milano
    terms: [bakery]
    radius: 800
`), 0o644))

	c, _ := newSearchCmd()
	require.NoError(t, c.ParseFlags([]string{"--plan", path}))
	reqs, err := searchRequests(c)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Italy", reqs[0].Country)
	assert.Equal(t, 2000, reqs[0].Radius)
	assert.Equal(t, 800, reqs[1].Radius)
	assert.Equal(t, 1, reqs[1].Steps)
}

func TestSearchRequests_Invalid(t *testing.T) {
	cfg = testConfig()
	c, _ := newSearchCmd()
	require.NoError(t, c.ParseFlags([]string{"--city", "Roma"}))
	_, err := searchRequests(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search term")
}

func TestOutputTarget(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		cfgFmt  string
		want    export.Format
		wantErr string
	}{
		{name: "default table", want: export.FormatTable},
		{name: "inferred from output", args: []string{"-o", "leads.csv"}, want: export.FormatCSV},
		{name: "explicit wins", args: []string{"-o", "leads.csv", "--format", "geojson"}, want: export.FormatGeoJSON},
		{name: "config format", cfgFmt: "csv", want: export.FormatCSV},
		{name: "xlsx needs output", args: []string{"--format", "xlsx"}, wantErr: "requires --output"},
		{name: "unknown", args: []string{"--format", "pdf"}, wantErr: "unknown format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = testConfig()
			cfg.Export.Format = tt.cfgFmt
			c, _ := newSearchCmd()
			require.NoError(t, c.ParseFlags(tt.args))
			got, _, err := outputTarget(c)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchCommand_EndToEnd(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		_, _ = w.Write([]byte(`[{"lat":"41.9","lon":"12.5","display_name":"Roma, Italia"}]`))
	}))
	defer nominatim.Close()

	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":41.9,"lon":12.5,"tags":{"name":"Caffe Uno","amenity":"cafe","email":"info@uno.example"}},
			{"type":"node","id":2,"lat":41.91,"lon":12.51,"tags":{"name":"Bar Due","amenity":"bar"}}
		]}`))
	}))
	defer overpassSrv.Close()

	cfg = testConfig()
	cfg.Geocode.BaseURL = nominatim.URL
	cfg.Overpass.BaseURL = overpassSrv.URL

	c, out := newSearchCmd("--city", "Roma", "--country", "Italy", "--terms", "cafe", "--format", "csv")
	require.NoError(t, c.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "name,category,score"))
	assert.True(t, strings.HasPrefix(lines[1], "Caffe Uno,cafe,1,"))
	assert.True(t, strings.HasPrefix(lines[2], "Bar Due,bar,0,"))
}

func TestSearchCommand_MinScoreFilter(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer nominatim.Close()

	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":41.9,"lon":12.5,"tags":{"name":"Caffe Uno","amenity":"cafe","email":"info@uno.example"}},
			{"type":"node","id":2,"lat":41.91,"lon":12.51,"tags":{"name":"Bar Due","amenity":"bar"}}
		]}`))
	}))
	defer overpassSrv.Close()

	cfg = testConfig()
	cfg.Geocode.BaseURL = nominatim.URL
	cfg.Overpass.BaseURL = overpassSrv.URL

	c, out := newSearchCmd("--lat", "41.9", "--lon", "12.5", "--terms", "cafe", "--format", "csv", "--min-score", "1")
	require.NoError(t, c.Execute())

	assert.Contains(t, out.String(), "Caffe Uno")
	assert.NotContains(t, out.String(), "Bar Due")
}

func TestCacheCommands(t *testing.T) {
	cfg = testConfig()
	cfg.Store = config.StoreConfig{Driver: "file", Dir: t.TempDir()}

	run := func(c *cobra.Command, args ...string) string {
		var out bytes.Buffer
		c.SetOut(&out)
		c.SetContext(context.Background())
		require.NoError(t, c.RunE(c, args))
		return out.String()
	}

	assert.Contains(t, run(cacheGetCmd, "example.com"), "no cached result")

	st, err := initStore(context.Background())
	require.NoError(t, err)
	data := model.CrawlResult{URL: "https://example.com", Emails: []string{"a@example.com"}, CrawledAt: time.Now()}
	require.NoError(t, crawler.NewCache(st).Put(context.Background(), "example.com", data))

	assert.Contains(t, run(cacheGetCmd, "example.com"), "a@example.com")
	assert.Contains(t, run(cacheDeleteCmd, "example.com"), "deleted")
	assert.Contains(t, run(cacheGetCmd, "example.com"), "no cached result")
}

func TestCacheCommands_InvalidURL(t *testing.T) {
	cfg = testConfig()
	cacheGetCmd.SetContext(context.Background())
	err := cacheGetCmd.RunE(cacheGetCmd, []string{"N/A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid url")
}

func TestWeights_DefaultsMatchScorer(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := config.Load("")
	require.NoError(t, err)
	cfg = c

	assert.Equal(t, scorer.DefaultWeights(), weights())
}

func TestWeights_FromConfig(t *testing.T) {
	cfg = testConfig()
	cfg.Score.Website = 5
	w := weights()
	assert.Equal(t, 5, w.Website)
	assert.Equal(t, 3, w.PersonalEmail)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = testConfig()
	cfg.Store.Driver = "redis"
	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestWriteCrawlTable(t *testing.T) {
	var buf bytes.Buffer
	writeCrawlTable(&buf, []model.CrawlResult{
		{URL: "https://a.example", Pages: 2, Emails: []string{"x@a.example"}, Social: model.SocialLinks{model.PlatformFacebook: "https://facebook.com/a"}},
		{URL: "https://b.example", Social: model.SocialLinks{}},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "URL")
	assert.Contains(t, lines[2], "x@a.example")
	assert.Contains(t, lines[2], "facebook")
	assert.Contains(t, lines[3], "N/A")
}
