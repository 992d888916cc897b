package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Crawl    CrawlConfig    `yaml:"crawl" mapstructure:"crawl"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	Score    ScoreConfig    `yaml:"score" mapstructure:"score"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// CrawlConfig configures website crawling.
type CrawlConfig struct {
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts       int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMs         int      `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	BackoffMultiplier float64  `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	Jitter            float64  `yaml:"jitter" mapstructure:"jitter"`
	MaxFollow         int      `yaml:"max_follow" mapstructure:"max_follow"`
	MaxBodyBytes      int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	UserAgent         string   `yaml:"user_agent" mapstructure:"user_agent"`
	FollowKeywords    []string `yaml:"follow_keywords" mapstructure:"follow_keywords"`
	ExcludePaths      []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	DropGenericEmails bool     `yaml:"drop_generic_emails" mapstructure:"drop_generic_emails"`
}

// EnrichConfig configures the enrichment scheduler.
type EnrichConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// GeocodeConfig configures the Nominatim client.
type GeocodeConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
}

// OverpassConfig configures the Overpass client.
type OverpassConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMs        int    `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	FailureThreshold int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int    `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	Radius      int    `yaml:"radius" mapstructure:"radius"`
	Steps       int    `yaml:"steps" mapstructure:"steps"`
	PhoneRegion string `yaml:"phone_region" mapstructure:"phone_region"`
}

// VerifyConfig configures email verification.
type VerifyConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	Resolvers   []string `yaml:"resolvers" mapstructure:"resolvers"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScoreConfig holds the points per lead signal. The defaults are the
// standard 3/1/1/2 weights; other values change what scores mean across runs.
type ScoreConfig struct {
	PersonalEmail int `yaml:"personal_email" mapstructure:"personal_email"`
	GenericEmail  int `yaml:"generic_email" mapstructure:"generic_email"`
	Social        int `yaml:"social" mapstructure:"social"`
	Website       int `yaml:"website" mapstructure:"website"`
}

// ExportConfig configures output.
type ExportConfig struct {
	Format   string `yaml:"format" mapstructure:"format"`
	Output   string `yaml:"output" mapstructure:"output"`
	MinScore int    `yaml:"min_score" mapstructure:"min_score"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, the config file and the environment,
// in increasing precedence. An empty path searches for config.yaml in the
// working directory.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "cache")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("crawl.timeout_secs", 15)
	v.SetDefault("crawl.max_attempts", 3)
	v.SetDefault("crawl.backoff_ms", 500)
	v.SetDefault("crawl.backoff_multiplier", 2.0)
	v.SetDefault("crawl.jitter", 0.0)
	v.SetDefault("crawl.max_follow", 5)
	v.SetDefault("crawl.max_body_bytes", 2<<20)
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (compatible; lead-cli/1.0)")
	v.SetDefault("crawl.follow_keywords", []string{"contact", "about"})
	v.SetDefault("crawl.exclude_paths", []string{"/blog/*", "/news/*", "/wp-content/*", "/*.pdf"})
	v.SetDefault("crawl.drop_generic_emails", false)
	v.SetDefault("enrich.concurrency", 6)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "lead-cli/1.0")
	v.SetDefault("geocode.rps", 1.0)
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("overpass.max_attempts", 3)
	v.SetDefault("overpass.backoff_ms", 2000)
	v.SetDefault("overpass.failure_threshold", 3)
	v.SetDefault("overpass.reset_timeout_secs", 60)
	v.SetDefault("search.radius", 1000)
	v.SetDefault("search.steps", 2)
	v.SetDefault("search.phone_region", "US")
	v.SetDefault("verify.enabled", false)
	v.SetDefault("verify.resolvers", []string{"8.8.8.8:53", "1.1.1.1:53"})
	v.SetDefault("verify.timeout_secs", 5)
	v.SetDefault("score.personal_email", 3)
	v.SetDefault("score.generic_email", 1)
	v.SetDefault("score.social", 1)
	v.SetDefault("score.website", 2)
	v.SetDefault("export.format", "table")
	v.SetDefault("export.min_score", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "file":
		if c.Store.Dir == "" {
			return eris.New("config: store.dir is required for the file driver")
		}
	case "sqlite":
		if c.Store.DatabaseURL == "" && c.Store.Dir == "" {
			return eris.New("config: store.database_url or store.dir is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	case "memory":
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	if c.Enrich.Concurrency <= 0 {
		return eris.Errorf("config: enrich.concurrency must be positive, got %d", c.Enrich.Concurrency)
	}
	if c.Crawl.TimeoutSecs <= 0 {
		return eris.Errorf("config: crawl.timeout_secs must be positive, got %d", c.Crawl.TimeoutSecs)
	}
	if c.Crawl.MaxAttempts <= 0 {
		return eris.Errorf("config: crawl.max_attempts must be positive, got %d", c.Crawl.MaxAttempts)
	}
	if c.Crawl.MaxFollow < 0 {
		return eris.Errorf("config: crawl.max_follow must not be negative, got %d", c.Crawl.MaxFollow)
	}
	if c.Geocode.RPS <= 0 {
		return eris.Errorf("config: geocode.rps must be positive, got %g", c.Geocode.RPS)
	}

	switch strings.ToLower(c.Export.Format) {
	case "table", "csv", "xlsx", "geojson":
	default:
		return eris.Errorf("config: unknown export.format %q", c.Export.Format)
	}

	if c.Score.PersonalEmail < 0 || c.Score.GenericEmail < 0 || c.Score.Social < 0 || c.Score.Website < 0 {
		return eris.New("config: score weights must not be negative")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
