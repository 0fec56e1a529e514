// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig  `mapstructure:"logging"`
	Fetch     FetchConfig    `mapstructure:"fetch"`
	Discovery PhaseConfig    `mapstructure:"discovery"`
	Detail    PhaseConfig    `mapstructure:"detail"`
	Detector  DetectorConfig `mapstructure:"detector"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	Output    OutputConfig   `mapstructure:"output"`
	Players   CatalogConfig  `mapstructure:"players"`
	Clubs     CatalogConfig  `mapstructure:"clubs"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetchConfig governs the page fetchers.
type FetchConfig struct {
	UserAgent        string        `mapstructure:"user_agent"`
	RenderEnabled    bool          `mapstructure:"render_enabled"`
	NavTimeout       time.Duration `mapstructure:"nav_timeout"`
	SettleWait       time.Duration `mapstructure:"settle_wait"`
	QPS              float64       `mapstructure:"qps"`
	BlockedResources []string      `mapstructure:"blocked_resources"`
	Workers          int           `mapstructure:"workers"`
}

// PhaseConfig is one retry/backoff policy. Discovery and detail carry
// independent instances; their asymmetry is deliberate tuning.
type PhaseConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	NoDataAttempts int           `mapstructure:"no_data_attempts"`
	Backoff        time.Duration `mapstructure:"backoff"`
}

// Policy converts the phase config into the scrape package's policy value.
func (p PhaseConfig) Policy() scrape.Policy {
	return scrape.Policy{
		MaxAttempts:       p.MaxAttempts,
		NoDataMaxAttempts: p.NoDataAttempts,
		Backoff:           p.Backoff,
	}
}

// DetectorConfig configures challenge-page detection.
type DetectorConfig struct {
	ChallengeMarkers []string `mapstructure:"challenge_markers"`
}

// MetricsConfig controls the ops HTTP endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// OutputConfig sets where CSV streams land.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// CatalogConfig describes one harvestable catalog (players or clubs).
type CatalogConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	PageSize    int    `mapstructure:"page_size"`
	MaxOffset   int    `mapstructure:"max_offset"`
	URLsFile    string `mapstructure:"urls_file"`
	RecordsFile string `mapstructure:"records_file"`
}

// Load builds a Config from defaults, an optional config file, and
// HARVESTER_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)

	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.render_enabled", true)
	v.SetDefault("fetch.nav_timeout", "15s")
	v.SetDefault("fetch.settle_wait", "2s")
	v.SetDefault("fetch.qps", 0.5)
	v.SetDefault("fetch.blocked_resources", []string{"image", "stylesheet", "font", "media"})
	v.SetDefault("fetch.workers", 1)

	v.SetDefault("discovery.max_attempts", 3)
	v.SetDefault("discovery.no_data_attempts", 3)
	v.SetDefault("discovery.backoff", "5s")
	v.SetDefault("detail.max_attempts", 5)
	v.SetDefault("detail.no_data_attempts", 3)
	v.SetDefault("detail.backoff", "10s")

	v.SetDefault("detector.challenge_markers", scrape.DefaultChallengeMarkers)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("output.dir", "data")

	v.SetDefault("players.base_url", "https://sofifa.com/players?col=oa&sort=desc")
	v.SetDefault("players.page_size", 60)
	v.SetDefault("players.max_offset", 0)
	v.SetDefault("players.urls_file", "player_urls.csv")
	v.SetDefault("players.records_file", "player_stats.csv")

	v.SetDefault("clubs.base_url", "https://sofifa.com/teams?type=club&col=rating&sort=desc")
	v.SetDefault("clubs.page_size", 60)
	v.SetDefault("clubs.max_offset", 660)
	v.SetDefault("clubs.urls_file", "club_urls.csv")
	v.SetDefault("clubs.records_file", "club_stats.csv")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.Fetch.NavTimeout <= 0 {
		return fmt.Errorf("fetch.nav_timeout must be > 0")
	}
	if c.Fetch.SettleWait < 0 {
		return fmt.Errorf("fetch.settle_wait must be >= 0")
	}
	if c.Fetch.QPS < 0 {
		return fmt.Errorf("fetch.qps must be >= 0")
	}
	if c.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch.workers must be > 0")
	}
	for name, phase := range map[string]PhaseConfig{"discovery": c.Discovery, "detail": c.Detail} {
		if phase.MaxAttempts <= 0 {
			return fmt.Errorf("%s.max_attempts must be > 0", name)
		}
		if phase.NoDataAttempts <= 0 {
			return fmt.Errorf("%s.no_data_attempts must be > 0", name)
		}
		if phase.Backoff < 0 {
			return fmt.Errorf("%s.backoff must be >= 0", name)
		}
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	for name, catalog := range map[string]CatalogConfig{"players": c.Players, "clubs": c.Clubs} {
		if catalog.BaseURL == "" {
			return fmt.Errorf("%s.base_url must be set", name)
		}
		if catalog.PageSize <= 0 {
			return fmt.Errorf("%s.page_size must be > 0", name)
		}
		if catalog.MaxOffset < 0 {
			return fmt.Errorf("%s.max_offset must be >= 0", name)
		}
		if catalog.URLsFile == "" || catalog.RecordsFile == "" {
			return fmt.Errorf("%s output file names must be set", name)
		}
	}
	return nil
}
