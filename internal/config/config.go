package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"offergate/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Cloak     CloakConfig     `mapstructure:"cloak"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Edge      EdgeConfig      `mapstructure:"edge"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SourcesConfig lists the offer inputs for a pipeline run.
type SourcesConfig struct {
	SeedPath string          `mapstructure:"seed_path"`
	CSVPath  string          `mapstructure:"csv_path"`
	CSVName  string          `mapstructure:"csv_name"`
	Networks []NetworkConfig `mapstructure:"networks"`
}

// NetworkConfig describes one CPA network feed. Networks are merged in list
// order, which is also the dedup tie-break order after organic.
type NetworkConfig struct {
	Name           string        `mapstructure:"name"`
	BaseURL        string        `mapstructure:"base_url"`
	UserID         string        `mapstructure:"user_id"`
	Domain         string        `mapstructure:"domain"`
	Limit          int           `mapstructure:"limit"`
	ShowAll        bool          `mapstructure:"showall"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// TrackingConfig holds the shared feed-signing secret.
type TrackingConfig struct {
	Salt string `mapstructure:"salt"`
	ID   string `mapstructure:"id"`
}

// FilterConfig governs the geo/prize filter.
type FilterConfig struct {
	AllowedGeos   []string `mapstructure:"allowed_geos"`
	MinPrizeValue float64  `mapstructure:"min_prize_value"`
}

// CloakConfig parameterises first-party URL rewriting.
type CloakConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	UTMSource   string `mapstructure:"utm_source"`
	UTMMedium   string `mapstructure:"utm_medium"`
	UTMCampaign string `mapstructure:"utm_campaign"`
	TermsURL    string `mapstructure:"terms_url"`
}

// ManifestConfig locates the pipeline output.
type ManifestConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig covers the edge HTTP server.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	RebuildInterval time.Duration `mapstructure:"rebuild_interval"`
}

// RateLimitConfig tunes the per-visitor request counter.
type RateLimitConfig struct {
	PerMinute     int    `mapstructure:"per_minute"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for click logging.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EdgeConfig exposes the classifier knobs that are safe to configure. The
// ASN/country blocklists and bucket quotas stay fixed in code.
type EdgeConfig struct {
	BotAllowlist []string `mapstructure:"bot_allowlist"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OFFERGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "offergate")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sources.seed_path", "data/seed_offers.json")
	v.SetDefault("sources.csv_name", "cpa-import")

	v.SetDefault("tracking.id", "organic")

	v.SetDefault("filter.allowed_geos", []string{"US", "CA", "GB", "AU"})
	v.SetDefault("filter.min_prize_value", 100.0)

	v.SetDefault("cloak.utm_source", "offergate")
	v.SetDefault("cloak.utm_medium", "referral")
	v.SetDefault("cloak.utm_campaign", "default")

	v.SetDefault("manifest.path", "data/manifest.json")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.rebuild_interval", "0s")

	v.SetDefault("ratelimit.per_minute", 30)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Filter.MinPrizeValue < 0 {
		return fmt.Errorf("filter.min_prize_value cannot be negative")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("ratelimit.per_minute must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Manifest.Path == "" {
		return fmt.Errorf("manifest.path is required")
	}
	seen := make(map[string]struct{}, len(c.Sources.Networks))
	for _, n := range c.Sources.Networks {
		if n.Name == "" {
			return fmt.Errorf("sources.networks entries require a name")
		}
		if n.Name == "organic" {
			return fmt.Errorf("network name %q is reserved for the seed source", n.Name)
		}
		if _, dup := seen[n.Name]; dup {
			return fmt.Errorf("duplicate network name %q", n.Name)
		}
		seen[n.Name] = struct{}{}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
