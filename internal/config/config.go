// Package config loads application configuration from config.yaml and the
// RXQUOTE_ environment prefix, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	CostPlus  UpstreamConfig  `yaml:"costplus" mapstructure:"costplus"`
	Datasets  UpstreamConfig  `yaml:"datasets" mapstructure:"datasets"`
	Formulary FormularyConfig `yaml:"formulary" mapstructure:"formulary"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PricingConfig holds the cascade and model constants.
type PricingConfig struct {
	BrandUnitPriceThreshold  float64 `yaml:"brand_unit_price_threshold" mapstructure:"brand_unit_price_threshold"`
	BrandMarkupFactor        float64 `yaml:"brand_markup_factor" mapstructure:"brand_markup_factor"`
	AcquisitionMarkup        float64 `yaml:"acquisition_markup" mapstructure:"acquisition_markup"`
	BrandSpendingShare       float64 `yaml:"brand_spending_share" mapstructure:"brand_spending_share"`
	FlatUnitEstimate         float64 `yaml:"flat_unit_estimate" mapstructure:"flat_unit_estimate"`
	MembershipDiscount       float64 `yaml:"membership_discount" mapstructure:"membership_discount"`
	SpecialtyPriceThreshold  float64 `yaml:"specialty_price_threshold" mapstructure:"specialty_price_threshold"`
	HDHPDeductibleMultiplier float64 `yaml:"hdhp_deductible_multiplier" mapstructure:"hdhp_deductible_multiplier"`
	SourceTimeoutSecs        int     `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
	RegionalCacheTTLHours    int     `yaml:"regional_cache_ttl_hours" mapstructure:"regional_cache_ttl_hours"`
	MaxParallelPharmacies    int     `yaml:"max_parallel_pharmacies" mapstructure:"max_parallel_pharmacies"`
}

// UpstreamConfig holds settings for a public pricing API.
type UpstreamConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// FormularyConfig holds formulary service settings.
type FormularyConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// ServerConfig configures the quote API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RXQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "rxquote.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("pricing.brand_unit_price_threshold", 5.0)
	v.SetDefault("pricing.brand_markup_factor", 3.0)
	v.SetDefault("pricing.acquisition_markup", 1.15)
	v.SetDefault("pricing.brand_spending_share", 0.20)
	v.SetDefault("pricing.flat_unit_estimate", 0.25)
	v.SetDefault("pricing.membership_discount", 0.20)
	v.SetDefault("pricing.specialty_price_threshold", 500.0)
	v.SetDefault("pricing.hdhp_deductible_multiplier", 2.5)
	v.SetDefault("pricing.source_timeout_secs", 8)
	v.SetDefault("pricing.regional_cache_ttl_hours", 24)
	v.SetDefault("pricing.max_parallel_pharmacies", 8)
	v.SetDefault("costplus.base_url", "https://api.costplusdrugs.com")
	v.SetDefault("costplus.rate_per_second", 5)
	v.SetDefault("datasets.base_url", "https://data.cms.gov/datastore")
	v.SetDefault("datasets.rate_per_second", 10)
	v.SetDefault("formulary.base_url", "https://formulary.scriptradar.com")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for a given run mode ("quote" or
// "serve"). Field errors are collected so the operator sees every problem at
// once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if c.Pricing.MembershipDiscount < 0 || c.Pricing.MembershipDiscount >= 1 {
		problems = append(problems, "pricing.membership_discount must be in [0, 1)")
	}
	if c.Pricing.BrandUnitPriceThreshold <= 0 {
		problems = append(problems, "pricing.brand_unit_price_threshold must be > 0")
	}
	if c.Pricing.FlatUnitEstimate <= 0 {
		problems = append(problems, "pricing.flat_unit_estimate must be > 0")
	}
	if c.Pricing.MaxParallelPharmacies < 1 || c.Pricing.MaxParallelPharmacies > 64 {
		problems = append(problems, "pricing.max_parallel_pharmacies must be between 1 and 64")
	}

	switch mode {
	case "quote", "cache", "sources":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
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
