package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "rxquote.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 5.0, cfg.Pricing.BrandUnitPriceThreshold, 0.001)
	assert.InDelta(t, 3.0, cfg.Pricing.BrandMarkupFactor, 0.001)
	assert.InDelta(t, 1.15, cfg.Pricing.AcquisitionMarkup, 0.001)
	assert.InDelta(t, 0.20, cfg.Pricing.BrandSpendingShare, 0.001)
	assert.InDelta(t, 0.25, cfg.Pricing.FlatUnitEstimate, 0.001)
	assert.InDelta(t, 0.20, cfg.Pricing.MembershipDiscount, 0.001)
	assert.InDelta(t, 500.0, cfg.Pricing.SpecialtyPriceThreshold, 0.001)
	assert.Equal(t, 24, cfg.Pricing.RegionalCacheTTLHours)
	assert.Equal(t, 8, cfg.Pricing.MaxParallelPharmacies)
	assert.Equal(t, "https://api.costplusdrugs.com", cfg.CostPlus.BaseURL)
	assert.Equal(t, "https://data.cms.gov/datastore", cfg.Datasets.BaseURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/rxquote
log:
  level: debug
  format: console
server:
  port: 9090
pricing:
  membership_discount: 0.25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.25, cfg.Pricing.MembershipDiscount, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 5.0, cfg.Pricing.BrandUnitPriceThreshold, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RXQUOTE_STORE_DRIVER", "sqlite")
	t.Setenv("RXQUOTE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("RXQUOTE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", Path: "rxquote.db"},
		Pricing: PricingConfig{
			BrandUnitPriceThreshold: 5.0,
			MembershipDiscount:      0.20,
			FlatUnitEstimate:        0.25,
			MaxParallelPharmacies:   8,
		},
		Server: ServerConfig{Port: 8080},
	}
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	err := cfg.Validate("quote")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/rxquote"
	assert.NoError(t, cfg.Validate("quote"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("quote")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite or postgres")
}

func TestValidatePricingBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pricing.MembershipDiscount = 1.5
	err := cfg.Validate("quote")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "membership_discount")

	cfg.Pricing.MembershipDiscount = 0.20
	cfg.Pricing.MaxParallelPharmacies = 0
	err = cfg.Validate("quote")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_parallel_pharmacies must be between 1 and 64")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("mystery")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
