package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/21mScot/sitecast/internal/catalogue"
	"github.com/21mScot/sitecast/internal/scenario"
)

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// SiteConfig holds the default site constraints used when an analyze
// request doesn't override them
type SiteConfig struct {
	SitePowerKW        float64 `json:"site_power_kw"`
	LoadFactor         float64 `json:"load_factor"`
	PowerPricePerKWh   float64 `json:"power_price_per_kwh"`
	UptimePct          float64 `json:"uptime_pct"`
	CoolingOverheadPct float64 `json:"cooling_overhead_pct"`
}

// FinanceConfig holds projection horizon and discounting defaults
type FinanceConfig struct {
	HorizonYears int     `json:"horizon_years"`
	DiscountRate float64 `json:"discount_rate"`
}

// StaticSnapshotConfig is the fallback network snapshot used when live data
// is disabled or unavailable
type StaticSnapshotConfig struct {
	Difficulty      float64 `json:"difficulty"`
	BlockSubsidyBTC float64 `json:"block_subsidy_btc"`
	BTCPriceUSD     float64 `json:"btc_price_usd"`
	USDToGBP        float64 `json:"usd_to_gbp"`
}

// LiveDataConfig defines live network data fetching settings
type LiveDataConfig struct {
	Enabled         bool                 `json:"enabled"`
	TTL             time.Duration        `json:"ttl"`
	RefreshInterval time.Duration        `json:"refresh_interval"`
	Static          StaticSnapshotConfig `json:"static"`
}

// Config is the main configuration structure
type Config struct {
	Server           ServerConfig                      `json:"server"`
	Site             SiteConfig                        `json:"site"`
	Finance          FinanceConfig                     `json:"finance"`
	Scenarios        map[scenario.Kind]scenario.Config `json:"scenarios"`
	Halvings         scenario.HalvingSchedule          `json:"halvings"`
	LiveData         LiveDataConfig                    `json:"live_data"`
	CatalogueVariant catalogue.Variant                 `json:"catalogue_variant"`
	DBPath           string                            `json:"db_path"`
	LogLevel         string                            `json:"log_level"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Site: SiteConfig{
			SitePowerKW:        250.0,
			LoadFactor:         0.95,
			PowerPricePerKWh:   0.07,
			UptimePct:          98.0,
			CoolingOverheadPct: 10.0,
		},
		Finance: FinanceConfig{
			HorizonYears: 5,
			DiscountRate: 0.08,
		},
		Scenarios: scenario.DefaultConfigs(),
		Halvings: scenario.HalvingSchedule{
			NextHalvingYear: 3, // next halving roughly three years out
			IntervalYears:   4,
		},
		LiveData: LiveDataConfig{
			Enabled:         true,
			TTL:             24 * time.Hour,
			RefreshInterval: time.Hour,
			Static: StaticSnapshotConfig{
				Difficulty:      150_000_000_000_000,
				BlockSubsidyBTC: 3.125,
				BTCPriceUSD:     90_000,
				USDToGBP:        0.8,
			},
		},
		CatalogueVariant: catalogue.VariantProd,
		DBPath:           "/data/sitecast.db",
		LogLevel:         "info",
	}
}

// Load reads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes configuration to a JSON file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
