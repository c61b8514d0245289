package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	Pricing   PricingConfig
	Shipping  ShippingConfig
	Escrow    EscrowConfig
	Deviation DeviationConfig
	Redis     RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AROOBA_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"AROOBA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AROOBA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// PricingConfig seeds the built-in price table. Category rates come from the
// optional YAML table and admin overrides.
type PricingConfig struct {
	VATRate             decimal.Decimal `envconfig:"AROOBA_VAT_RATE" default:"0.14"`
	CooperativeFeeRate  decimal.Decimal `envconfig:"AROOBA_COOPERATIVE_FEE_RATE" default:"0.05"`
	MinimumFixedUplift  decimal.Decimal `envconfig:"AROOBA_MINIMUM_FIXED_UPLIFT" default:"15"`
	LowPriceThreshold   decimal.Decimal `envconfig:"AROOBA_LOW_PRICE_THRESHOLD" default:"100"`
	LowPriceFixedMarkup decimal.Decimal `envconfig:"AROOBA_LOW_PRICE_FIXED_MARKUP" default:"20"`
	LogisticsSurcharge  decimal.Decimal `envconfig:"AROOBA_LOGISTICS_SURCHARGE" default:"10"`
	GlobalUpliftRate    decimal.Decimal `envconfig:"AROOBA_GLOBAL_UPLIFT_RATE" default:"0.20"`
	CategoryTablePath   string          `envconfig:"AROOBA_CATEGORY_TABLE_PATH"`
}

type ShippingConfig struct {
	VolumetricDivisor decimal.Decimal `envconfig:"AROOBA_VOLUMETRIC_DIVISOR" default:"5000"`
	MaxSubsidyRatio   decimal.Decimal `envconfig:"AROOBA_MAX_SUBSIDY_RATIO" default:"0.25"`
	IncludedWeightKg  decimal.Decimal `envconfig:"AROOBA_INCLUDED_WEIGHT_KG" default:"1"`
}

type EscrowConfig struct {
	HoldDays int `envconfig:"AROOBA_ESCROW_HOLD_DAYS" default:"14"`
}

type DeviationConfig struct {
	Threshold decimal.Decimal `envconfig:"AROOBA_PRICE_DEVIATION_THRESHOLD" default:"0.20"`
}

// RedisConfig points at the admin override store. An empty URL and address
// disables overrides.
type RedisConfig struct {
	URL          string        `envconfig:"AROOBA_REDIS_URL"`
	Address      string        `envconfig:"AROOBA_REDIS_ADDR"`
	Password     string        `envconfig:"AROOBA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AROOBA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AROOBA_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"AROOBA_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"AROOBA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AROOBA_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"AROOBA_REDIS_WRITE_TIMEOUT" default:"2s"`
	OverridesKey string        `envconfig:"AROOBA_REDIS_OVERRIDES_KEY" default:"arooba:pricing:overrides"`

	// RefreshInterval is how often overrides are re-read; zero disables refresh.
	RefreshInterval time.Duration `envconfig:"AROOBA_SETTINGS_REFRESH_INTERVAL" default:"5m"`
}

// Enabled reports whether an override store is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}
