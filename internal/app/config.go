package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/dealsync/dealsync/internal/dealsync"
	"github.com/dealsync/dealsync/internal/katana"
	"github.com/dealsync/dealsync/internal/pipedrive"
	"github.com/dealsync/dealsync/jobs"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"130s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"120s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	KatanaAPIKey   string        `envconfig:"KATANA_API_KEY" default:"katana-api-key"`
	KatanaBaseURL  string        `envconfig:"KATANA_BASE_URL" default:"https://api.katanamrp.com/v1"`
	KatanaTimeout  time.Duration `envconfig:"KATANA_TIMEOUT" default:"30s"`
	KatanaPageSize int           `envconfig:"KATANA_PAGE_SIZE" default:"1000"`
	KatanaMaxPages int           `envconfig:"KATANA_MAX_PAGES" default:"10"`

	PipedriveAPIToken      string        `envconfig:"PIPEDRIVE_API_TOKEN" default:"pipedrive-api-token"`
	PipedriveCompanyDomain string        `envconfig:"PIPEDRIVE_COMPANY_DOMAIN" default:"saunamo"`
	PipedriveBaseURL       string        `envconfig:"PIPEDRIVE_BASE_URL"`
	PipedriveTimeout       time.Duration `envconfig:"PIPEDRIVE_TIMEOUT" default:"0s"`
	PipedriveSKUFieldKey   string        `envconfig:"PIPEDRIVE_SKU_FIELD_KEY" default:"43a32efde94b5e07af24690d5b8db5dc18f5680a"`

	KatanaLocationID          int64         `envconfig:"KATANA_LOCATION_ID" default:"166154"`
	KatanaTaxRateEUR          int64         `envconfig:"KATANA_TAX_RATE_EUR" default:"423653"`
	KatanaTaxRateGBP          int64         `envconfig:"KATANA_TAX_RATE_GBP" default:"459884"`
	KatanaCustomItemVariantID int64         `envconfig:"KATANA_CUSTOM_ITEM_VARIANT_ID" default:"38207669"`
	DeliveryLeadTime          time.Duration `envconfig:"DELIVERY_LEAD_TIME" default:"336h"`
	StrictDuplicateCheck      bool          `envconfig:"STRICT_DUPLICATE_CHECK" default:"false"`

	RedisAddr   string        `envconfig:"REDIS_ADDR"`
	DealLockTTL time.Duration `envconfig:"DEAL_LOCK_TTL" default:"6m"`

	PGDSN string `envconfig:"PG_DSN"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.KatanaAPIKey) == "" {
		errs = append(errs, errors.New("KATANA_API_KEY must not be empty"))
	}
	if strings.TrimSpace(c.PipedriveAPIToken) == "" {
		errs = append(errs, errors.New("PIPEDRIVE_API_TOKEN must not be empty"))
	}
	if c.KatanaPageSize <= 0 || c.KatanaMaxPages <= 0 {
		errs = append(errs, errors.New("KATANA_PAGE_SIZE and KATANA_MAX_PAGES must be positive"))
	}
	if c.DeliveryLeadTime < 0 {
		errs = append(errs, errors.New("DELIVERY_LEAD_TIME must not be negative"))
	}
	if c.AppRequestTimeout > 0 && c.AppWriteTimeout > 0 && c.AppWriteTimeout < c.AppRequestTimeout {
		errs = append(errs, fmt.Errorf("APP_WRITE_TIMEOUT (%s) must be at least APP_REQUEST_TIMEOUT (%s)", c.AppWriteTimeout, c.AppRequestTimeout))
	}
	// The deal lock must outlive the longest sync it guards.
	if minTTL := max(c.AppRequestTimeout, jobs.DealSyncTimeout); c.DealLockTTL < minTTL {
		errs = append(errs, fmt.Errorf("DEAL_LOCK_TTL (%s) must be at least %s", c.DealLockTTL, minTTL))
	}
	return errors.Join(errs...)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Settings builds the pipeline settings from the configuration.
func (c *Config) Settings() dealsync.Settings {
	s := dealsync.DefaultSettings()
	s.LocationID = c.KatanaLocationID
	s.TaxRateEUR = c.KatanaTaxRateEUR
	s.TaxRateGBP = c.KatanaTaxRateGBP
	s.CustomItemVariantID = c.KatanaCustomItemVariantID
	s.LeadTime = c.DeliveryLeadTime
	s.SKUFieldKey = c.PipedriveSKUFieldKey
	s.PageSize = c.KatanaPageSize
	s.MaxPages = c.KatanaMaxPages
	s.StrictDuplicateCheck = c.StrictDuplicateCheck
	return s
}

// KatanaConfig returns the Katana client configuration.
func (c *Config) KatanaConfig() katana.Config {
	return katana.Config{BaseURL: c.KatanaBaseURL, APIKey: c.KatanaAPIKey, Timeout: c.KatanaTimeout}
}

// PipedriveConfig returns the Pipedrive client configuration.
func (c *Config) PipedriveConfig() pipedrive.Config {
	return pipedrive.Config{
		BaseURL:       c.PipedriveBaseURL,
		CompanyDomain: c.PipedriveCompanyDomain,
		APIToken:      c.PipedriveAPIToken,
		Timeout:       c.PipedriveTimeout,
	}
}
