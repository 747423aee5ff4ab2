// Package config loads ibpcheck settings from a YAML file with environment overrides.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/insidebooks/ibpcheck/store"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/insidebooks/ibpcheck/warnings"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override. Keys follow the YAML layout:
// IBP_DATABASE_DRIVER, IBP_WARNINGS_INMATES_CACHE_TTL, IBP_CACHE_PURGE_INTERVAL.
const EnvPrefix = "IBP"

// Config represents the complete ibpcheck configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Address   AddressConfig   `yaml:"address"`
	Providers ProvidersConfig `yaml:"providers"`
	Warnings  WarningsConfig  `yaml:"warnings"`
	Cache     CacheConfig     `yaml:"cache"`
	Shipping  ShippingConfig  `yaml:"shipping"`
}

// DatabaseConfig selects the snapshot store
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // none, duckdb, msgpack
	Path   string `yaml:"path"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	File   string `yaml:"file"`   // empty = stderr
}

// AddressConfig is the return address printed on shipments
type AddressConfig struct {
	Addressee string `yaml:"addressee"`
	Street1   string `yaml:"street1"`
	Street2   string `yaml:"street2"`
	City      string `yaml:"city"`
	State     string `yaml:"state"`
	Zipcode   string `yaml:"zipcode"`
}

// ProvidersConfig lists the correctional-system lookup services
type ProvidersConfig struct {
	Timeout   float64    `yaml:"timeout"`
	Endpoints []Endpoint `yaml:"endpoints" ignored:"true"`
}

// Endpoint is one provider service
type Endpoint struct {
	Jurisdiction string `yaml:"jurisdiction"`
	BaseURL      string `yaml:"base_url"`
}

// WarningsConfig contains the shipment warning thresholds
type WarningsConfig struct {
	MinReleaseTimedelta  int  `yaml:"min_release_timedelta" split_words:"true"`  // days
	MinPostmarkTimedelta int  `yaml:"min_postmark_timedelta" split_words:"true"` // days
	InmatesCacheTTL      int  `yaml:"inmates_cache_ttl" split_words:"true"`      // hours
	WarnNotFound         bool `yaml:"warn_not_found" split_words:"true"`
	WarnAlreadyReleased  bool `yaml:"warn_already_released" split_words:"true"`
}

// CacheConfig contains inmate cache tuning
type CacheConfig struct {
	Shards         int           `yaml:"shards"`
	Capacity       int           `yaml:"capacity"` // 0 = unbounded
	Eviction       string        `yaml:"eviction"` // LRU, FIFO
	WritePolicy    string        `yaml:"write_policy" split_words:"true"`
	WriteBuffer    int           `yaml:"write_buffer" split_words:"true"`
	PurgeInterval  time.Duration `yaml:"purge_interval" split_words:"true"`
	IdleTTLPeriods int           `yaml:"idle_ttl_periods" split_words:"true"`
	RefreshAhead   float64       `yaml:"refresh_ahead" split_words:"true"` // fraction of TTL, 0 = off
}

// ShippingConfig contains label conventions
type ShippingConfig struct {
	UnitAddressName string `yaml:"unit_address_name" split_words:"true"`
}

// Write policy names accepted by cache.write_policy.
const (
	WriteThrough = "write-through"
	WriteBack    = "write-back"
)

// Defaults returns the configuration used for every key the file and environment leave unset.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: store.DriverNone,
			Path:   "data/inmates.duckdb",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Providers: ProvidersConfig{
			Timeout: 5,
		},
		Warnings: WarningsConfig{
			MinReleaseTimedelta:  60,
			MinPostmarkTimedelta: 90,
			InmatesCacheTTL:      24,
			WarnNotFound:         false,
			WarnAlreadyReleased:  true,
		},
		Cache: CacheConfig{
			Shards:         16,
			Eviction:       "LRU",
			WritePolicy:    WriteBack,
			WriteBuffer:    1024,
			PurgeInterval:  time.Hour,
			IdleTTLPeriods: 3,
		},
		Shipping: ShippingConfig{
			UnitAddressName: "Mailroom",
		},
	}
}

/*
Load builds the configuration in three layers:

 1. Defaults()
 2. the YAML file at path, when path is not empty
 3. IBP_* environment variables

The result is validated before it is returned.
*/
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "apply environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverNone, "":
	case store.DriverDuckDB, store.DriverMsgpack:
		if c.Database.Path == "" {
			return errors.Errorf("database.path is required for driver %q", c.Database.Driver)
		}
	default:
		return errors.Errorf("database.driver %q is not one of none, duckdb, msgpack", c.Database.Driver)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return errors.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	if c.Providers.Timeout <= 0 {
		return errors.New("providers.timeout must be > 0")
	}
	for i, ep := range c.Providers.Endpoints {
		if strings.TrimSpace(ep.BaseURL) == "" {
			return errors.Errorf("providers.endpoints[%d].base_url is required", i)
		}
		if _, err := ParseJurisdiction(ep.Jurisdiction); err != nil {
			return errors.Wrapf(err, "providers.endpoints[%d]", i)
		}
	}

	if c.Warnings.MinReleaseTimedelta <= 0 {
		return errors.New("warnings.min_release_timedelta must be > 0")
	}
	if c.Warnings.MinPostmarkTimedelta <= 0 {
		return errors.New("warnings.min_postmark_timedelta must be > 0")
	}
	if c.Warnings.InmatesCacheTTL <= 0 {
		return errors.New("warnings.inmates_cache_ttl must be > 0")
	}

	if c.Cache.Shards <= 0 {
		return errors.New("cache.shards must be > 0")
	}
	if c.Cache.Capacity < 0 {
		return errors.New("cache.capacity must be >= 0")
	}
	switch strings.ToUpper(c.Cache.Eviction) {
	case "", "LRU", "FIFO":
	default:
		return errors.Errorf("cache.eviction %q is not one of LRU, FIFO", c.Cache.Eviction)
	}
	switch c.Cache.WritePolicy {
	case WriteThrough, WriteBack:
	default:
		return errors.Errorf("cache.write_policy %q is not one of %s, %s", c.Cache.WritePolicy, WriteThrough, WriteBack)
	}
	if c.Cache.WritePolicy == WriteBack && c.Cache.WriteBuffer <= 0 {
		return errors.New("cache.write_buffer must be > 0 for write-back")
	}
	if c.Cache.IdleTTLPeriods < 0 {
		return errors.New("cache.idle_ttl_periods must be >= 0")
	}
	if c.Cache.RefreshAhead < 0 || c.Cache.RefreshAhead >= 1 {
		return errors.New("cache.refresh_ahead must be in [0, 1)")
	}
	return nil
}

// TTL is the inmate cache time-to-live.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Warnings.InmatesCacheTTL) * time.Hour
}

// ProviderTimeout is the deadline for a single provider call.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.Timeout * float64(time.Second))
}

// Policy is the warning policy described by the warnings section.
func (c *Config) Policy() warnings.Policy {
	return warnings.Policy{
		MinReleaseDays:      c.Warnings.MinReleaseTimedelta,
		MinPostmarkDays:     c.Warnings.MinPostmarkTimedelta,
		WarnNotFound:        c.Warnings.WarnNotFound,
		WarnAlreadyReleased: c.Warnings.WarnAlreadyReleased,
	}
}

// ParseJurisdiction maps a config value to a jurisdiction. Matching ignores case.
func ParseJurisdiction(s string) (types.Jurisdiction, error) {
	for _, j := range []types.Jurisdiction{types.Texas, types.Federal} {
		if strings.EqualFold(s, string(j)) {
			return j, nil
		}
	}
	return "", errors.Errorf("unknown jurisdiction %q", s)
}
