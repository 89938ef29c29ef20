// Package config provides the policy configuration for the recommendation
// pipeline.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/halpertlabs/flightdeck/internal/models"
)

// Policy defaults
const (
	// defaultKellyFraction is the fractional-Kelly multiplier applied to the
	// full Kelly fraction before any hard cap.
	defaultKellyFraction = 0.10
	// defaultPerTradePct caps a single trade's max loss as a share of equity.
	defaultPerTradePct = 0.02
	// defaultPortfolioPct caps aggregate max loss across open positions.
	defaultPortfolioPct = 0.06
	// defaultLeveragePct caps total margin as a share of equity.
	defaultLeveragePct = 0.50
	// defaultMinEquity is the smallest account the sizer will size for.
	defaultMinEquity = 2000.0

	defaultTopN           = 3
	defaultTargetDTE      = 35
	defaultCalendarFarDTE = 65

	defaultCacheTTLMinutes = 60
	defaultGapClosePct     = 0.05
)

// Config represents the complete pipeline policy configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Kelly       KellyConfig       `yaml:"kelly"`
	Caps        CapsConfig        `yaml:"caps"`
	Router      RouterConfig      `yaml:"router"`
	Regime      RegimeConfig      `yaml:"regime"`
	Manual      ManualConfig      `yaml:"manual"`
	Experience  ExperienceConfig  `yaml:"experience"`
}

// EnvironmentConfig defines runtime environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// KellyConfig defines the fractional-Kelly discipline.
type KellyConfig struct {
	Fraction float64 `yaml:"fraction"`
}

// CapsConfig defines the hard risk caps applied after Kelly sizing.
type CapsConfig struct {
	PerTradePct  float64 `yaml:"per_trade_pct"`
	PortfolioPct float64 `yaml:"portfolio_pct"`
	LeveragePct  float64 `yaml:"leverage_pct"`
	MinEquity    float64 `yaml:"min_equity"`
}

// RouterConfig defines strategy enumeration parameters.
type RouterConfig struct {
	TopN           int                                         `yaml:"top_n"`
	TargetDTE      int                                         `yaml:"target_dte"`
	CalendarFarDTE int                                         `yaml:"calendar_far_dte"`
	DeltaBands     map[models.StrategyTemplate]DeltaBandConfig `yaml:"delta_bands"`
}

// DeltaBandConfig defines the |delta| ranges used to select strikes for one
// template. Short bands pick the income/anchor strikes, long bands pick the
// protective wings or bought legs. Templates that have no short leg ignore
// the short band.
type DeltaBandConfig struct {
	ShortMin float64 `yaml:"short_min"`
	ShortMax float64 `yaml:"short_max"`
	LongMin  float64 `yaml:"long_min"`
	LongMax  float64 `yaml:"long_max"`
}

// RegimeConfig defines regime-detector settings.
type RegimeConfig struct {
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
}

// ManualConfig defines flight-manual rendering parameters.
type ManualConfig struct {
	// GapClosePct is the adverse overnight gap, as a fraction of spot, that
	// triggers the contingency rule.
	GapClosePct float64 `yaml:"gap_close_pct"`
}

// ExperienceConfig maps each template to the minimum experience level
// allowed to trade it.
type ExperienceConfig struct {
	Tiers map[models.StrategyTemplate]models.ExperienceLevel `yaml:"tiers"`
}

// Load reads and parses the policy file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default returns the policy with every field at its default value.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Kelly.Fraction == 0 {
		c.Kelly.Fraction = defaultKellyFraction
	}
	if c.Caps.PerTradePct == 0 {
		c.Caps.PerTradePct = defaultPerTradePct
	}
	if c.Caps.PortfolioPct == 0 {
		c.Caps.PortfolioPct = defaultPortfolioPct
	}
	if c.Caps.LeveragePct == 0 {
		c.Caps.LeveragePct = defaultLeveragePct
	}
	if c.Caps.MinEquity == 0 {
		c.Caps.MinEquity = defaultMinEquity
	}
	if c.Router.TopN == 0 {
		c.Router.TopN = defaultTopN
	}
	if c.Router.TargetDTE == 0 {
		c.Router.TargetDTE = defaultTargetDTE
	}
	if c.Router.CalendarFarDTE == 0 {
		c.Router.CalendarFarDTE = defaultCalendarFarDTE
	}
	if c.Router.DeltaBands == nil {
		c.Router.DeltaBands = map[models.StrategyTemplate]DeltaBandConfig{}
	}
	for template, band := range defaultDeltaBands() {
		if _, ok := c.Router.DeltaBands[template]; !ok {
			c.Router.DeltaBands[template] = band
		}
	}
	if c.Regime.CacheTTLMinutes == 0 {
		c.Regime.CacheTTLMinutes = defaultCacheTTLMinutes
	}
	if c.Manual.GapClosePct == 0 {
		c.Manual.GapClosePct = defaultGapClosePct
	}
	if c.Experience.Tiers == nil {
		c.Experience.Tiers = map[models.StrategyTemplate]models.ExperienceLevel{}
	}
	for template, level := range defaultExperienceTiers() {
		if _, ok := c.Experience.Tiers[template]; !ok {
			c.Experience.Tiers[template] = level
		}
	}
}

func defaultDeltaBands() map[models.StrategyTemplate]DeltaBandConfig {
	return map[models.StrategyTemplate]DeltaBandConfig{
		models.IronCondor:       {ShortMin: 0.10, ShortMax: 0.20, LongMin: 0.02, LongMax: 0.10},
		models.IronButterfly:    {ShortMin: 0.40, ShortMax: 0.60, LongMin: 0.05, LongMax: 0.20},
		models.DebitCallSpread:  {ShortMin: 0.25, ShortMax: 0.40, LongMin: 0.55, LongMax: 0.70},
		models.DebitPutSpread:   {ShortMin: 0.25, ShortMax: 0.40, LongMin: 0.55, LongMax: 0.70},
		models.CallCreditSpread: {ShortMin: 0.20, ShortMax: 0.35, LongMin: 0.05, LongMax: 0.15},
		models.CashSecuredPut:   {ShortMin: 0.15, ShortMax: 0.30},
		models.LongStraddle:     {LongMin: 0.45, LongMax: 0.55},
		models.CalendarSpread:   {LongMin: 0.45, LongMax: 0.55},
	}
}

func defaultExperienceTiers() map[models.StrategyTemplate]models.ExperienceLevel {
	return map[models.StrategyTemplate]models.ExperienceLevel{
		models.CashSecuredPut:   models.ExperienceBasic,
		models.DebitCallSpread:  models.ExperienceBasic,
		models.DebitPutSpread:   models.ExperienceBasic,
		models.CallCreditSpread: models.ExperienceIntermediate,
		models.IronCondor:       models.ExperienceIntermediate,
		models.IronButterfly:    models.ExperienceIntermediate,
		models.LongStraddle:     models.ExperienceIntermediate,
		models.CalendarSpread:   models.ExperiencePro,
	}
}

// Validate checks that all policy values are valid and consistent.
func (c *Config) Validate() error {
	switch c.Environment.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be one of debug|info|warn|error")
	}

	if c.Kelly.Fraction <= 0 || c.Kelly.Fraction > 1 {
		return fmt.Errorf("kelly.fraction must be in (0,1]")
	}

	if c.Caps.PerTradePct <= 0 || c.Caps.PerTradePct > 1 {
		return fmt.Errorf("caps.per_trade_pct must be in (0,1]")
	}
	if c.Caps.PortfolioPct <= 0 || c.Caps.PortfolioPct > 1 {
		return fmt.Errorf("caps.portfolio_pct must be in (0,1]")
	}
	if c.Caps.PerTradePct > c.Caps.PortfolioPct {
		return fmt.Errorf("caps.per_trade_pct (%.4f) must be <= caps.portfolio_pct (%.4f)",
			c.Caps.PerTradePct, c.Caps.PortfolioPct)
	}
	if c.Caps.LeveragePct <= 0 || c.Caps.LeveragePct > 1 {
		return fmt.Errorf("caps.leverage_pct must be in (0,1]")
	}
	if c.Caps.MinEquity < 0 {
		return fmt.Errorf("caps.min_equity must be >= 0")
	}

	if c.Router.TopN <= 0 {
		return fmt.Errorf("router.top_n must be > 0")
	}
	if c.Router.TargetDTE <= 0 {
		return fmt.Errorf("router.target_dte must be > 0")
	}
	if c.Router.CalendarFarDTE <= c.Router.TargetDTE {
		return fmt.Errorf("router.calendar_far_dte (%d) must be > router.target_dte (%d)",
			c.Router.CalendarFarDTE, c.Router.TargetDTE)
	}
	for template, band := range c.Router.DeltaBands {
		if !template.Valid() {
			return fmt.Errorf("router.delta_bands: unknown template %q", template)
		}
		if band.ShortMin < 0 || band.ShortMax > 1 || band.ShortMin > band.ShortMax {
			return fmt.Errorf("router.delta_bands.%s: short band [%.2f,%.2f] invalid", template, band.ShortMin, band.ShortMax)
		}
		if band.LongMin < 0 || band.LongMax > 1 || band.LongMin > band.LongMax {
			return fmt.Errorf("router.delta_bands.%s: long band [%.2f,%.2f] invalid", template, band.LongMin, band.LongMax)
		}
	}

	if c.Regime.CacheTTLMinutes <= 0 || c.Regime.CacheTTLMinutes > 60 {
		return fmt.Errorf("regime.cache_ttl_minutes must be in (0,60]")
	}

	if c.Manual.GapClosePct <= 0 || c.Manual.GapClosePct >= 1 {
		return fmt.Errorf("manual.gap_close_pct must be in (0,1)")
	}

	for template, level := range c.Experience.Tiers {
		if !template.Valid() {
			return fmt.Errorf("experience.tiers: unknown template %q", template)
		}
		if !level.Valid() {
			return fmt.Errorf("experience.tiers.%s: unknown level %q", template, level)
		}
	}

	return nil
}

// CacheTTL returns the regime cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Regime.CacheTTLMinutes) * time.Minute
}
