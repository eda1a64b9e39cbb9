// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tmarchal/autocote/pkg/market"
	"github.com/tmarchal/autocote/pkg/scoring"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Market        MarketConfig        `yaml:"market"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// ScoringConfig groups everything the composite scorer consumes: pillar
// weights, the confidence rules, and the per-category severity aggregation.
type ScoringConfig struct {
	Weights     scoring.Weights          `yaml:"weights"`
	NeutralDeal float64                  `yaml:"neutral_deal"`
	Confidence  scoring.ConfidenceConfig `yaml:"confidence"`
	Severity    scoring.SeverityConfigs  `yaml:"severity"`
}

// Composite assembles the scoring.CompositeConfig passed to the scorer.
func (s *ScoringConfig) Composite() scoring.CompositeConfig {
	return scoring.CompositeConfig{
		Weights:     s.Weights,
		NeutralDeal: s.NeutralDeal,
		Confidence:  s.Confidence,
		Severity:    s.Severity,
	}
}

// MarketConfig groups the valuation pipeline settings: cohort veto rules,
// outlier bounds, model training, and the deal-score ratio breakpoints.
type MarketConfig struct {
	Veto     market.VetoConfig       `yaml:"veto"`
	Outliers market.OutlierConfig    `yaml:"outliers"`
	Model    market.ModelConfig      `yaml:"model"`
	Ratios   market.RatioBreakpoints `yaml:"ratios"`
	// RefreshConcurrency bounds how many search scopes train in parallel.
	RefreshConcurrency int `yaml:"refresh_concurrency"`
}

// ScheduleConfig defines cron intervals for background jobs.
type ScheduleConfig struct {
	MarketRefreshInterval time.Duration `yaml:"market_refresh_interval"`
	ArchiveInterval       time.Duration `yaml:"archive_interval"`
	ArchiveAfterDays      int           `yaml:"archive_after_days"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
	// MinTotalScore is the composite total a listing must reach to notify.
	MinTotalScore float64 `yaml:"min_total_score"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. Validation is the one hard gate for the
// scoring contract: an inconsistent configuration must stop the process
// before any listing is scored with it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, used by tests and as the base
// for partial config files.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyScoringDefaults(&cfg.Scoring)
	applyMarketDefaults(&cfg.Market)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
	if cfg.Notifications.MinTotalScore == 0 {
		cfg.Notifications.MinTotalScore = 75
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	if s.Weights == (scoring.Weights{}) {
		s.Weights = scoring.DefaultWeights()
	}
	if s.NeutralDeal == 0 {
		s.NeutralDeal = 50
	}
	applyConfidenceDefaults(&s.Confidence)
	applySeverityDefaults(&s.Severity)
}

func applyConfidenceDefaults(c *scoring.ConfidenceConfig) {
	if c.Base == 0 {
		c.Base = 50
	}
	if c.BonusTags == nil {
		c.BonusTags = map[string]float64{
			"premiere_main":    15,
			"carnet_entretien": 10,
			"factures":         10,
			"suivi_garage":     5,
			"vendeur_pro":      5,
			"garantie":         5,
			"ct_ok":            5,
		}
	}
	if c.MalusTags == nil {
		c.MalusTags = map[string]float64{
			"orthographe_deplorable": -15,
			"ton_agressif":           -10,
			"description_vague":      -10,
			"cause_depart_suspecte":  -5,
		}
	}
	if c.DefaultBonus == 0 {
		c.DefaultBonus = 5
	}
	if c.DefaultMalus == 0 {
		c.DefaultMalus = -5
	}
	if c.Seller == (scoring.SellerConfig{}) {
		c.Seller = scoring.SellerConfig{
			MinReviews:   5,
			TopThreshold: 0.90,
			BadThreshold: 0.60,
			Bonus:        10,
			Malus:        -10,
		}
	}
	if c.Description == (scoring.DescriptionConfig{}) {
		c.Description = scoring.DescriptionConfig{
			ShortLen:     10,
			ShortPenalty: -15,
			LongLen:      100,
			LongBonus:    5,
		}
	}
}

func applySeverityDefaults(s *scoring.SeverityConfigs) {
	zero := scoring.AggregationConfig{}
	if s.Mechanical == zero {
		s.Mechanical = scoring.AggregationConfig{Alpha: 0.40, SumCap: 1.00, KMin: 0.25}
	}
	if s.Modification == zero {
		hard := 0.80
		floor := 0.30
		s.Modification = scoring.AggregationConfig{
			Alpha:         0.75,
			SumCap:        0.60,
			KMin:          0.70,
			HardThreshold: &hard,
			KMinHard:      &floor,
		}
	}
	if s.Scam == zero {
		s.Scam = scoring.AggregationConfig{Alpha: 0.90, SumCap: 0.40, KMin: 0.05}
	}
}

func applyMarketDefaults(m *MarketConfig) {
	if m.Veto.MinScamKForMarket == 0 {
		m.Veto = market.VetoConfig{
			RequireAIScores:   true,
			MinScamKForMarket: 0.5,
			PriceFloorRatio:   0.30,
			PriceFloorStat:    "median",
			ExcludeStatus:     []string{"SCAM"},
			ExcludeUserStatus: []string{"TRASH", "SCAM_MANUAL"},
		}
	}
	if m.Outliers == (market.OutlierConfig{}) {
		m.Outliers = market.OutlierConfig{
			MinPrice:   500,
			MaxPrice:   200000,
			MinMileage: 500,
			MaxMileage: 900000,
		}
	}
	if m.Model.MinSamples == 0 {
		m.Model.MinSamples = 15
	}
	if m.Model.MinFillRate == 0 {
		m.Model.MinFillRate = 0.6
	}
	if m.Model.Candidates == nil {
		m.Model.Candidates = []string{market.FeatureHorsepower}
	}
	if m.Model.Forest.NEstimators == 0 {
		m.Model.Forest.NEstimators = 100
	}
	if m.Model.Forest.Seed == 0 {
		m.Model.Forest.Seed = 42
	}
	if m.Ratios == (market.RatioBreakpoints{}) {
		m.Ratios = market.RatioBreakpoints{Good: 0.5, Neutral: 1.0, Bad: 1.5}
	}
	if m.RefreshConcurrency == 0 {
		m.RefreshConcurrency = 4
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.MarketRefreshInterval == 0 {
		s.MarketRefreshInterval = 1 * time.Hour
	}
	if s.ArchiveInterval == 0 {
		s.ArchiveInterval = 6 * time.Hour
	}
	if s.ArchiveAfterDays == 0 {
		s.ArchiveAfterDays = 3
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

const weightSumTolerance = 1e-6

// Validate checks the configuration invariants the scoring algorithms rely
// on. A violation here is fatal at startup; none of these are re-checked per
// listing.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	w := cfg.Scoring.Weights
	sum := w.Deal + w.Conf + w.Prod
	if sum < 1-weightSumTolerance || sum > 1+weightSumTolerance {
		errs = append(errs, fmt.Errorf(
			"scoring.weights must sum to 1.0 (got %.4f)", sum))
	}

	errs = append(errs, validateSeverity("mechanical", cfg.Scoring.Severity.Mechanical)...)
	errs = append(errs, validateSeverity("modification", cfg.Scoring.Severity.Modification)...)
	errs = append(errs, validateSeverity("scam", cfg.Scoring.Severity.Scam)...)

	r := cfg.Market.Ratios
	if !(r.Good < r.Neutral && r.Neutral < r.Bad) {
		errs = append(errs, fmt.Errorf(
			"market.ratios must satisfy good < neutral < bad (got %.2f/%.2f/%.2f)",
			r.Good, r.Neutral, r.Bad))
	}

	if cfg.Market.Model.MinSamples <= 0 {
		errs = append(errs, fmt.Errorf("market.model.min_samples must be positive"))
	}
	if cfg.Market.Model.MinFillRate < 0 || cfg.Market.Model.MinFillRate > 1 {
		errs = append(errs, fmt.Errorf("market.model.min_fill_rate must be in [0,1]"))
	}

	o := cfg.Market.Outliers
	if o.MinPrice > o.MaxPrice {
		errs = append(errs, fmt.Errorf("market.outliers price bounds are inverted"))
	}
	if o.MinMileage > o.MaxMileage {
		errs = append(errs, fmt.Errorf("market.outliers mileage bounds are inverted"))
	}

	if stat := cfg.Market.Veto.PriceFloorStat; stat != "median" && stat != "mean" {
		errs = append(errs, fmt.Errorf(
			"market.veto.price_floor_stat must be median or mean (got %q)", stat))
	}

	return errors.Join(errs...)
}

func validateSeverity(name string, c scoring.AggregationConfig) []error {
	var errs []error
	if c.Alpha < 0 || c.Alpha > 1 {
		errs = append(errs, fmt.Errorf("scoring.severity.%s.alpha must be in [0,1]", name))
	}
	if c.SumCap < 0 {
		errs = append(errs, fmt.Errorf("scoring.severity.%s.sum_cap must be >= 0", name))
	}
	if c.KMin < 0 || c.KMin > 1 {
		errs = append(errs, fmt.Errorf("scoring.severity.%s.k_min must be in [0,1]", name))
	}
	if c.HardThreshold != nil {
		if *c.HardThreshold <= 0 || *c.HardThreshold > 1 {
			errs = append(errs, fmt.Errorf(
				"scoring.severity.%s.hard_threshold must be in (0,1]", name))
		}
		if c.KMinHard == nil {
			errs = append(errs, fmt.Errorf(
				"scoring.severity.%s.k_min_hard is required with hard_threshold", name))
		} else if *c.KMinHard > c.KMin {
			errs = append(errs, fmt.Errorf(
				"scoring.severity.%s.k_min_hard must not exceed k_min", name))
		}
	}
	return errs
}
