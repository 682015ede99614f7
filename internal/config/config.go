// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Explorer() ExplorerConfig
	Frontier() FrontierConfig
	Safety() SafetyConfig
	Session() SessionConfig
	Browser() BrowserConfig

	// Explorer Setters
	SetExplorerStrategy(string)
	SetExplorerEpsilon(float64)
	SetExplorerSeed(int64)

	// Session Setters
	SetSessionMaxActions(int)
	SetSessionMaxDuration(time.Duration)

	// Browser Setters
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration. Access goes through
// the Interface getters so components can be handed a narrow view.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	ExplorerCfg ExplorerConfig `mapstructure:"explorer" yaml:"explorer"`
	FrontierCfg FrontierConfig `mapstructure:"frontier" yaml:"frontier"`
	SafetyCfg   SafetyConfig   `mapstructure:"safety" yaml:"safety"`
	SessionCfg  SessionConfig  `mapstructure:"session" yaml:"session"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Explorer() ExplorerConfig { return c.ExplorerCfg }
func (c *Config) Frontier() FrontierConfig { return c.FrontierCfg }
func (c *Config) Safety() SafetyConfig     { return c.SafetyCfg }
func (c *Config) Session() SessionConfig   { return c.SessionCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetExplorerStrategy(s string)          { c.ExplorerCfg.Strategy = s }
func (c *Config) SetExplorerEpsilon(e float64)          { c.ExplorerCfg.Epsilon = e }
func (c *Config) SetExplorerSeed(s int64)               { c.ExplorerCfg.Seed = s }
func (c *Config) SetSessionMaxActions(n int)            { c.SessionCfg.MaxActions = n }
func (c *Config) SetSessionMaxDuration(d time.Duration) { c.SessionCfg.MaxDuration = d }
func (c *Config) SetBrowserHeadless(b bool)             { c.BrowserCfg.Headless = b }

// LoggerConfig holds settings for the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// RNDConfig tunes the learned (random network distillation) novelty signal.
type RNDConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	InDim        int     `mapstructure:"in_dim" yaml:"in_dim"`
	OutDim       int     `mapstructure:"out_dim" yaml:"out_dim"`
	LearningRate float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	// Saturation is the c in mse/(c+mse). Tuned, not derived.
	Saturation float64 `mapstructure:"saturation" yaml:"saturation"`
}

// ExplorerConfig tunes the decision engine.
type ExplorerConfig struct {
	Strategy            string    `mapstructure:"strategy" yaml:"strategy"`
	Epsilon             float64   `mapstructure:"epsilon" yaml:"epsilon"`
	NoveltyBlend        float64   `mapstructure:"novelty_blend" yaml:"novelty_blend"`
	NoveltyLowThreshold float64   `mapstructure:"novelty_low_threshold" yaml:"novelty_low_threshold"`
	ProgressHorizon     int       `mapstructure:"progress_horizon" yaml:"progress_horizon"`
	FingerprintBits     int       `mapstructure:"fingerprint_bits" yaml:"fingerprint_bits"`
	VectorDims          int       `mapstructure:"vector_dims" yaml:"vector_dims"`
	Seed                int64     `mapstructure:"seed" yaml:"seed"` // 0 means time-seeded
	RND                 RNDConfig `mapstructure:"rnd" yaml:"rnd"`
}

// FrontierConfig tunes the backtracking archive.
type FrontierConfig struct {
	MaxEntries      int           `mapstructure:"max_entries" yaml:"max_entries"`
	RecencyHalfLife time.Duration `mapstructure:"recency_half_life" yaml:"recency_half_life"`
}

// SafetyConfig tunes the action guard.
type SafetyConfig struct {
	MaxActionsPerWindow int           `mapstructure:"max_actions_per_window" yaml:"max_actions_per_window"`
	Window              time.Duration `mapstructure:"window" yaml:"window"`
	ExtraKeywords       []string      `mapstructure:"extra_keywords" yaml:"extra_keywords"`
	RestrictToDomain    bool          `mapstructure:"restrict_to_domain" yaml:"restrict_to_domain"`
	IncludeSubdomains   bool          `mapstructure:"include_subdomains" yaml:"include_subdomains"`
}

// SessionConfig holds the per-session termination ceilings.
type SessionConfig struct {
	MaxDuration time.Duration `mapstructure:"max_duration" yaml:"max_duration"`
	MaxActions  int           `mapstructure:"max_actions" yaml:"max_actions"`
	MaxPages    int           `mapstructure:"max_pages" yaml:"max_pages"`
	MaxFailures int           `mapstructure:"max_failures" yaml:"max_failures"`
}

// BrowserConfig tunes the chromedp collaborators.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	ActionsPerSecond  float64       `mapstructure:"actions_per_second" yaml:"actions_per_second"`
	MaxElements       int           `mapstructure:"max_elements" yaml:"max_elements"`
}

// NewDefaultConfig returns a Config populated with the package defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; an unmarshal failure here is a programming error.
		panic(fmt.Sprintf("config: failed to unmarshal defaults: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "wayward")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// Explorer
	v.SetDefault("explorer.strategy", "curiosity")
	v.SetDefault("explorer.epsilon", 0.15)
	v.SetDefault("explorer.novelty_blend", 0.3)
	v.SetDefault("explorer.novelty_low_threshold", 0.4)
	v.SetDefault("explorer.progress_horizon", 30)
	v.SetDefault("explorer.fingerprint_bits", 64)
	v.SetDefault("explorer.vector_dims", 256)
	v.SetDefault("explorer.seed", 0)
	v.SetDefault("explorer.rnd.enabled", true)
	v.SetDefault("explorer.rnd.in_dim", 256)
	v.SetDefault("explorer.rnd.out_dim", 64)
	v.SetDefault("explorer.rnd.learning_rate", 0.001)
	v.SetDefault("explorer.rnd.saturation", 0.25)

	// Frontier
	v.SetDefault("frontier.max_entries", 10000)
	v.SetDefault("frontier.recency_half_life", 60*time.Second)

	// Safety
	v.SetDefault("safety.max_actions_per_window", 30)
	v.SetDefault("safety.window", 60*time.Second)
	v.SetDefault("safety.extra_keywords", []string{})
	v.SetDefault("safety.restrict_to_domain", true)
	v.SetDefault("safety.include_subdomains", true)

	// Session ceilings
	v.SetDefault("session.max_duration", 10*time.Minute)
	v.SetDefault("session.max_actions", 100)
	v.SetDefault("session.max_pages", 50)
	v.SetDefault("session.max_failures", 10)

	// Browser
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.post_load_wait", 1500*time.Millisecond)
	v.SetDefault("browser.actions_per_second", 2.0)
	v.SetDefault("browser.max_elements", 200)
}
