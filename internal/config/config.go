package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `mapstructure:"log_level"`
	JSONLog  bool   `mapstructure:"json"`

	// Browser
	UserAgent          string        `mapstructure:"user_agent"`
	Proxies            []string      `mapstructure:"proxies"`
	Headers            []string      `mapstructure:"headers"`
	Headless           bool          `mapstructure:"headless"`
	ChromePath         string        `mapstructure:"chrome_path"`
	PoolAcquireTimeout time.Duration `mapstructure:"pool_acquire_timeout"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout"`

	// Files
	StartURL    string `mapstructure:"start_url"`
	CatalogPath string `mapstructure:"catalog_path"`
	DatasetPath string `mapstructure:"dataset_path"`

	// Discovery
	MaxLoadMore int           `mapstructure:"max_load_more"`
	ControlWait time.Duration `mapstructure:"control_wait"`
	ScrollPause time.Duration `mapstructure:"scroll_pause"`
	ClickPause  time.Duration `mapstructure:"click_pause"`

	// Scraping
	Workers              int           `mapstructure:"workers"`
	Ordered              bool          `mapstructure:"ordered"`
	ReadyTimeout         time.Duration `mapstructure:"ready_timeout"`
	DatasheetControlWait time.Duration `mapstructure:"datasheet_control_wait"`
	DatasheetWait        time.Duration `mapstructure:"datasheet_wait"`
	ItemTimeout          time.Duration `mapstructure:"item_timeout"`
	RunTimeout           time.Duration `mapstructure:"run_timeout"`
	RetryAttempts        int           `mapstructure:"retry_attempts"`

	// Rate Limiting
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Defaults returns a Config holding only default values
func Defaults() *Config {
	return &Config{
		LogLevel:             DefaultLogLevel,
		JSONLog:              DefaultJSONLog,
		UserAgent:            DefaultUserAgent,
		Headless:             DefaultHeadless,
		PoolAcquireTimeout:   DefaultPoolAcquireTimeout,
		NavigationTimeout:    DefaultNavigationTimeout,
		StartURL:             DefaultStartURL,
		CatalogPath:          DefaultCatalogPath,
		DatasetPath:          DefaultDatasetPath,
		MaxLoadMore:          DefaultMaxLoadMore,
		ControlWait:          DefaultControlWait,
		ScrollPause:          DefaultScrollPause,
		ClickPause:           DefaultClickPause,
		Workers:              DefaultWorkers,
		Ordered:              DefaultOrdered,
		ReadyTimeout:         DefaultReadyTimeout,
		DatasheetControlWait: DefaultDatasheetControlWait,
		DatasheetWait:        DefaultDatasheetWait,
		ItemTimeout:          DefaultItemTimeout,
		RunTimeout:           DefaultRunTimeout,
		RetryAttempts:        DefaultRetryAttempts,
		RateLimitRPS:         DefaultRateLimitRPS,
		RateLimitBurst:       DefaultRateLimitBurst,
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("json", d.JSONLog)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("chrome_path", "")
	v.SetDefault("pool_acquire_timeout", d.PoolAcquireTimeout)
	v.SetDefault("navigation_timeout", d.NavigationTimeout)
	v.SetDefault("start_url", d.StartURL)
	v.SetDefault("catalog_path", d.CatalogPath)
	v.SetDefault("dataset_path", d.DatasetPath)
	v.SetDefault("max_load_more", d.MaxLoadMore)
	v.SetDefault("control_wait", d.ControlWait)
	v.SetDefault("scroll_pause", d.ScrollPause)
	v.SetDefault("click_pause", d.ClickPause)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("ordered", d.Ordered)
	v.SetDefault("ready_timeout", d.ReadyTimeout)
	v.SetDefault("datasheet_control_wait", d.DatasheetControlWait)
	v.SetDefault("datasheet_wait", d.DatasheetWait)
	v.SetDefault("item_timeout", d.ItemTimeout)
	v.SetDefault("run_timeout", d.RunTimeout)
	v.SetDefault("retry_attempts", d.RetryAttempts)
	v.SetDefault("rate_limit_rps", d.RateLimitRPS)
	v.SetDefault("rate_limit_burst", d.RateLimitBurst)
}

// Load builds a Config by combining defaults, an optional config file, a
// .env file, environment variables and CLI flags, in increasing priority.
// aliases maps command-specific flag names to config keys (e.g. "output"
// to "catalog_path"); other flags bind to the key of the same name with
// dashes turned into underscores.
func Load(cmd *cobra.Command, aliases map[string]string) (*Config, error) {
	if err := loadDotEnv(flagString(cmd, "env-file")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	setDefaults(v)
	// keys without a default must be bound to be seen in the environment
	for _, key := range []string{"proxies", "headers"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path := flagString(cmd, "config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scentcrawl")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if cmd != nil {
		if err := bindFlags(v, cmd.Flags(), aliases); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads path, or ./.env when path is empty. A missing default
// file is fine; a missing explicit one is not.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not load env file %s: %w", path, err)
	}
	return nil
}

// flagKeys maps global flags whose name differs from their config key
var flagKeys = map[string]string{"header": "headers"}

// bindFlags binds every flag the user actually set
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, aliases map[string]string) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || !f.Changed {
			return
		}
		switch f.Name {
		case "config", "env-file", "help", "version":
			return
		case "verbose":
			if f.Value.String() == "true" {
				v.Set("log_level", "debug")
			}
			return
		case "quiet":
			if f.Value.String() == "true" {
				v.Set("log_level", "error")
			}
			return
		}

		key, ok := aliases[f.Name]
		if !ok {
			key, ok = flagKeys[f.Name]
		}
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func flagString(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	f := cmd.Flags().Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}
