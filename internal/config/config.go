package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Screen    ScreenConfig              `mapstructure:"screen"`
	Universe  UniverseConfig            `mapstructure:"universe"`
	Collector CollectorConfig           `mapstructure:"collector"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Report    ReportConfig              `mapstructure:"report"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Schedule  ScheduleConfig            `mapstructure:"schedule"`
	Logging   LoggingConfig             `mapstructure:"logging"`
}

// ScreenConfig holds the fixed screening parameters.
type ScreenConfig struct {
	TopN            int     `mapstructure:"top_n"`
	MAMonths        int     `mapstructure:"ma_months"`
	MomMonths       int     `mapstructure:"mom_months"`
	CorrThreshold   float64 `mapstructure:"corr_threshold"`
	LiqThresholdJPY float64 `mapstructure:"liq_threshold_jpy"`
	LiqThresholdUSD float64 `mapstructure:"liq_threshold_usd"`
	PortfolioValue  float64 `mapstructure:"portfolio_value"`
	LiquidityWindow int     `mapstructure:"liquidity_window"`
}

type UniverseConfig struct {
	Path string `mapstructure:"path"`
}

type CollectorConfig struct {
	Provider      string        `mapstructure:"provider"` // "yahoo" or "csv"
	PeriodYears   int           `mapstructure:"period_years"`
	Retries       int           `mapstructure:"retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// Path is the directory of <SYMBOL>.csv files read by the csv provider.
	Path string `mapstructure:"path"`
	// BreakerFailures trips the provider circuit after this many consecutive failures.
	BreakerFailures int `mapstructure:"breaker_failures"`
}

type StorageConfig struct {
	Type    string        `mapstructure:"type"` // "localfs" or "s3"
	Path    string        `mapstructure:"path"` // For localfs
	S3      S3Config      `mapstructure:"s3"`   // For S3
	History HistoryConfig `mapstructure:"history"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// HistoryConfig selects where pick snapshots live. "archive" keeps them
// next to the other run artifacts.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"` // "archive" or "postgres"
	DSN     string `mapstructure:"dsn"`
}

type ReportConfig struct {
	HTML         bool `mapstructure:"html"`
	XLSX         bool `mapstructure:"xlsx"`
	HistoryLinks int  `mapstructure:"history_links"`
}

type NotifierConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	BotToken string            `mapstructure:"bot_token"`
	ChatID   string            `mapstructure:"chat_id"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig holds the cron expression for the schedule command.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("TRENDSCREEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("screen.top_n", d.Screen.TopN)
	v.SetDefault("screen.ma_months", d.Screen.MAMonths)
	v.SetDefault("screen.mom_months", d.Screen.MomMonths)
	v.SetDefault("screen.corr_threshold", d.Screen.CorrThreshold)
	v.SetDefault("screen.liq_threshold_jpy", d.Screen.LiqThresholdJPY)
	v.SetDefault("screen.liq_threshold_usd", d.Screen.LiqThresholdUSD)
	v.SetDefault("screen.portfolio_value", d.Screen.PortfolioValue)
	v.SetDefault("screen.liquidity_window", d.Screen.LiquidityWindow)
	v.SetDefault("universe.path", d.Universe.Path)
	v.SetDefault("collector.provider", d.Collector.Provider)
	v.SetDefault("collector.path", d.Collector.Path)
	v.SetDefault("collector.period_years", d.Collector.PeriodYears)
	v.SetDefault("collector.retries", d.Collector.Retries)
	v.SetDefault("collector.retry_delay", d.Collector.RetryDelay)
	v.SetDefault("collector.rate_per_second", d.Collector.RatePerSecond)
	v.SetDefault("collector.timeout", d.Collector.Timeout)
	v.SetDefault("collector.breaker_failures", d.Collector.BreakerFailures)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.history.backend", d.Storage.History.Backend)
	v.SetDefault("report.html", d.Report.HTML)
	v.SetDefault("report.xlsx", d.Report.XLSX)
	v.SetDefault("report.history_links", d.Report.HistoryLinks)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("schedule.cron", d.Schedule.Cron)
	v.SetDefault("schedule.timezone", d.Schedule.Timezone)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Screen: ScreenConfig{
			TopN:            3,
			MAMonths:        10,
			MomMonths:       12,
			CorrThreshold:   0.95,
			LiqThresholdJPY: 50_000_000,
			LiqThresholdUSD: 1_000_000,
			PortfolioValue:  1_000_000,
			LiquidityWindow: 60,
		},
		Universe: UniverseConfig{
			Path: "universe.csv",
		},
		Collector: CollectorConfig{
			Provider:        "yahoo",
			PeriodYears:     15,
			Retries:         3,
			RetryDelay:      2 * time.Second,
			RatePerSecond:   2,
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "out",
			History: HistoryConfig{
				Backend: "archive",
			},
		},
		Report: ReportConfig{
			HTML:         true,
			HistoryLinks: 12,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9108",
			Path:    "/metrics",
		},
		Schedule: ScheduleConfig{
			// 06:00 on the 1st of each month, after the prior month has closed.
			Cron:     "0 6 1 * *",
			Timezone: "UTC",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	s := c.Screen
	if s.TopN < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("top_n must be at least 1, got %d", s.TopN))
	}
	if s.MAMonths < 1 || s.MomMonths < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("ma_months and mom_months must be positive, got %d/%d", s.MAMonths, s.MomMonths))
	}
	if s.CorrThreshold <= 0 || s.CorrThreshold > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("corr_threshold must be in (0, 1], got %f", s.CorrThreshold))
	}
	if s.LiqThresholdJPY < 0 || s.LiqThresholdUSD < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("liquidity thresholds cannot be negative"))
	}
	if s.PortfolioValue <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("portfolio_value must be positive, got %f", s.PortfolioValue))
	}
	if s.LiquidityWindow < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("liquidity_window must be positive, got %d", s.LiquidityWindow))
	}

	if c.Universe.Path == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("universe.path is required"))
	}

	switch c.Collector.Provider {
	case "yahoo":
	case "csv":
		if c.Collector.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("collector.path required when provider is csv"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown collector provider %q", c.Collector.Provider))
	}
	if c.Collector.Retries < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("collector.retries must be at least 1, got %d", c.Collector.Retries))
	}
	if c.Collector.PeriodYears < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("collector.period_years must be positive, got %d", c.Collector.PeriodYears))
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.path required when type is localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.s3.bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	switch c.Storage.History.Backend {
	case "", "archive":
	case "postgres":
		if c.Storage.History.DSN == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.history.dsn required when backend is postgres"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown history backend %q", c.Storage.History.Backend))
	}

	for name, n := range c.Notifiers {
		if !n.Enabled {
			continue
		}
		switch name {
		case "telegram":
			if n.BotToken == "" || n.ChatID == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("telegram bot_token and chat_id required when enabled"))
			}
		case "webhook":
			if n.URL == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("webhook url required when enabled"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown notifier %q", name))
		}
	}

	return nil
}
