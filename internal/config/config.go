// Package config loads vcilog settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/Geun-Oh/vcilog/internal/filter"
	"github.com/Geun-Oh/vcilog/internal/format"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/source"
)

// EnvPrefix prefixes every environment variable, e.g. VCILOG_CONNECT.
const EnvPrefix = "VCILOG"

// Setting keys. Top-level keys are also the names of the bound flags.
const (
	KeyConnect            = "connect"
	KeyFormat             = "format"
	KeyAllWarnings        = "all-warnings"
	KeyOutputSystemStatus = "output-system-status"
	KeySuppress           = "suppress-state-shared-variable"
	KeyIncludeText        = "include-text"
	KeyExcludeText        = "exclude-text"
	KeyIncludeItem        = "include-item"
	KeyExcludeItem        = "exclude-item"
	KeyRegex              = "regex-search"
	KeyNoColor            = "no-color"
	KeyTUI                = "tui"
	KeyOutputFile         = "output-file"
	KeyBefore             = "before"
	KeyAfter              = "after"
	KeyAlert              = "alert"
	KeyMetricsAddr        = "metrics-addr"
	KeyReconnect          = "reconnect"
	KeyHandshakeTimeout   = "handshake-timeout"
	KeyStats              = "stats"
	KeyHistory            = "history"
	KeyExplain            = "explain"
	KeyLogLevel           = "log.level"
	KeyLogPath            = "log.path"
)

// Config is the resolved configuration of one vcilog run.
type Config struct {
	Connect string `mapstructure:"connect"`
	Format  string `mapstructure:"format"`

	AllWarnings        bool   `mapstructure:"all-warnings"`
	OutputSystemStatus bool   `mapstructure:"output-system-status"`
	Suppress           bool   `mapstructure:"suppress-state-shared-variable"`
	IncludeText        string `mapstructure:"include-text"`
	ExcludeText        string `mapstructure:"exclude-text"`
	IncludeItem        string `mapstructure:"include-item"`
	ExcludeItem        string `mapstructure:"exclude-item"`
	Regex              bool   `mapstructure:"regex-search"`

	NoColor    bool     `mapstructure:"no-color"`
	TUI        bool     `mapstructure:"tui"`
	OutputFile string   `mapstructure:"output-file"`
	Before     int      `mapstructure:"before"`
	After      int      `mapstructure:"after"`
	Alerts     []string `mapstructure:"alert"`
	Stats      bool     `mapstructure:"stats"`
	History    int      `mapstructure:"history"`
	Explain    bool     `mapstructure:"explain"`

	MetricsAddr      string        `mapstructure:"metrics-addr"`
	Reconnect        time.Duration `mapstructure:"reconnect"`
	HandshakeTimeout time.Duration `mapstructure:"handshake-timeout"`

	Log logger.Config `mapstructure:"log"`
}

// New returns a viper instance holding the defaults.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyConnect, source.DefaultURL)
	v.SetDefault(KeyFormat, format.NameDefault)
	v.SetDefault(KeyAllWarnings, false)
	v.SetDefault(KeyOutputSystemStatus, false)
	v.SetDefault(KeySuppress, false)
	v.SetDefault(KeyIncludeText, "")
	v.SetDefault(KeyExcludeText, "")
	v.SetDefault(KeyIncludeItem, "")
	v.SetDefault(KeyExcludeItem, "")
	v.SetDefault(KeyRegex, false)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyTUI, false)
	v.SetDefault(KeyOutputFile, "")
	v.SetDefault(KeyBefore, 0)
	v.SetDefault(KeyAfter, 0)
	v.SetDefault(KeyAlert, []string{})
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyReconnect, time.Duration(0))
	v.SetDefault(KeyHandshakeTimeout, 10*time.Second)
	v.SetDefault(KeyStats, false)
	v.SetDefault(KeyHistory, 10000)
	v.SetDefault(KeyExplain, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogPath, "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	return v
}

// BindFlags binds every flag of fs whose name is a setting key. The
// --log-level and --log-file flags map to log.level and log.path.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		switch f.Name {
		case "log-level":
			key = KeyLogLevel
		case "log-file":
			key = KeyLogPath
		case "config":
			return
		}
		if !isKnown(v, key) {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = errors.Join(err, bindErr)
		}
	})
	return err
}

func isKnown(v *viper.Viper, key string) bool {
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Load resolves the configuration. cfgFile names an explicit YAML file;
// when empty, $HOME/.vcilog.yaml and ./.vcilog.yaml are tried and may be absent.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".vcilog")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := format.ByName(c.Format, nil); err != nil {
		errs = append(errs, err)
	}
	if c.Before < 0 {
		errs = append(errs, fmt.Errorf("config: before must not be negative, got %d", c.Before))
	}
	if c.After < 0 {
		errs = append(errs, fmt.Errorf("config: after must not be negative, got %d", c.After))
	}
	if c.Reconnect < 0 {
		errs = append(errs, fmt.Errorf("config: reconnect must not be negative, got %s", c.Reconnect))
	}
	if c.History < 0 {
		errs = append(errs, fmt.Errorf("config: history must not be negative, got %d", c.History))
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("config: log level: %w", err))
		}
	}
	return errors.Join(errs...)
}

// FilterOptions returns the filter switches of c.
func (c *Config) FilterOptions() filter.Options {
	return filter.Options{
		IncludeText:                 c.IncludeText,
		ExcludeText:                 c.ExcludeText,
		IncludeItem:                 c.IncludeItem,
		ExcludeItem:                 c.ExcludeItem,
		Regex:                       c.Regex,
		AllWarnings:                 c.AllWarnings,
		OutputSystemStatus:          c.OutputSystemStatus,
		SuppressStateSharedVariable: c.Suppress,
	}
}

// WebSocketOptions returns the transport settings of c.
func (c *Config) WebSocketOptions() source.WebSocketOptions {
	return source.WebSocketOptions{
		ReconnectDelay:   c.Reconnect,
		HandshakeTimeout: c.HandshakeTimeout,
	}
}
