// Package config loads sumup settings from defaults, ~/.sumup/config.yaml and SUMUP_* env vars.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Input
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	Encoding   string `mapstructure:"encoding" yaml:"encoding"`
	TrimSpace  bool   `mapstructure:"trim_space" yaml:"trim_space"`
	LazyQuotes bool   `mapstructure:"lazy_quotes" yaml:"lazy_quotes"`

	// Pipeline
	PadShortRows  bool `mapstructure:"pad_short_rows" yaml:"pad_short_rows"`
	ChannelBuffer int  `mapstructure:"channel_buffer" yaml:"channel_buffer"`
	WarnAnomalies bool `mapstructure:"warn_anomalies" yaml:"warn_anomalies"`

	// Output
	MaxCategoriesShown int    `mapstructure:"max_categories_shown" yaml:"max_categories_shown"`
	OutputFormat       string `mapstructure:"output_format" yaml:"output_format"`
	MetricsFile        string `mapstructure:"metrics_file" yaml:"metrics_file"`
	SQLitePath         string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// Logging
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogEncoding string `mapstructure:"log_encoding" yaml:"log_encoding"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"delimiter", "encoding", "trim_space", "lazy_quotes",
	"pad_short_rows", "channel_buffer", "warn_anomalies",
	"max_categories_shown", "output_format", "metrics_file", "sqlite_path",
	"log_level", "log_encoding",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("delimiter", "")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("trim_space", true)
	v.SetDefault("lazy_quotes", false)
	v.SetDefault("pad_short_rows", false)
	v.SetDefault("channel_buffer", 64)
	v.SetDefault("warn_anomalies", true)
	v.SetDefault("max_categories_shown", 10)
	v.SetDefault("output_format", "text")
	v.SetDefault("metrics_file", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_encoding", "console")
}

// Default returns the built-in configuration.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sumup", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sumup/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SUMUP")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and ranged settings.
func (c *Global) Validate() error {
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	switch strings.ToLower(c.OutputFormat) {
	case "text", "markdown", "md", "json":
	default:
		return fmt.Errorf("invalid output_format: %s (use text, markdown or json)", c.OutputFormat)
	}
	switch strings.ToLower(c.LogEncoding) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_encoding: %s (use console or json)", c.LogEncoding)
	}
	if c.ChannelBuffer < 0 {
		return fmt.Errorf("invalid channel_buffer: %d (must be >= 0)", c.ChannelBuffer)
	}
	if c.MaxCategoriesShown < 0 {
		return fmt.Errorf("invalid max_categories_shown: %d (must be >= 0)", c.MaxCategoriesShown)
	}
	return nil
}

// ParseDelimiter turns a configured delimiter into a rune. Empty means auto;
// "tab" and `\t` mean a tab character.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter: %q (use a single character)", s)
	}
	return r, nil
}

// Set updates one key from its string form. The result is validated.
func (c *Global) Set(key, val string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		return b, nil
	}
	parseInt := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}

	next := *c
	var err error
	switch key {
	case "delimiter":
		next.Delimiter = val
	case "encoding":
		next.Encoding = val
	case "trim_space":
		next.TrimSpace, err = parseBool()
	case "lazy_quotes":
		next.LazyQuotes, err = parseBool()
	case "pad_short_rows":
		next.PadShortRows, err = parseBool()
	case "warn_anomalies":
		next.WarnAnomalies, err = parseBool()
	case "channel_buffer":
		next.ChannelBuffer, err = parseInt()
	case "max_categories_shown":
		next.MaxCategoriesShown, err = parseInt()
	case "output_format":
		next.OutputFormat = strings.ToLower(val)
	case "metrics_file":
		next.MetricsFile = val
	case "sqlite_path":
		next.SQLitePath = val
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_encoding":
		next.LogEncoding = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "delimiter":
		return c.Delimiter, nil
	case "encoding":
		return c.Encoding, nil
	case "trim_space":
		return strconv.FormatBool(c.TrimSpace), nil
	case "lazy_quotes":
		return strconv.FormatBool(c.LazyQuotes), nil
	case "pad_short_rows":
		return strconv.FormatBool(c.PadShortRows), nil
	case "warn_anomalies":
		return strconv.FormatBool(c.WarnAnomalies), nil
	case "channel_buffer":
		return strconv.Itoa(c.ChannelBuffer), nil
	case "max_categories_shown":
		return strconv.Itoa(c.MaxCategoriesShown), nil
	case "output_format":
		return c.OutputFormat, nil
	case "metrics_file":
		return c.MetricsFile, nil
	case "sqlite_path":
		return c.SQLitePath, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_encoding":
		return c.LogEncoding, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}
