// Package config loads chatledger settings from defaults, an optional YAML
// file, CHATLEDGER_* environment variables (a .env file is honored) and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/chatledger/pkg/extract"
	"github.com/yurifrl/chatledger/pkg/parser"
	"github.com/yurifrl/chatledger/pkg/source"
)

const envPrefix = "CHATLEDGER"

type Config struct {
	DataDir  string       `mapstructure:"data_dir"`
	Pattern  string       `mapstructure:"pattern"`
	Output   string       `mapstructure:"output"`
	Format   string       `mapstructure:"format"`
	LogLevel string       `mapstructure:"log_level"`
	Dates    DatesConfig  `mapstructure:"dates"`
	Policy   PolicyConfig `mapstructure:"policy"`
	OCR      OCRConfig    `mapstructure:"ocr"`
	Server   ServerConfig `mapstructure:"server"`
}

type DatesConfig struct {
	RangeLayout     string `mapstructure:"range_layout"`
	TranscriptOrder string `mapstructure:"transcript_order"`
}

type PolicyConfig struct {
	PlainText   string `mapstructure:"plain_text"`
	Attachments string `mapstructure:"attachments"`
	Missing     string `mapstructure:"missing"`
}

type OCRConfig struct {
	Languages  []string `mapstructure:"languages"`
	Preprocess bool     `mapstructure:"preprocess"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":         "data_dir",
	"pattern":          "pattern",
	"output":           "output",
	"format":           "format",
	"log-level":        "log_level",
	"range-layout":     "dates.range_layout",
	"transcript-order": "dates.transcript_order",
	"plain-text":       "policy.plain_text",
	"attachments":      "policy.attachments",
	"missing":          "policy.missing",
	"ocr-lang":         "ocr.languages",
	"addr":             "server.addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", source.DefaultDir)
	v.SetDefault("pattern", source.DefaultPattern)
	v.SetDefault("output", "expenses/chat_whatsapp.xlsx")
	v.SetDefault("format", "xlsx")
	v.SetDefault("log_level", "info")
	v.SetDefault("dates.range_layout", parser.DefaultRangeLayout)
	v.SetDefault("dates.transcript_order", string(parser.OrderMonthDay))
	v.SetDefault("policy.plain_text", string(extract.PlainTextLocale))
	v.SetDefault("policy.attachments", string(extract.AttachmentsExtract))
	v.SetDefault("policy.missing", string(extract.MissingFlag))
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.preprocess", true)
	v.SetDefault("server.addr", "0.0.0.0:3000")
}

// Build resolves the configuration. cfgFile may be empty, in which case
// chatledger.yaml in the working directory is used when present. flags may
// be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("chatledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("unknown output format %q (want xlsx or csv)", c.Format)
	}
	c.Output = c.OutputPath(c.Output)
	if _, err := parser.ParseDateOrder(c.Dates.TranscriptOrder); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	opts := c.ExtractOptions()
	return opts.Validate()
}

// OutputPath swaps a .xlsx or .csv extension on path for the one matching
// the configured format. Other extensions are kept.
func (c *Config) OutputPath(path string) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".xlsx", ".csv":
		return strings.TrimSuffix(path, ext) + "." + c.Format
	}
	return path
}

// ExtractOptions returns the amount extraction settings.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		DataDir:     c.DataDir,
		PlainText:   extract.PlainTextPolicy(c.Policy.PlainText),
		Attachments: extract.AttachmentPolicy(c.Policy.Attachments),
		Missing:     extract.MissingPolicy(c.Policy.Missing),
	}
}

func (c *Config) DateOrder() parser.DateOrder {
	order, _ := parser.ParseDateOrder(c.Dates.TranscriptOrder)
	return order
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
