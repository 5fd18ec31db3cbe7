// SPDX-License-Identifier: MIT

// Package config loads entclone settings from defaults, an optional YAML
// file and ENTCLONE_* environment variables, lowest to highest priority.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. ENTCLONE_LOG_LEVEL.
const EnvPrefix = "ENTCLONE"

// Log formats accepted by Config.Logger.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("config: invalid setting")

// Config is the full set of settings.
type Config struct {
	Clone    Clone    `mapstructure:"clone"`
	Log      Log      `mapstructure:"log"`
	Database Database `mapstructure:"database"`
}

// Clone controls graph cloning.
type Clone struct {
	OmitLinkage bool `mapstructure:"omit_linkage"`
}

// Log controls the logger built by Config.Logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database locates the store used by the demo command.
type Database struct {
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clone.omit_linkage", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatText)
	v.SetDefault("database.dsn", "file:entclone?mode=memory&cache=shared")
	v.SetDefault("database.timeout", "30s")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads path (if not empty) over the defaults and decodes the result.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	}

	return Decode(v)
}

// Decode unmarshals v into a validated Config.
func Decode(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks the log settings and database timeout.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(ErrInvalid, "log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case FormatText, FormatJSON, FormatLogfmt:
	default:
		return errors.Wrapf(ErrInvalid, "log.format %q", c.Log.Format)
	}
	if c.Database.Timeout < 0 {
		return errors.Wrapf(ErrInvalid, "database.timeout %s", c.Database.Timeout)
	}

	return nil
}

// Logger builds a charm logger writing to w.
func (c *Config) Logger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "log.level %q", c.Log.Level)
	}
	opts := log.Options{Level: level, Prefix: "entclone"}
	switch strings.ToLower(c.Log.Format) {
	case FormatText:
		opts.Formatter = log.TextFormatter
	case FormatJSON:
		opts.Formatter = log.JSONFormatter
	case FormatLogfmt:
		opts.Formatter = log.LogfmtFormatter
	default:
		return nil, errors.Wrapf(ErrInvalid, "log.format %q", c.Log.Format)
	}

	return log.NewWithOptions(w, opts), nil
}
