// Package config loads runtime settings from defaults, an optional config file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. ARTIFACTS_WEB_HTTP_ADDR.
	EnvPrefix = "ARTIFACTS_WEB"

	defaultEnvFile      = ".env"
	defaultConfigName   = "artifacts-web"
	defaultAddr         = ":8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultShellIdleTTL = 30 * time.Minute
	defaultWidthHint    = 1280
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Environment  string
	Dev          bool
	TemplatesDir string
	HTTP         HTTPConfig
	Log          LogConfig
	Catalog      CatalogConfig
	Session      SessionConfig
	Shell        ShellConfig
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level string
}

// CatalogConfig points at an external catalog file. Empty means the embedded catalog.
type CatalogConfig struct {
	File string
}

// SessionConfig configures the visitor cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// ShellConfig configures mounted shells.
type ShellConfig struct {
	IdleTTL   time.Duration
	WidthHint float64
}

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, artifacts-web.{yaml,toml,json}
	// is searched for in the working directory and /etc/artifacts-web.
	ConfigFile string
	// EnvFile is loaded outside production. Defaults to .env.
	EnvFile string
}

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("config: invalid")

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	if !isProduction(os.Getenv("ENV")) {
		envFile := opts.EnvFile
		if envFile == "" {
			envFile = defaultEnvFile
		}
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", EnvPrefix+"_ENV", "ENV")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/artifacts-web")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read config: %w", err)
			}
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
		setDefaults(v)
	}
	cfg := Config{
		Environment:  strings.TrimSpace(v.GetString("env")),
		Dev:          v.GetBool("dev"),
		TemplatesDir: strings.TrimSpace(v.GetString("templates_dir")),
		HTTP: HTTPConfig{
			Addr:         strings.TrimSpace(v.GetString("http.addr")),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Log:     LogConfig{Level: strings.TrimSpace(v.GetString("log.level"))},
		Catalog: CatalogConfig{File: strings.TrimSpace(v.GetString("catalog.file"))},
		Session: SessionConfig{
			SigningKey: v.GetString("session.signing_key"),
			Secure:     v.GetBool("session.secure"),
		},
		Shell: ShellConfig{
			IdleTTL:   v.GetDuration("shell.idle_ttl"),
			WidthHint: v.GetFloat64("shell.width_hint"),
		},
	}
	// PORT is honoured when no explicit address was configured.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && cfg.HTTP.Addr == defaultAddr && os.Getenv(EnvPrefix+"_HTTP_ADDR") == "" {
		cfg.HTTP.Addr = ":" + port
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return fmt.Errorf("%w: http.addr is empty", ErrInvalid)
	case c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 || c.HTTP.IdleTimeout <= 0:
		return fmt.Errorf("%w: http timeouts must be positive", ErrInvalid)
	case c.Shell.IdleTTL <= 0:
		return fmt.Errorf("%w: shell.idle_ttl must be positive", ErrInvalid)
	case c.Shell.WidthHint <= 0:
		return fmt.Errorf("%w: shell.width_hint must be positive", ErrInvalid)
	case c.Dev && c.TemplatesDir == "":
		return fmt.Errorf("%w: templates_dir is required in dev mode", ErrInvalid)
	case c.Session.SigningKey != "" && len(c.Session.SigningKey) < 32:
		return fmt.Errorf("%w: session.signing_key must be at least 32 bytes", ErrInvalid)
	}
	return nil
}

// Production reports whether the process runs in production.
func (c Config) Production() bool { return isProduction(c.Environment) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("dev", false)
	v.SetDefault("templates_dir", "")
	v.SetDefault("http.addr", defaultAddr)
	v.SetDefault("http.read_timeout", defaultReadTimeout)
	v.SetDefault("http.write_timeout", defaultWriteTimeout)
	v.SetDefault("http.idle_timeout", defaultIdleTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("catalog.file", "")
	v.SetDefault("session.signing_key", "")
	v.SetDefault("session.secure", false)
	v.SetDefault("shell.idle_ttl", defaultShellIdleTTL)
	v.SetDefault("shell.width_hint", defaultWidthHint)
}

func isProduction(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "production" || env == "prod"
}
