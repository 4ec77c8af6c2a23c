// Package config provides Viper-based configuration loading for the planner CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// CatalogConfig selects where action catalogues are read from.
type CatalogConfig struct {
	// Source is "file" (YAML files in Dir) or "postgres" (the catalogs table).
	Source string `mapstructure:"source"`
	// Dir is the directory of *.yaml catalogue files.
	Dir string `mapstructure:"dir"`
}

// PlannerConfig bounds the search.
type PlannerConfig struct {
	// Pruning discards branches whose cost exceeds the best known plan.
	Pruning bool `mapstructure:"pruning"`
	// MaxNodes caps the search tree size; 0 means unbounded.
	MaxNodes int `mapstructure:"max_nodes"`
	// SearchTimeout caps one search; 0 means no timeout.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	// ReuseActions allows an action more than once per plan.
	ReuseActions bool `mapstructure:"reuse_actions"`
}

// ExecutorConfig controls polling of running actions.
type ExecutorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// MaxPolls caps polls per action; 0 means unbounded.
	MaxPolls int `mapstructure:"max_polls"`
}

// ScriptingConfig locates Lua hook scripts.
type ScriptingConfig struct {
	// ScriptDir holds one sub-directory of *.lua files per catalogue ID.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds each hook call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	// Textfile, when set, receives the final metrics in text exposition format.
	Textfile string `mapstructure:"textfile"`
	// PushURL, when set, is a Pushgateway that receives the final metrics.
	PushURL string `mapstructure:"push_url"`
	// Job is the Pushgateway job label.
	Job string `mapstructure:"job"`
}

// Config is the top-level application configuration.
type Config struct {
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateCatalog(c.Catalog); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePlanner(c.Planner); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateExecutor(c.Executor); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMetrics(c.Metrics); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCatalog(c CatalogConfig) error {
	switch c.Source {
	case "file":
		if c.Dir == "" {
			return errors.New("catalog.dir must not be empty when catalog.source is file")
		}
	case "postgres":
	default:
		return fmt.Errorf("catalog.source must be one of [file, postgres], got %q", c.Source)
	}
	return nil
}

func validatePlanner(p PlannerConfig) error {
	var errs []string
	if p.MaxNodes < 0 {
		errs = append(errs, fmt.Sprintf("planner.max_nodes must be >= 0, got %d", p.MaxNodes))
	}
	if p.SearchTimeout < 0 {
		errs = append(errs, "planner.search_timeout must not be negative")
	}
	if p.ReuseActions && p.MaxNodes == 0 && p.SearchTimeout == 0 {
		errs = append(errs, "planner.reuse_actions requires planner.max_nodes or planner.search_timeout")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateExecutor(e ExecutorConfig) error {
	var errs []string
	if e.PollInterval < 0 {
		errs = append(errs, "executor.poll_interval must not be negative")
	}
	if e.MaxPolls < 0 {
		errs = append(errs, fmt.Sprintf("executor.max_polls must be >= 0, got %d", e.MaxPolls))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateMetrics(m MetricsConfig) error {
	if !m.Enabled {
		return nil
	}
	var errs []string
	if m.Namespace == "" {
		errs = append(errs, "metrics.namespace must not be empty when metrics are enabled")
	}
	if m.PushURL != "" && m.Job == "" {
		errs = append(errs, "metrics.job must not be empty when metrics.push_url is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with GOAP_ prefix
	v.SetEnvPrefix("GOAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.dir", "content/catalogs")

	v.SetDefault("planner.pruning", true)
	v.SetDefault("planner.max_nodes", 0)
	v.SetDefault("planner.search_timeout", "5s")
	v.SetDefault("planner.reuse_actions", false)

	v.SetDefault("executor.poll_interval", "100ms")
	v.SetDefault("executor.max_polls", 0)

	v.SetDefault("scripting.script_dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "goap")
	v.SetDefault("database.password", "goap")
	v.SetDefault("database.name", "goap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "goap")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.push_url", "")
	v.SetDefault("metrics.job", "goap")
}
