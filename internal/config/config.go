// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by the store, ledger and transport settings.
const (
	StoreFile   = "file"
	StoreNATS   = "nats"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	LedgerNATS   = "nats"
	LedgerMemory = "memory"

	TransportHTTP = "http"
	TransportNATS = "nats"
)

// Config holds all configuration values for linkwizard.
type Config struct {
	DataDir         string        `mapstructure:"data_dir" yaml:"data_dir"`
	Store           string        `mapstructure:"store" yaml:"store"`
	Ledger          string        `mapstructure:"ledger" yaml:"ledger"`
	Transport       string        `mapstructure:"transport" yaml:"transport"`
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	Subject         string        `mapstructure:"subject" yaml:"subject"`
	NATSURL         string        `mapstructure:"nats_url" yaml:"nats_url"`
	SubmitTimeout   time.Duration `mapstructure:"submit_timeout" yaml:"submit_timeout"`
	AdvanceDelay    time.Duration `mapstructure:"advance_delay" yaml:"advance_delay"`
	BonusDelay      time.Duration `mapstructure:"bonus_delay" yaml:"bonus_delay"`
	CompletionBonus int           `mapstructure:"completion_bonus" yaml:"completion_bonus"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile         string        `mapstructure:"log_file" yaml:"log_file"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		DataDir:         ".linkwizard",
		Store:           StoreFile,
		Ledger:          LedgerNATS,
		Transport:       TransportHTTP,
		Endpoint:        "http://127.0.0.1:8790/v1/link",
		Subject:         "linkwizard.link",
		SubmitTimeout:   15 * time.Second,
		AdvanceDelay:    1200 * time.Millisecond,
		BonusDelay:      2 * time.Second,
		CompletionBonus: 250,
		LogLevel:        "info",
	}
}

// envKeys lists every key bound to a LINKWIZARD_ variable.
var envKeys = []string{
	"data_dir",
	"store",
	"ledger",
	"transport",
	"endpoint",
	"subject",
	"nats_url",
	"submit_timeout",
	"advance_delay",
	"bonus_delay",
	"completion_bonus",
	"log_level",
	"log_file",
}

// Load loads configuration with full precedence:
// ENV vars > project config > XDG global config > defaults.
// CLI flags are applied by the caller on top of the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("linkwizard")

	def := Default()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("store", def.Store)
	v.SetDefault("ledger", def.Ledger)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("subject", def.Subject)
	v.SetDefault("nats_url", "")
	v.SetDefault("submit_timeout", def.SubmitTimeout)
	v.SetDefault("advance_delay", def.AdvanceDelay)
	v.SetDefault("bonus_delay", def.BonusDelay)
	v.SetDefault("completion_bonus", def.CompletionBonus)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("LINKWIZARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		if err := v.BindEnv(key, "LINKWIZARD_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks backend names and numeric ranges.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreNATS, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("invalid store %q (want file, nats, sqlite or memory)", c.Store)
	}
	switch c.Ledger {
	case LedgerNATS, LedgerMemory:
	default:
		return fmt.Errorf("invalid ledger %q (want nats or memory)", c.Ledger)
	}
	switch c.Transport {
	case TransportHTTP, TransportNATS:
	default:
		return fmt.Errorf("invalid transport %q (want http or nats)", c.Transport)
	}
	if c.CompletionBonus < 0 {
		return fmt.Errorf("completion_bonus must be >= 0, got %d", c.CompletionBonus)
	}
	if c.AdvanceDelay < 0 || c.BonusDelay < 0 {
		return fmt.Errorf("delays must be >= 0")
	}
	return nil
}

// NeedsNATS reports whether any configured backend talks to NATS.
func (c *Config) NeedsNATS() bool {
	return c.Store == StoreNATS || c.Ledger == LedgerNATS || c.Transport == TransportNATS
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/linkwizard/linkwizard.yml or $XDG_CONFIG_HOME/linkwizard/linkwizard.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "linkwizard", "linkwizard.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "linkwizard", "linkwizard.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "linkwizard.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	return write(GlobalPath(), cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
