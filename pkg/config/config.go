package config

// Package config provides a reusable loader for execcore's configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"synnergy-execcore/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for an execcore process: where its
// trie/KV data lives, how the multi-signature service bounds recursion, and
// how it logs. cmd/execcore reads Trie.Light and Logging; Trie.DBPath and the
// Multisig limits are loaded but not read elsewhere (the CLI takes its data
// directory from its --db flag, and services/multisig uses its own
// MaxRecursionDepth and MaxPermissionAccounts constants).
type Config struct {
	Trie struct {
		DBPath string `mapstructure:"db_path" json:"db_path"`
		Light  bool   `mapstructure:"light" json:"light"`
	} `mapstructure:"trie" json:"trie"`

	Multisig struct {
		MaxDepth    int `mapstructure:"max_depth" json:"max_depth"`
		MaxAccounts int `mapstructure:"max_accounts" json:"max_accounts"`
	} `mapstructure:"multisig" json:"multisig"`

	Genesis struct {
		File string `mapstructure:"file" json:"file"`
	} `mapstructure:"genesis" json:"genesis"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// defaults seeds AppConfig with values sane enough to run genesis/exec
// against a fresh in-memory store without any config file present.
func defaults() {
	AppConfig = Config{}
	AppConfig.Trie.DBPath = "./execcore-data"
	AppConfig.Trie.Light = true
	AppConfig.Multisig.MaxDepth = 8
	AppConfig.Multisig.MaxAccounts = 16
	AppConfig.Logging.Level = "info"
}

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration (plus any
// EXECCORE_-prefixed environment variables) is loaded.
func Load(env string) (*Config, error) {
	defaults()

	_ = godotenv.Load()

	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("EXECCORE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the EXECCORE_ENV environment
// variable to select an overlay file.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("EXECCORE_ENV", ""))
}
