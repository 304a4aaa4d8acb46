package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every knob the converter reads. Values resolve from
// defaults, then an optional config file, then CONVOSET_* environment
// variables; command-line flags override on top.
type Config struct {
	MessagesPath         string `mapstructure:"messages_path"`
	AliasesPath          string `mapstructure:"aliases_path"`
	OutputPath           string `mapstructure:"output_path"`
	Format               string `mapstructure:"format"`
	TimeThresholdSeconds int    `mapstructure:"time_threshold_seconds"`
	MaxMessages          int    `mapstructure:"max_messages"`
	InterchangeOnly      bool   `mapstructure:"interchange_only"`
	GroupConsecutive     bool   `mapstructure:"group_consecutive"`
	GroupSeparator       string `mapstructure:"group_separator"`
	IncludeTimestamps    bool   `mapstructure:"include_timestamps"`
	LogLevel             string `mapstructure:"log_level"`
}

// Load resolves the configuration. cfgFile may be empty, in which case only
// defaults and environment apply; a named file that cannot be read or
// parsed is a fatal error.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("messages_path", "data/messages.json")
	v.SetDefault("aliases_path", "users.json")
	v.SetDefault("output_path", "dataset.jsonl")
	v.SetDefault("format", "jsonl")
	v.SetDefault("time_threshold_seconds", 30)
	v.SetDefault("max_messages", 10)
	v.SetDefault("interchange_only", true)
	v.SetDefault("group_consecutive", false)
	v.SetDefault("group_separator", ", ")
	v.SetDefault("include_timestamps", false)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("convoset")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
