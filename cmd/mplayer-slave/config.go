package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
)

const (
	appName            = "mplayer-slave"
	envPrefix          = "MPLAYER_SLAVE"
	historyFileName    = ".mplayer_slave_history"
	defaultHistorySize = 500
)

// Config holds all application configuration.
type Config struct {
	Player PlayerConfig `mapstructure:"player" toml:"player"`
	Timing TimingConfig `mapstructure:"timing" toml:"timing"`
	Log    LogConfig    `mapstructure:"log" toml:"log"`
	REPL   REPLConfig   `mapstructure:"repl" toml:"repl"`
}

type PlayerConfig struct {
	Path string   `mapstructure:"path" toml:"path"`
	Args []string `mapstructure:"args" toml:"args"`
}

type TimingConfig struct {
	ResponseTimeout Duration `mapstructure:"response_timeout" toml:"response_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

type REPLConfig struct {
	HistoryFile string `mapstructure:"history_file" toml:"history_file"`
	HistorySize int    `mapstructure:"history_size" toml:"history_size"`
}

// Duration is a time.Duration written as "2s" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

var durationHook mapstructure.DecodeHookFuncType = func(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", v)
		}
		return Duration(d), nil
	case time.Duration:
		return Duration(v), nil
	}
	return data, nil
}

// configDir follows XDG: $XDG_CONFIG_HOME/mplayer-slave, else ~/.config/mplayer-slave.
func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, appName)
}

func defaultHistoryFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, historyFileName)
}

// loadConfig layers defaults, the config file, MPLAYER_SLAVE_* environment
// variables and explicitly set flags, in increasing precedence.
func loadConfig(fs *flag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("player.path", slave.DefaultPlayer)
	v.SetDefault("player.args", []string{})
	v.SetDefault("timing.response_timeout", slave.DefaultResponseTimeout.String())
	v.SetDefault("log.level", "warn")
	v.SetDefault("repl.history_file", defaultHistoryFile())
	v.SetDefault("repl.history_size", defaultHistorySize)

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing default config file is fine; a named or broken one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	for key, name := range map[string]string{
		"player.path":             "mplayer",
		"timing.response_timeout": "timeout",
		"log.level":               "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(durationHook, mapstructure.StringToSliceHookFunc(","))
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
