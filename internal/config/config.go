package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DiscordToken string `mapstructure:"discord_token"`
	ClientID     string `mapstructure:"client_id"`

	Lavalink struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Password string `mapstructure:"password"`
		Secure   bool   `mapstructure:"secure"`
	} `mapstructure:"lavalink"`

	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	SearchLimit     int           `mapstructure:"search_limit"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Load reads the config file, applies defaults, and validates the fields
// nothing can run without.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("lavalink.host", "127.0.0.1")
	v.SetDefault("lavalink.port", 2333)
	v.SetDefault("lavalink.secure", false)
	v.SetDefault("refresh_interval", "3s")
	v.SetDefault("search_limit", 10)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DiscordToken == "" {
		return Config{}, errors.New("discord_token is required in config")
	}
	if cfg.ClientID == "" {
		return Config{}, errors.New("client_id is required in config")
	}
	if cfg.Lavalink.Password == "" {
		return Config{}, errors.New("lavalink.password is required in config")
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 3 * time.Second
	}

	return cfg, nil
}
