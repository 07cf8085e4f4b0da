package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	ReclaimTimeout time.Duration `mapstructure:"reclaim_timeout"`
	MaxSessions    int           `mapstructure:"max_sessions"`
	SigningKeySeed string        `mapstructure:"signing_key_seed"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 3000)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("session_timeout", "2m")
	v.SetDefault("reclaim_timeout", "5s")
	v.SetDefault("max_sessions", 256)

	_ = v.BindEnv("signing_key_seed", "SIGNING_KEY_SEED")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
