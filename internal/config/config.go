package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	ChainID         uint64
	Variant         string
	Version         int
	UserAddress     string
	MaxRelics       int
	RefreshInterval time.Duration
	FeedBaseURL     string
	PGDSN           string
	Out             string
	MetricsAddr     string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RELIQUARY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(OptimismChainID))
	v.SetDefault("variant", string(VariantReliquary))
	v.SetDefault("version", 2)
	v.SetDefault("max-relics", 150)
	v.SetDefault("refresh-interval", 30*time.Second)
	v.SetDefault("feed-base-url", "https://api.dexscreener.com/latest/dex/pairs/optimism")
	v.SetDefault("out", "./data/pool_metrics.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		ChainID:         v.GetUint64("chain-id"),
		Variant:         v.GetString("variant"),
		Version:         v.GetInt("version"),
		UserAddress:     v.GetString("user"),
		MaxRelics:       v.GetInt("max-relics"),
		RefreshInterval: v.GetDuration("refresh-interval"),
		FeedBaseURL:     v.GetString("feed-base-url"),
		PGDSN:           v.GetString("pg-dsn"),
		Out:             v.GetString("out"),
		MetricsAddr:     v.GetString("metrics-addr"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
