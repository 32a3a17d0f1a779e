package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the configuration from environment variables, an optional .env
// file and an optional config.yaml in the working directory or ./config.
func Load() (*Configs, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Configs{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, err
	}

	if cfg.Signer.KeyringFile != "" {
		keys, current, err := LoadKeyring(cfg.Signer.KeyringFile)
		if err != nil {
			return nil, err
		}

		cfg.Signer.Keys = keys
		cfg.Signer.CurrentVersion = current
	}

	if len(cfg.Signer.Keys) == 0 {
		return nil, errors.New("signer requires at least one key")
	}

	if _, ok := cfg.Signer.Keys[cfg.Signer.CurrentVersion]; !ok {
		return nil, fmt.Errorf("signer has no key for current version %d", cfg.Signer.CurrentVersion)
	}

	return cfg, nil
}

type keyringFile struct {
	Current int `toml:"current"`
	Keys    []struct {
		Version int    `toml:"version"`
		Secret  string `toml:"secret"`
	} `toml:"keys"`
}

// LoadKeyring reads the signing keys from a TOML file shaped like:
//
//	current = 2
//	[[keys]]
//	version = 1
//	secret = "..."
func LoadKeyring(path string) (map[int]string, int, error) {
	var f keyringFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, 0, err
	}

	keys := make(map[int]string, len(f.Keys))
	for _, k := range f.Keys {
		if k.Secret == "" {
			return nil, 0, fmt.Errorf("empty secret for key version %d", k.Version)
		}

		keys[k.Version] = k.Secret
	}

	return keys, f.Current, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("loglevel", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.database", "prizeengine")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sqlitepath", "prizeengine.db")

	v.SetDefault("apiserver.host", "")
	v.SetDefault("apiserver.port", "8080")
	v.SetDefault("apiserver.allowedorigins", []string{"*"})
	v.SetDefault("apiserver.schedulersecret", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("kafka.addr", "")
	v.SetDefault("kafka.clientid", "prizeengine")

	v.SetDefault("signer.currentversion", 1)
	v.SetDefault("signer.keyringfile", "")

	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("roulette.maxspinretries", 5)

	v.SetDefault("cache.switchttl", "5s")
	v.SetDefault("cache.prizettl", "30s")

	v.SetDefault("waitready.interval", "100ms")
	v.SetDefault("waitready.deadline", "10s")
}
