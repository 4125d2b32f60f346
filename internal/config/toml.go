package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Race RaceConfig `toml:"race"`
	Duel DuelConfig `toml:"duel"`
}

// RaceConfig maps race-related settings.
type RaceConfig struct {
	Username    *string `toml:"username"`
	Difficulty  *string `toml:"difficulty"`
	SkipOnError *bool   `toml:"skip-on-error"`
	Stake       *int64  `toml:"stake"`
}

// DuelConfig maps multiplayer settings.
type DuelConfig struct {
	RelayURL *string `toml:"relay-url"`
	Wallet   *string `toml:"wallet"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
