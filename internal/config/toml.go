// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
}

// PracticeConfig maps practice-related settings. Nil fields were not set.
type PracticeConfig struct {
	Corpus    *string   `toml:"corpus"`
	TimeLimit *Duration `toml:"time-limit"`
	Log       *string   `toml:"log"`
}

// Duration decodes TOML strings such as "90s" or "2m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration must not be negative: %s", text)
	}
	d.Duration = parsed
	return nil
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

// ResolveCorpusPath picks the corpus file to load. An explicit path wins;
// otherwise the default corpus file is used if it exists. An empty result
// means the built-in corpus.
func ResolveCorpusPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := DefaultCorpusPath()
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
