package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const configFileName = ".chatlogctl.yaml"

// FileConfig is the optional chatlogctl config file. Flags override it.
type FileConfig struct {
	Dir         string `yaml:"dir"`
	Account     string `yaml:"account"`
	Output      string `yaml:"output"`
	ArchivePath string `yaml:"archive_path"`
	Retention   struct {
		MaxCount   int `yaml:"max_count"`
		MaxAgeDays int `yaml:"max_age_days"`
	} `yaml:"retention"`
}

// DefaultConfigPath is $HOME/.chatlogctl.yaml, or empty without a home dir.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, configFileName)
}

func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly.
func loadConfig(path string, explicit bool) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}
	cfg, err := LoadFileConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &FileConfig{}, nil
		}
		return nil, err
	}
	return cfg, nil
}
