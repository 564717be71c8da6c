package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/k1LoW/expand"
)

const appName = "squareframe"

var (
	homePath       string
	configHomePath string
	stateHomePath  string
)

type Config struct {
	// Standard deviation of the Gaussian blur applied to the background
	BlurSigma *float64 `yaml:"blurSigma,omitempty" json:"blurSigma,omitempty"`
	// Resampling filter used to scale the background
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`
	// Directory that receives backups of overwritten output files
	BackupDir string `yaml:"backupDir,omitempty" json:"backupDir,omitempty"`
	// Commands used to access the clipboard
	Clipboard *Clipboard `yaml:"clipboard,omitempty" json:"clipboard,omitempty"`
}

type Clipboard struct {
	ReadCommand  string `yaml:"readCommand,omitempty" json:"readCommand,omitempty"`   // prints an image to stdout
	WriteCommand string `yaml:"writeCommand,omitempty" json:"writeCommand,omitempty"` // receives PNG data on stdin
}

func init() {
	var err error
	homePath, err = os.UserHomeDir()
	if err != nil {
		panic(fmt.Sprintf("failed to get home directory: %v", err))
	}
}

// Load loads the configuration from the config file.
// It searches for config files in the following order:
// 1. $XDG_CONFIG_HOME/squareframe/config-{profile}.yml
// 2. $XDG_CONFIG_HOME/squareframe/config.yml
// Environment variables in the file are expanded before parsing.
// If no config file is found, it returns an empty Config struct.
func Load(profile string) (*Config, error) {
	var configBasePaths []string
	if profile != "" {
		configBasePaths = append(configBasePaths, filepath.Join(configPath(), fmt.Sprintf("config-%s", profile)))
	}
	configBasePaths = append(configBasePaths, filepath.Join(configPath(), "config"))
	cfg := &Config{}
	for _, basePath := range configBasePaths {
		for _, ext := range []string{".yml", ".yaml"} {
			configPath := basePath + ext
			if b, err := os.ReadFile(configPath); err == nil {
				if err := yaml.Unmarshal(expand.ExpandenvYAMLBytes(b), cfg); err != nil {
					return nil, fmt.Errorf("failed to unmarshal config %s: %w", configPath, err)
				}
				return cfg, nil
			}
		}
	}
	// If no config file is found, return an empty config
	return cfg, nil
}

// ReadCommand returns the configured clipboard read command, if any.
func (c *Config) ReadCommand() string {
	if c == nil || c.Clipboard == nil {
		return ""
	}
	return c.Clipboard.ReadCommand
}

// WriteCommand returns the configured clipboard write command, if any.
func (c *Config) WriteCommand() string {
	if c == nil || c.Clipboard == nil {
		return ""
	}
	return c.Clipboard.WriteCommand
}

// configPath returns the path to the configuration directory.
func configPath() string {
	if configHomePath != "" {
		return configHomePath
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		configHomePath = filepath.Join(v, appName)
	} else {
		configHomePath = filepath.Join(homePath, ".config", appName)
	}
	return configHomePath
}

// ConfigHomePath returns the path to the configuration directory.
func ConfigHomePath() string {
	return configPath()
}

// StateHomePath returns the path to the state directory.
func StateHomePath() string {
	if stateHomePath != "" {
		return stateHomePath
	}
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		stateHomePath = filepath.Join(v, appName)
	} else {
		stateHomePath = filepath.Join(homePath, ".local", "state", appName)
	}
	return stateHomePath
}
