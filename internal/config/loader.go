package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".proxyharvest"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .proxyharvest configuration file.
// Every field is optional; values from the file fill in between the
// built-in defaults and explicit CLI flags.
type File struct {
	// Workers overrides the worker pool size when positive.
	Workers int `yaml:"workers,omitempty"`

	// Output overrides the output file path when set.
	Output string `yaml:"output,omitempty"`

	// List overrides the repository list file path when set.
	List string `yaml:"list,omitempty"`

	// SOCKS5 routes all outbound HTTP through the given SOCKS5 proxy
	// ("host:port") when set.
	SOCKS5 string `yaml:"socks5,omitempty"`

	// Repositories lists repository URLs to harvest in addition to the
	// list file and positional arguments.
	Repositories []string `yaml:"repositories,omitempty"`
}

// Apply copies the file's values onto cfg. Only set values are copied, so
// defaults survive an empty file. CLI flags are applied after the file and
// win over it.
func (f *File) Apply(cfg *Config) {
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.Output != "" {
		cfg.OutputFile = f.Output
	}
	if f.List != "" {
		cfg.ListFile = f.List
	}
	if f.SOCKS5 != "" {
		cfg.SOCKS5Proxy = f.SOCKS5
	}
	cfg.RepoURLs = append(cfg.RepoURLs, f.Repositories...)
}

// LoadConfigFile loads settings from a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error based on whether the config file path
// was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .proxyharvest in the current directory
// 3. Look for .proxyharvest in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
