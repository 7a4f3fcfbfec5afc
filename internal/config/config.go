// Package config loads the umgmt YAML configuration and applies defaults and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/umgmt/internal/logger"
	"github.com/hnrobert/umgmt/internal/shadow"
)

const (
	DefaultPath = "/etc/umgmt/config.yaml"

	EnvConfig   = "UMGMT_CONFIG"
	EnvHostRoot = "UMGMT_HOST_ROOT"
)

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Config mirrors config.yaml.
type Config struct {
	HostRoot      string    `yaml:"host_root"`
	ProcRoot      string    `yaml:"proc_root"`
	UIDMin        int       `yaml:"uid_min"`
	UIDMax        int       `yaml:"uid_max"`
	HashAlgorithm string    `yaml:"hash_algorithm"`
	DefaultShell  string    `yaml:"default_shell"`
	HomeBase      string    `yaml:"home_base"`
	Log           LogConfig `yaml:"log"`
}

func Default() Config {
	var c Config
	applyDefaults(&c)
	return c
}

// Path picks the config file: the explicit path, then $UMGMT_CONFIG, then
// DefaultPath. explicit reports whether the file must exist.
func Path(flag string) (path string, explicit bool) {
	if p := strings.TrimSpace(flag); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p, true
	}
	return DefaultPath, false
}

// Load reads path from fs, applies defaults and environment overrides, and
// validates the result. A missing file is an error only when required.
func Load(fs afero.Fs, path string, required bool) (Config, error) {
	var c Config
	b, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
		logger.Debug("no config at %s, using defaults", path)
	default:
		return Config{}, err
	}
	applyDefaults(&c)
	applyEnv(&c)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.HostRoot == "" {
		c.HostRoot = "/"
	}
	if c.ProcRoot == "" {
		c.ProcRoot = "/proc"
	}
	if c.UIDMin == 0 {
		c.UIDMin = 1000
	}
	if c.UIDMax == 0 {
		c.UIDMax = 60000
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = "sha512"
	}
	if c.DefaultShell == "" {
		c.DefaultShell = "/bin/bash"
	}
	if c.HomeBase == "" {
		c.HomeBase = "/home"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func applyEnv(c *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvHostRoot)); v != "" {
		c.HostRoot = v
	}
}

// Validate does not mutate the config.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.HostRoot, "/") {
		return errors.New("host_root must be absolute")
	}
	if c.UIDMin < 1 || c.UIDMax <= c.UIDMin || c.UIDMax > 65534 {
		return fmt.Errorf("uid range [%d, %d) is invalid", c.UIDMin, c.UIDMax)
	}
	if shadow.AlgorithmToID(c.HashAlgorithm) == shadow.Unknown {
		return fmt.Errorf("hash_algorithm %q is not supported", c.HashAlgorithm)
	}
	if !strings.HasPrefix(c.DefaultShell, "/") {
		return errors.New("default_shell must be absolute")
	}
	if !strings.HasPrefix(c.HomeBase, "/") {
		return errors.New("home_base must be absolute")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
