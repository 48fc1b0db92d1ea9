package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/sigdispatch/logger"
)

// FileSystem is what the loader needs from the disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds the loader's file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	// ConfigFile skips the YAML search when set.
	ConfigFile string
	// EnvFile skips the .env search when set.
	EnvFile string
	// EnvPrefix limits overrides to PREFIX_* variables.
	EnvPrefix string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the disk, mostly for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit YAML file.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts environment overrides to variables named PREFIX_*.
// The prefix is stripped before the key is bound.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

func configCandidates(service string) []string {
	return []string{"./config/" + service + ".yml", "./config/config.yml", "./" + service + ".yml", "./config.yml"}
}

func envCandidates(service string) []string {
	return []string{"./.env." + service, "./.env"}
}

// locate returns explicit if set, otherwise the first candidate that exists.
func locate(fs FileSystem, explicit string, candidates []string) string {
	if explicit != "" {
		return explicit
	}
	for _, path := range candidates {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// LoadConfig fills cfg from, lowest precedence first, the YAML file and the
// environment, which includes variables loaded from the .env file. A missing
// file is skipped.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: osFS{}}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()

	if path := locate(lc.FileSystem, lc.ConfigFile, configCandidates(serviceName)); path != "" && lc.FileSystem.Exists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if path := locate(lc.FileSystem, lc.EnvFile, envCandidates(serviceName)); path != "" && lc.FileSystem.Exists(path) {
		if err := lc.FileSystem.LoadEnv(path); err != nil {
			logger.Warn("env file skipped", logger.Fields("file", path, logger.FieldError, err.Error()))
		}
	}

	for key, value := range environ(lc.EnvPrefix, os.Environ()) {
		for _, k := range envKeys(key) {
			v.Set(k, value)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for service %s: %w", serviceName, err)
	}
	return nil
}

// environ splits KEY=value pairs, keeping only PREFIX_ keys with the prefix
// removed when prefix is set.
func environ(prefix string, pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			if key, ok = strings.CutPrefix(key, prefix+"_"); !ok {
				continue
			}
		}
		out[key] = value
	}
	return out
}

// envKeys lists the viper keys an environment variable may address. Every
// underscore may be a nesting dot or part of a field name, so
// DISPATCH_READ_BUFFER_SIZE covers dispatch.read_buffer_size as well as
// dispatch_read_buffer_size and dispatch.read.buffer.size.
//
// Values are set on viper explicitly because AutomaticEnv only resolves keys
// viper already knows about.
func envKeys(name string) []string {
	name = strings.ToLower(name)
	parts := strings.Split(name, "_")
	keys := []string{name}
	add := func(k string) {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return keys
}
