package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// DefaultPool is the pool name used when none is given.
	DefaultPool = "sandbox"
)

// Version is the version of the client, set at build time.
var Version string

// Config top level struct representing the config for the client.
type Config struct {
	Pool                     PoolConfiguration        `yaml:"Pool"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Load attempts to load the config for the given pool from the config
// directory, the file name is pool.<name>.yml.
func Load(path string, pool string) (Config, error) {
	if pool == "" {
		pool = DefaultPool
	}
	return LoadFile(filepath.Join(path, fmt.Sprintf("pool.%s.yml", pool)))
}

// LoadFile loads config from the provided path. Values not present in the file
// keep their defaults.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Pool.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Default returns the configuration used when there is no config file.
func Default() Config {
	return Config{
		Pool: PoolConfiguration{
			Transport:       TransportHTTP,
			DialTimeout:     defaultDialTimeout,
			RequestTimeout:  defaultRequestTimeout,
			ProtocolVersion: defaultProtocolVersion,
		},
		ApplicationConfiguration: ApplicationConfiguration{
			Wallet: WalletConfiguration{
				Path: defaultWalletPath,
			},
		},
	}
}
