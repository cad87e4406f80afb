// Package config provides tool settings for btrbkgen using Viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mkeller/btrbkgen/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = "btrbkgen"

// Config represents the top-level tool settings. Instance declarations are
// not part of this file; they live in the declaration file (see the
// instance package).
type Config struct {
	Version       int    `mapstructure:"version" yaml:"version"`
	BtrbkPath     string `mapstructure:"btrbk_path" yaml:"btrbk_path"`
	BtrfsPath     string `mapstructure:"btrfs_path" yaml:"btrfs_path"`
	SSHFilterPath string `mapstructure:"ssh_filter_path" yaml:"ssh_filter_path"`
	Declaration   string `mapstructure:"declaration" yaml:"declaration"`
	DeployRoot    string `mapstructure:"deploy_root" yaml:"deploy_root"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(paths.ConfigHome())

	// Environment variable support
	viper.SetEnvPrefix("BTRBKGEN")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("version", 1)
	viper.SetDefault("btrbk_path", "/usr/bin/btrbk")
	viper.SetDefault("btrfs_path", "/usr/bin/btrfs")
	viper.SetDefault("ssh_filter_path", "/usr/share/btrbk/scripts/ssh_filter_btrbk.sh")
	viper.SetDefault("declaration", "btrbk.yaml")
	viper.SetDefault("deploy_root", "/")
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		// If config file not found...
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
			// Otherwise (implicit load), it's fine to use defaults
		} else {
			// Real read error (parsing, permissions, etc)
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
