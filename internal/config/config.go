// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and persists tapscan's configuration. Values come from
// defaults, tapscan.yaml in the user, system or current directory, TAPSCAN_*
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Tapscan")
		default: // Linux, macOS, etc.
			configDir = "/etc/tapscan"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "tapscan")
	}

	return filepath.Join(configDir, "tapscan.yaml"), nil
}

// LoadConfig layers defaults, the first tapscan.yaml found, the environment
// and the flags of cmd into a T. A viper.ConfigFileNotFoundError is returned
// together with the populated value when no file exists.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("tapscan")
	v.SetConfigType("yaml")

	// 3. Add explicit config file path if provided via --config flag.
	// This has the highest precedence for file-based configuration.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Add standard config locations
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for tapscan.yaml in current dir

	// 5. Read in the primary config file. A missing file is reported after
	// the remaining layers were applied so callers can still run on them.
	var notFound error
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return c, err
		}
		notFound = err
	}

	// 6. Merge a dot-file in the current directory, if any.
	mergeLocalConfig(v)

	// 7. Read from environment variables
	v.SetEnvPrefix("tapscan")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 8. Flags. Only flags named after a configuration key are bound, so
	// command-local flags cannot shadow a config section.
	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if _, ok := defaults[f.Name]; !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return c, bindErr
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, notFound
}

// mergeLocalConfig merges a `.tapscan.yaml` in the current directory into v.
// A malformed file is ignored so a stray dot-file cannot break startup.
func mergeLocalConfig(v *viper.Viper) {
	const localConfigFile = ".tapscan.yaml"
	if _, err := os.Stat(localConfigFile); err == nil {
		used := v.ConfigFileUsed()
		v.SetConfigFile(localConfigFile)
		_ = v.MergeInConfig()
		v.SetConfigFile(used)
	}
}

// WriteConfigFile stores c as YAML in the user or system config location and
// returns the path written.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// The DSN may carry credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}
