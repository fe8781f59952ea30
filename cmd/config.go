package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/numbfs/go-numbfs/internal/format"
)

// Config holds tool defaults overridable by config file or environment.
type Config struct {
	Inodes uint32 `mapstructure:"inodes"`
}

// loadConfig loads tool configuration using Viper.
func loadConfig() (*Config, error) {
	viper.SetConfigName("numbfs-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.numbfs")
	viper.AddConfigPath("/etc/numbfs")

	// Set defaults
	viper.SetDefault("inodes", format.DefaultInodes)

	// Allow environment variables
	viper.SetEnvPrefix("NUMBFS")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// parseSize parses a byte size with an optional K, M or G suffix.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q, expected e.g. 512K, 10M, 1G", s)
	}
	return n * mult, nil
}
