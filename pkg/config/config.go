package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config carries everything the binaries need: where the row-store lives,
// where session artifacts go, and where the server listens.
type Config struct {
	DatabaseURL   string
	DataDir       string
	ListenAddress string
}

// Build assembles configuration from, in increasing precedence: defaults,
// config.yaml (or cfgFile when given), BANKSTAGE_* environment variables
// (a .env file is honored), and command-line flags.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("data-dir", "uploaded_data")
	v.SetDefault("listen-address", "0.0.0.0:3000")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BANKSTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		DatabaseURL:   v.GetString("database-url"),
		DataDir:       v.GetString("data-dir"),
		ListenAddress: v.GetString("listen-address"),
	}, nil
}
