package util

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig. reads ./data/config.{yaml,json,toml,...} (or configPaths), env vars override the same keys.
// the config file is optional, missing keys fall back to viper.SetDefault.
func ReadConfig(configPaths ...string) error {
	viper.SetConfigName("config")
	if len(configPaths) == 0 {
		configPaths = []string{"./data/"}
	}
	for _, p := range configPaths {
		viper.AddConfigPath(p)
	}
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
