package logger

import (
	"errors"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DEBUG_LEVEL = -1
	INFO_LEVEL  = 0
	WARN_LEVEL  = 1
	ERROR_LEVEL = 2
)

type Configuration struct {
	Level      int
	TimeFormat string
}

func (c Configuration) Validate() error {
	if c.Level < DEBUG_LEVEL || c.Level > ERROR_LEVEL {
		return errors.New("LOG_LEVEL must be between -1 (debug) and 2 (error)")
	}
	if c.TimeFormat == "" {
		return errors.New("LOG_TIME_FORMAT must not be empty")
	}
	return nil
}

// New. zap production json logger with level and time format from viper
func New() (*zap.Logger, error) {
	viper.SetDefault("LOG_LEVEL", INFO_LEVEL)
	viper.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)

	cfg := Configuration{
		Level:      viper.GetInt("LOG_LEVEL"),
		TimeFormat: viper.GetString("LOG_TIME_FORMAT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Configuration) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.Level(cfg.Level))
	zapCfg.EncoderConfig.TimeKey = "time"
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	zapCfg.DisableStacktrace = true

	return zapCfg.Build()
}
