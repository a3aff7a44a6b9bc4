// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"QuoteKeeper/internal/config"
)

// New builds a logger from config. Format "json" selects the production
// encoder; anything else gets the human-readable console encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// CronLogger adapts a zap logger to cron.Logger.
type CronLogger struct {
	l *zap.SugaredLogger
}

var _ cron.Logger = (*CronLogger)(nil)

func NewCronLogger(l *zap.Logger) *CronLogger {
	return &CronLogger{l: l.Named("cron").Sugar()}
}

// Info is used by cron for routine events (wake, run, skip); those go to debug.
func (c *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
