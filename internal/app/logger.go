package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"service-dispatch/internal/config"
	"service-dispatch/internal/logx"
)

// NewLogger builds the configured logging backend.
func NewLogger(cfg *config.Config) (logx.Logger, error) {
	level := logx.ParseLevel(cfg.Log.Level)
	switch cfg.Log.Backend {
	case "zap":
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level.Zap())
		l, err := zc.Build()
		if err != nil {
			return nil, fmt.Errorf("build zap logger: %w", err)
		}
		return logx.NewZapAdapter(l), nil
	default:
		return logx.NewJSON(os.Stdout, level), nil
	}
}
