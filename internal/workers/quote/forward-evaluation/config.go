// internal/workers/quote/forward-evaluation/config.go
package forwardevaluation

import (
	"time"

	"quoteflow-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	PoolTTL time.Duration
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout: 30 * time.Second,
		PoolTTL: 2 * time.Hour,
	}
	if app != nil && app.Evaluation.PoolTTL > 0 {
		cfg.PoolTTL = time.Duration(app.Evaluation.PoolTTL) * time.Minute
	}
	return cfg
}
