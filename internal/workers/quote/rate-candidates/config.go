// internal/workers/quote/rate-candidates/config.go
package ratecandidates

import (
	"time"

	"quoteflow-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	PoolTTL      time.Duration
	GenAIBaseURL string
	GenAIAPIKey  string
	GenAITimeout time.Duration
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout:      30 * time.Second,
		PoolTTL:      2 * time.Hour,
		GenAITimeout: 15 * time.Second,
	}
	if app == nil {
		return cfg
	}

	if app.Evaluation.PoolTTL > 0 {
		cfg.PoolTTL = time.Duration(app.Evaluation.PoolTTL) * time.Minute
	}
	cfg.GenAIBaseURL = app.APIs.GenAI.BaseURL
	cfg.GenAIAPIKey = app.APIs.GenAI.APIKey
	if app.APIs.GenAI.Timeout > 0 {
		cfg.GenAITimeout = time.Duration(app.APIs.GenAI.Timeout) * time.Millisecond
	}
	return cfg
}
