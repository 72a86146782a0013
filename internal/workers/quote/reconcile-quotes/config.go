// internal/workers/quote/reconcile-quotes/config.go
package reconcilequotes

import (
	"time"

	"quoteflow-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// DaysAhead is the expiry lookahead window for reminder runs.
	DaysAhead int
	Currency  string
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		// Backfill walks every pending quote in the organization.
		Timeout:   60 * time.Second,
		DaysAhead: 30,
		Currency:  "NGN",
	}
	if app != nil {
		if app.Evaluation.BackfillDaysAhead > 0 {
			cfg.DaysAhead = app.Evaluation.BackfillDaysAhead
		}
		if app.Evaluation.DefaultCurrency != "" {
			cfg.Currency = app.Evaluation.DefaultCurrency
		}
	}
	return cfg
}
