// internal/workers/quote/record-payment/config.go
package recordpayment

import (
	"time"

	"quoteflow-workers/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	Currency string
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout:  30 * time.Second,
		Currency: "NGN",
	}
	if app != nil && app.Evaluation.DefaultCurrency != "" {
		cfg.Currency = app.Evaluation.DefaultCurrency
	}
	return cfg
}
