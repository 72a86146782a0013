// internal/workers/quote/generate-rfq/config.go
package generaterfq

import (
	"time"

	"quoteflow-workers/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	CurrencySymbol string
}

var currencySymbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout:        30 * time.Second,
		CurrencySymbol: "₦",
	}
	if app != nil {
		if sym, ok := currencySymbols[app.Evaluation.DefaultCurrency]; ok {
			cfg.CurrencySymbol = sym
		}
	}
	return cfg
}
