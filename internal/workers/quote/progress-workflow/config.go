// internal/workers/quote/progress-workflow/config.go
package progressworkflow

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
