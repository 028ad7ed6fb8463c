package enrichment

import (
	"fmt"
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/config"
)

type Config struct {
	AzDO         azdo.Config
	Concurrency  int           // PRs enriched in parallel; <= 0 means no limit
	PollInterval time.Duration // delay between refreshes
	ListenAddr   string
	LogLevel     string
	PostgresURL  string // optional; enables snapshot history
	DBDebug      bool
	AutoMigrate  bool
	HistoryMax   int // snapshots kept in the history table
}

func LoadConfig() (Config, error) {
	cfg := Config{
		AzDO: azdo.Config{
			BaseURL:          config.BaseURL(),
			Organization:     config.Organization(),
			Project:          config.Project(),
			Token:            config.Token(),
			AuthMode:         config.AuthMode(),
			APIVersion:       config.APIVersion(),
			PolicyAPIVersion: config.PolicyAPIVersion(),
		},
		Concurrency: config.Concurrency(),
		ListenAddr:  config.ListenAddr(),
		LogLevel:    config.LogLevel(),
		PostgresURL: config.PostgresURL(),
		DBDebug:     config.DBDebug(),
		AutoMigrate: config.AutoMigrate(),
		HistoryMax:  config.HistoryMax(),
	}

	timeout, err := config.ParseDuration(config.HTTPTimeout(), 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid http_timeout: %w", err)
	}
	cfg.AzDO.Timeout = timeout

	interval, err := config.ParseDuration(config.PollInterval(), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid poll_interval: %w", err)
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("invalid poll_interval: must be positive, got %s", interval)
	}
	cfg.PollInterval = interval

	if cfg.AzDO.Organization == "" || cfg.AzDO.Project == "" || cfg.AzDO.Token == "" {
		return Config{}, fmt.Errorf("%s, %s and %s must be set", config.KeyOrganization, config.KeyProject, config.KeyToken)
	}
	return cfg, nil
}
