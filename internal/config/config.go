package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration. Everything has a default so the app
// works offline out of the box; remote sync stays disabled until a backend
// URL is configured.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DBDSN   string `envconfig:"DB_DSN" default:"smarttrade.db"`
	LogFile string `envconfig:"LOG_FILE" default:"./smarttrade.log"`

	RemoteURL     string        `envconfig:"REMOTE_URL"`
	RemoteAPIKey  string        `envconfig:"REMOTE_API_KEY"`
	RemoteTimeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"10s"`

	SyncInterval   time.Duration `envconfig:"SYNC_INTERVAL" default:"5m"`
	SyncMaxRetries int           `envconfig:"SYNC_MAX_RETRIES" default:"3"`
	SyncRetryDelay time.Duration `envconfig:"SYNC_RETRY_DELAY" default:"2s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	log.Printf("[config] PORT=%s DB_DSN=%s SYNC_INTERVAL=%s remote=%v",
		cfg.Port, cfg.DBDSN, cfg.SyncInterval, cfg.RemoteURL != "")
	return cfg, nil
}

// SyncEnabled reports whether a remote backend is configured at all.
func (c Config) SyncEnabled() bool { return c.RemoteURL != "" }
