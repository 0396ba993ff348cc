package config

import (
	"time"

	"github.com/joeshaw/envdecode"
	errwrap "github.com/pkg/errors"
	"github.com/subosito/gotenv"
)

// Config holds everything the console needs from the environment. A .env
// file in the working directory is honored but never required.
type Config struct {
	BackendBaseURL string        `env:"DBIDS_BACKEND_URL,default=http://localhost:8080"`
	HTTPTimeout    time.Duration `env:"DBIDS_HTTP_TIMEOUT,default=15s"`

	ListenAddr string `env:"CONSOLE_LISTEN_ADDR,default=:8090"`
	DBPath     string `env:"CONSOLE_DB_PATH,default=./console.db"`
	LogLevel   string `env:"CONSOLE_LOG_LEVEL,default=info"`

	RefreshInterval time.Duration `env:"CONSOLE_REFRESH_INTERVAL,default=5s"`
	DebounceWait    time.Duration `env:"CONSOLE_DEBOUNCE_WAIT,default=300ms"`

	// AMQP fan-out of live detection events is off unless a URL is set.
	AMQPURL      string `env:"CONSOLE_AMQP_URL,default="`
	AMQPExchange string `env:"CONSOLE_AMQP_EXCHANGE,default=dbids.events"`
}

func New() (*Config, error) {
	_ = gotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, errwrap.Wrap(err, "config.New")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return errwrap.New("DBIDS_BACKEND_URL cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return errwrap.New("DBIDS_HTTP_TIMEOUT must be positive")
	}
	if c.RefreshInterval <= 0 {
		return errwrap.New("CONSOLE_REFRESH_INTERVAL must be positive")
	}
	if c.DebounceWait <= 0 {
		return errwrap.New("CONSOLE_DEBOUNCE_WAIT must be positive")
	}
	return nil
}
