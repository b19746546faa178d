package rpcwallet

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultBridgeURL    = "http://127.0.0.1:9234"
	defaultTimeout      = 5 * time.Minute
	defaultPollInterval = 5 * time.Second
)

// Config is the config of a wallet bridge speaking JSON-RPC over HTTP.
type Config struct {
	URL          string        `long:"url" description:"The URL of the wallet bridge"`
	User         string        `long:"user" description:"Username for basic auth towards the bridge"`
	Password     string        `long:"password" description:"Password for basic auth towards the bridge"`
	Timeout      time.Duration `long:"timeout" description:"Timeout of a bridge request, it includes the time the user takes to approve a prompt"`
	PollInterval time.Duration `long:"pollinterval" description:"The interval of polling the bridge for account changes"`
}

func DefaultConfig() *Config {
	return &Config{
		URL:          defaultBridgeURL,
		Timeout:      defaultTimeout,
		PollInterval: defaultPollInterval,
	}
}

func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid bridge URL %s: %w", cfg.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid bridge URL scheme %s", u.Scheme)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}
