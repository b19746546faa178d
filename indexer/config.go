package indexer

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultAPIURL  = "https://mempool.space/signet"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	APIURL        string        `long:"apiurl" description:"The base URL of the mempool.space compatible REST API"`
	RPCHost       string        `long:"rpchost" description:"The host:port of a bitcoind JSON-RPC endpoint used to decode PSBTs; decoding is skipped if empty"`
	RPCUser       string        `long:"rpcuser" description:"Username of the bitcoind JSON-RPC endpoint"`
	RPCPass       string        `long:"rpcpass" description:"Password of the bitcoind JSON-RPC endpoint"`
	RPCDisableTLS bool          `long:"rpcdisabletls" description:"Disable TLS towards the bitcoind JSON-RPC endpoint"`
	Timeout       time.Duration `long:"timeout" description:"Timeout of every request to the data source"`
}

func DefaultConfig() *Config {
	return &Config{
		APIURL:        defaultAPIURL,
		RPCDisableTLS: true,
		Timeout:       defaultTimeout,
	}
}

func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API URL %s: %w", cfg.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL scheme %s", u.Scheme)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
