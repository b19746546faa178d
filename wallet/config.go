package wallet

import (
	"fmt"

	"github.com/babylonchain/btc-staking-signer/wallet/api"
	"github.com/babylonchain/btc-staking-signer/wallet/localwallet"
	"github.com/babylonchain/btc-staking-signer/wallet/rpcwallet"
)

const defaultBackend = rpcwallet.BackendName

// Config selects the wallet backend and carries the config of each of them.
// Only the selected one is validated.
type Config struct {
	Backend string `long:"backend" description:"The wallet backend that signs staking transactions" choice:"rpc" choice:"local"`

	RPC   *rpcwallet.Config   `group:"rpc" namespace:"rpc"`
	Local *localwallet.Config `group:"local" namespace:"local"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend: defaultBackend,
		RPC:     rpcwallet.DefaultConfig(),
		Local:   localwallet.DefaultConfig(),
	}
}

func (cfg *Config) Validate() error {
	switch cfg.Backend {
	case rpcwallet.BackendName:
		if cfg.RPC == nil {
			return fmt.Errorf("the config of the %s wallet is missing", cfg.Backend)
		}
		return cfg.RPC.Validate()
	case localwallet.BackendName:
		if cfg.Local == nil {
			return fmt.Errorf("the config of the %s wallet is missing", cfg.Backend)
		}
		return cfg.Local.Validate()
	default:
		return fmt.Errorf("%w: %s", api.ErrUnknownBackend, cfg.Backend)
	}
}
