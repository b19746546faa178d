package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
	"github.com/babylonchain/btc-staking-signer/wallet/localwallet"
	"github.com/babylonchain/btc-staking-signer/wallet/rpcwallet"
)

// NewWalletProvider returns the WalletProvider of the configured backend. The
// provider is not connected yet.
func NewWalletProvider(cfg *Config, net *chaincfg.Params, dataSource indexer.NetworkDataSource, logger *zap.Logger) (api.WalletProvider, error) {
	switch cfg.Backend {
	case rpcwallet.BackendName:
		return rpcwallet.New(cfg.RPC, dataSource, logger)
	case localwallet.BackendName:
		return localwallet.New(cfg.Local, net, dataSource, logger)
	default:
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownBackend, cfg.Backend)
	}
}
