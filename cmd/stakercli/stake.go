package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/signal"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/metrics"
	"github.com/babylonchain/btc-staking-signer/params"
	"github.com/babylonchain/btc-staking-signer/staker"
	"github.com/babylonchain/btc-staking-signer/stakerdb"
	"github.com/babylonchain/btc-staking-signer/stakingtx"
	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
)

const accountWatchInterval = 5 * time.Second

var stakeCommand = cli.Command{
	Name:  "stake",
	Usage: "Build and sign a staking transaction delegating to a finality provider.",
	Flags: []cli.Flag{
		homeCliFlag,
		cli.StringFlag{
			Name:     fpPkFlag,
			Usage:    "The x-only BTC public key of the finality provider in hex",
			Required: true,
		},
		cli.Int64Flag{
			Name:     amountFlag,
			Usage:    "The staking amount in satoshis",
			Required: true,
		},
		cli.Uint64Flag{
			Name:     termFlag,
			Usage:    "The staking term in BTC blocks",
			Required: true,
		},
		cli.BoolFlag{
			Name:  broadcastFlag,
			Usage: "Broadcast the signed transaction",
		},
	},
	Action: stake,
}

// accountWatcher is implemented by backends that detect account switches by
// polling
type accountWatcher interface {
	WatchAccounts(ctx context.Context, interval time.Duration) error
}

type stakeResponse struct {
	TxHash        string         `json:"tx_hash"`
	TxHex         string         `json:"tx_hex"`
	Fee           btcutil.Amount `json:"fee"`
	ParamsVersion uint64         `json:"params_version"`
	Status        string         `json:"status"`
}

func stake(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	cfg := e.cfg
	logger := e.logger

	versions, err := params.LoadGlobalParams(cfg.ParamsFile)
	if err != nil {
		return err
	}

	ds, err := e.dataSource()
	if err != nil {
		return err
	}
	defer ds.Close()

	wp, err := wallet.NewWalletProvider(cfg.Wallet, &cfg.BTCNetParams, ds, logger)
	if err != nil {
		return fmt.Errorf("failed to create the wallet provider: %w", err)
	}

	// Hook interceptor for os signals.
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdownInterceptor.ShutdownChannel():
			logger.Info("received shutdown signal, aborting")
			cancel()
		case <-ctx.Done():
		}
	}()

	identity, err := wp.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to the %s wallet: %w", wp.Name(), err)
	}
	if err := checkWalletNetwork(ctx, wp, cfg.BitcoinNetwork); err != nil {
		return err
	}

	if watcher, ok := wp.(accountWatcher); ok {
		if err := watcher.WatchAccounts(ctx, accountWatchInterval); err != nil {
			return err
		}
	}
	stakingCtx, release, err := staker.AbortOnAccountChange(ctx, wp)
	if err != nil {
		return err
	}
	defer release()

	sm := metrics.NewStakingMetrics()
	if cfg.Metrics.Enabled {
		addr, err := cfg.Metrics.Address()
		if err != nil {
			return fmt.Errorf("failed to get the metrics address: %w", err)
		}
		metricsServer, err := metrics.Start(addr, logger)
		if err != nil {
			return err
		}
		defer metricsServer.Stop(context.Background())
	}

	tip, err := wp.GetBTCTipHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to get the BTC tip height: %w", err)
	}
	sm.RecordBTCTipHeight(tip)
	gp, err := versions.VersionForHeight(tip)
	if err != nil {
		return err
	}

	var decoder indexer.NetworkDataSource
	if cfg.Indexer.RPCHost != "" {
		decoder = ds
	}
	signer := staker.NewStakingSigner(
		&cfg.BTCNetParams,
		stakingtx.NewBabylonScriptBuilder(&cfg.BTCNetParams),
		decoder,
		sm,
		logger,
	)

	req := &staker.StakingRequest{
		FinalityProvider:   &types.FinalityProvider{BtcPk: c.String(fpPkFlag)},
		StakingAmount:      btcutil.Amount(c.Int64(amountFlag)),
		StakingTermBlocks:  c.Uint64(termFlag),
		Params:             gp,
		StakerAddress:      identity.Address,
		StakerPublicKeyHex: identity.PublicKeyHex,
	}
	signed, err := signer.SignStakingTransactionWithRetry(stakingCtx, wp, req, cfg.MaxRetries+1, cfg.RetryInterval)
	if err != nil {
		if cause := context.Cause(stakingCtx); errors.Is(cause, staker.ErrAccountChanged) {
			return cause
		}
		var pipelineErr *staker.PipelineError
		if errors.As(err, &pipelineErr) {
			return errors.New(pipelineErr.UserMessage())
		}
		return err
	}

	txStore, err := e.txStore()
	if err != nil {
		return err
	}
	defer txStore.Close()

	record := &stakerdb.StoredStakingTx{
		TxHash:        signed.TxHash.String(),
		TxHex:         signed.Hex,
		StakerAddress: identity.Address,
		FpBtcPk:       req.FinalityProvider.BtcPk,
		StakingAmount: req.StakingAmount,
		StakingTerm:   req.StakingTermBlocks,
		ParamsVersion: gp.Version,
		Fee:           signed.Fee,
		Status:        stakerdb.TxStatusSigned,
		CreatedAt:     time.Now(),
	}
	if err := txStore.SaveStakingTx(record); err != nil {
		return fmt.Errorf("failed to save the staking transaction: %w", err)
	}

	if c.Bool(broadcastFlag) {
		if err := broadcast(ctx, wp, txStore, record, logger); err != nil {
			return err
		}
	}

	printRespJSON(c, &stakeResponse{
		TxHash:        record.TxHash,
		TxHex:         record.TxHex,
		Fee:           record.Fee,
		ParamsVersion: record.ParamsVersion,
		Status:        string(record.Status),
	})

	return nil
}

func checkWalletNetwork(ctx context.Context, wp api.WalletProvider, expected string) error {
	network, err := wp.GetNetwork(ctx)
	if err != nil {
		return fmt.Errorf("failed to get the wallet network: %w", err)
	}
	if string(network) != expected {
		return fmt.Errorf("the wallet is on %s while %s is configured", network, expected)
	}
	return nil
}

// txPusher is satisfied by both the wallet and the indexer
type txPusher interface {
	PushTx(ctx context.Context, txHex string) (string, error)
}

func broadcast(ctx context.Context, pusher txPusher, txStore *stakerdb.StakingTxStore, record *stakerdb.StoredStakingTx, logger *zap.Logger) error {
	txHash, err := pusher.PushTx(ctx, record.TxHex)
	if err != nil {
		return fmt.Errorf("failed to broadcast the staking transaction %s: %w", record.TxHash, err)
	}
	if txHash != record.TxHash {
		logger.Warn("the broadcast txid differs from the signed one",
			zap.String("expected", record.TxHash),
			zap.String("got", txHash))
	}

	now := time.Now()
	if err := txStore.SetBroadcast(record.TxHash, now); err != nil {
		return err
	}
	record.Status = stakerdb.TxStatusBroadcast
	record.BroadcastAt = &now

	logger.Info("the staking transaction is broadcast", zap.String("tx_hash", record.TxHash))

	return nil
}
