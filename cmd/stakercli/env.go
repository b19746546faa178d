package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/config"
	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/log"
	"github.com/babylonchain/btc-staking-signer/stakerdb"
	"github.com/babylonchain/btc-staking-signer/util"
)

// env is what every command loads from the home directory
type env struct {
	homePath string
	cfg      *config.Config
	logger   *zap.Logger
}

func loadEnv(c *cli.Context) (*env, error) {
	homePath, err := filepath.Abs(c.String(homeFlag))
	if err != nil {
		return nil, err
	}
	homePath = util.CleanAndExpandPath(homePath)

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config at %s: %w", homePath, err)
	}

	logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to load the logger: %w", err)
	}

	return &env{
		homePath: homePath,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (e *env) dataSource() (*indexer.MempoolClient, error) {
	ds, err := indexer.NewMempoolClient(e.cfg.Indexer, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create the indexer client: %w", err)
	}
	return ds, nil
}

func (e *env) txStore() (*stakerdb.StakingTxStore, error) {
	s, err := e.cfg.DatabaseConfig.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open the staking transaction db: %w", err)
	}
	return stakerdb.NewStakingTxStore(s), nil
}

func printRespJSON(c *cli.Context, resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		fmt.Fprintln(c.App.Writer, "unable to decode response: ", err)
		return
	}

	fmt.Fprintf(c.App.Writer, "%s\n", jsonBytes)
}
