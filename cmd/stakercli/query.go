package main

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli"

	"github.com/babylonchain/btc-staking-signer/params"
	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet"
)

var broadcastCommand = cli.Command{
	Name:  "broadcast",
	Usage: "Broadcast a signed staking transaction kept in the local db.",
	Flags: []cli.Flag{
		homeCliFlag,
		cli.StringFlag{
			Name:     txHashFlag,
			Usage:    "The hash of the signed staking transaction",
			Required: true,
		},
	},
	Action: broadcastStakingTx,
}

var queryCommands = []cli.Command{
	{
		Name:   "list",
		Usage:  "List the staking transactions kept in the local db.",
		Flags:  []cli.Flag{homeCliFlag},
		Action: listStakingTxs,
	},
	{
		Name:   "fees",
		Usage:  "Show the recommended fee rates in sat/vbyte.",
		Flags:  []cli.Flag{homeCliFlag},
		Action: queryFees,
	},
	{
		Name:   "tip",
		Usage:  "Show the BTC tip height.",
		Flags:  []cli.Flag{homeCliFlag},
		Action: queryTip,
	},
	{
		Name:  "balance",
		Usage: "Show the confirmed balance of an address, or of the wallet if none is given.",
		Flags: []cli.Flag{
			homeCliFlag,
			cli.StringFlag{
				Name:  addressFlag,
				Usage: "The BTC address to query",
			},
		},
		Action: queryBalance,
	},
	{
		Name:  "params",
		Usage: "Show the global staking params active at a BTC height, or the latest version.",
		Flags: []cli.Flag{
			homeCliFlag,
			cli.Uint64Flag{
				Name:  heightFlag,
				Usage: "The BTC height to look the params up at",
			},
		},
		Action: queryParams,
	},
}

func broadcastStakingTx(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	txStore, err := e.txStore()
	if err != nil {
		return err
	}
	defer txStore.Close()

	record, err := txStore.GetStakingTx(c.String(txHashFlag))
	if err != nil {
		return err
	}

	ds, err := e.dataSource()
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := broadcast(context.Background(), ds, txStore, record, e.logger); err != nil {
		return err
	}

	printRespJSON(c, record)

	return nil
}

func listStakingTxs(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	txStore, err := e.txStore()
	if err != nil {
		return err
	}
	defer txStore.Close()

	txs, err := txStore.ListStakingTxs()
	if err != nil {
		return err
	}

	printRespJSON(c, txs)

	return nil
}

func queryFees(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	ds, err := e.dataSource()
	if err != nil {
		return err
	}
	defer ds.Close()

	fees, err := ds.GetNetworkFees(context.Background())
	if err != nil {
		return err
	}

	printRespJSON(c, fees)

	return nil
}

type tipResponse struct {
	Height uint64 `json:"height"`
}

func queryTip(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	ds, err := e.dataSource()
	if err != nil {
		return err
	}
	defer ds.Close()

	height, err := ds.GetTipHeight(context.Background())
	if err != nil {
		return err
	}

	printRespJSON(c, &tipResponse{Height: height})

	return nil
}

type balanceResponse struct {
	Address string         `json:"address"`
	Balance btcutil.Amount `json:"balance"`
}

func queryBalance(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	ds, err := e.dataSource()
	if err != nil {
		return err
	}
	defer ds.Close()

	ctx := context.Background()
	address := c.String(addressFlag)
	if address != "" {
		balance, err := ds.GetAddressBalance(ctx, address)
		if err != nil {
			return err
		}
		printRespJSON(c, &balanceResponse{Address: address, Balance: balance})
		return nil
	}

	wp, err := wallet.NewWalletProvider(e.cfg.Wallet, &e.cfg.BTCNetParams, ds, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create the wallet provider: %w", err)
	}
	identity, err := wp.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to the %s wallet: %w", wp.Name(), err)
	}
	balance, err := wp.GetBalance(ctx)
	if err != nil {
		return err
	}

	printRespJSON(c, &balanceResponse{Address: identity.Address, Balance: balance})

	return nil
}

func queryParams(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	versions, err := params.LoadGlobalParams(e.cfg.ParamsFile)
	if err != nil {
		return err
	}

	var gp *types.GlobalParams
	if c.IsSet(heightFlag) {
		gp, err = versions.VersionForHeight(c.Uint64(heightFlag))
		if err != nil {
			return err
		}
	} else {
		gp = versions.Latest()
	}

	printRespJSON(c, gp)

	return nil
}
