package main

import (
	"github.com/urfave/cli"

	"github.com/babylonchain/btc-staking-signer/config"
)

const (
	homeFlag      = "home"
	forceFlag     = "force"
	fpPkFlag      = "fp-pk"
	amountFlag    = "amount"
	termFlag      = "term"
	broadcastFlag = "broadcast"
	txHashFlag    = "tx-hash"
	addressFlag   = "address"
	heightFlag    = "height"
)

var homeCliFlag = cli.StringFlag{
	Name:  homeFlag,
	Usage: "The path to the stakercli home directory",
	Value: config.DefaultStakerDir,
}
